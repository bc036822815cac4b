package drone

import (
	"math"

	"github.com/pkg/errors"
)

// Band is the target vertical band, Top <= Bottom in canvas coordinates
type Band struct {
	Top    float64 `mapstructure:"top" yaml:"top" json:"top"`
	Bottom float64 `mapstructure:"bottom" yaml:"bottom" json:"bottom"`
}

// Contains reports whether y lies within the band, bounds included
func (b Band) Contains(y float64) bool {
	return y >= b.Top && y <= b.Bottom
}

// Distance is how far y lies outside the band, 0 inside
func (b Band) Distance(y float64) float64 {
	if y < b.Top {
		return b.Top - y
	}
	if y > b.Bottom {
		return y - b.Bottom
	}
	return 0
}

func (b Band) Center() float64 {
	return (b.Top + b.Bottom) / 2
}

// RewardFunc maps the current drone state (and obstacle, nil when absent)
// to a scalar. Implementations must be pure.
type RewardFunc func(State, *Obstacle) float64

// LinearBandReward returns 1 inside the band and a penalty proportional to
// the distance outside of it. scale must be positive.
func LinearBandReward(band Band, scale float64) RewardFunc {
	return func(s State, _ *Obstacle) float64 {
		if band.Contains(s.Y) {
			return 1
		}
		return -band.Distance(s.Y) / scale
	}
}

// FixedBandReward returns bonus inside the band and -penalty outside
func FixedBandReward(band Band, bonus, penalty float64) RewardFunc {
	return func(s State, _ *Obstacle) float64 {
		if band.Contains(s.Y) {
			return bonus
		}
		return -penalty
	}
}

// WithObstaclePenalty subtracts penalty whenever the obstacle centre is
// within clearance of the drone's column. Only X is compared so the
// penalty is the same at every height and the base shape stays monotone.
func WithObstaclePenalty(base RewardFunc, clearance, penalty float64) RewardFunc {
	return func(s State, o *Obstacle) float64 {
		r := base(s, o)
		if o == nil {
			return r
		}
		if math.Abs(o.X-s.X) < clearance+o.Radius {
			r -= penalty
		}
		return r
	}
}

// RewardConfig selects the reward shaping
type RewardConfig struct {
	Shape     string  `mapstructure:"shape" yaml:"shape" json:"shape"`
	Top       float64 `mapstructure:"top" yaml:"top" json:"top"`
	Bottom    float64 `mapstructure:"bottom" yaml:"bottom" json:"bottom"`
	Scale     float64 `mapstructure:"scale" yaml:"scale" json:"scale"`
	Bonus     float64 `mapstructure:"bonus" yaml:"bonus" json:"bonus"`
	Penalty   float64 `mapstructure:"penalty" yaml:"penalty" json:"penalty"`
	Clearance float64 `mapstructure:"clearance" yaml:"clearance" json:"clearance"`
	// obstacle proximity penalty, 0 disables it
	ObstaclePenalty float64 `mapstructure:"obstacle_penalty" yaml:"obstacle_penalty" json:"obstacle_penalty"`
}

func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		Shape:     "linear",
		Top:       250,
		Bottom:    350,
		Scale:     100,
		Bonus:     1,
		Penalty:   1,
		Clearance: 50,
	}
}

func (c RewardConfig) Band() Band {
	return Band{Top: c.Top, Bottom: c.Bottom}
}

// Build constructs the reward function described by the config
func (c RewardConfig) Build() (RewardFunc, error) {
	if c.Top > c.Bottom {
		return nil, errors.Errorf("reward band top %.2f below bottom %.2f", c.Top, c.Bottom)
	}
	if c.ObstaclePenalty < 0 {
		return nil, errors.Errorf("obstacle penalty %.2f is negative", c.ObstaclePenalty)
	}
	var f RewardFunc
	switch c.Shape {
	case "", "linear":
		if c.Scale <= 0 {
			return nil, errors.Errorf("linear reward scale %.2f must be positive", c.Scale)
		}
		f = LinearBandReward(c.Band(), c.Scale)
	case "fixed":
		if c.Bonus < -c.Penalty {
			return nil, errors.Errorf("band bonus %.2f is below the outside reward %.2f", c.Bonus, -c.Penalty)
		}
		f = FixedBandReward(c.Band(), c.Bonus, c.Penalty)
	default:
		return nil, errors.Errorf("unknown reward shape %q", c.Shape)
	}
	if c.ObstaclePenalty > 0 {
		f = WithObstaclePenalty(f, c.Clearance, c.ObstaclePenalty)
	}
	return f, nil
}
