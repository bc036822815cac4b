package drone

import "golang.org/x/exp/rand"

// Obstacle is the ball that crosses the canvas in the obstacle variant
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
}

// Update moves the obstacle and accumulates gravity
func (o Obstacle) Update(gravity float64) Obstacle {
	o.X += o.VX
	o.Y += o.VY
	o.VY += gravity
	return o
}

// ObstacleConfig describes how obstacles are spawned at the start of an episode
type ObstacleConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Randomized bool    `mapstructure:"randomized" yaml:"randomized" json:"randomized"`
	Radius     float64 `mapstructure:"radius" yaml:"radius" json:"radius"`

	// fixed spawn
	SpawnX  float64 `mapstructure:"spawn_x" yaml:"spawn_x" json:"spawn_x"`
	SpawnY  float64 `mapstructure:"spawn_y" yaml:"spawn_y" json:"spawn_y"`
	SpawnVX float64 `mapstructure:"spawn_vx" yaml:"spawn_vx" json:"spawn_vx"`
	SpawnVY float64 `mapstructure:"spawn_vy" yaml:"spawn_vy" json:"spawn_vy"`

	// randomized spawn ranges, [min, max)
	MinVX float64 `mapstructure:"min_vx" yaml:"min_vx" json:"min_vx"`
	MaxVX float64 `mapstructure:"max_vx" yaml:"max_vx" json:"max_vx"`
	MinVY float64 `mapstructure:"min_vy" yaml:"min_vy" json:"min_vy"`
	MaxVY float64 `mapstructure:"max_vy" yaml:"max_vy" json:"max_vy"`
}

func DefaultObstacleConfig() ObstacleConfig {
	return ObstacleConfig{
		Enabled:    false,
		Randomized: true,
		Radius:     20,
		SpawnX:     0,
		SpawnY:     800,
		MinVX:      10,
		MaxVX:      30,
		MinVY:      -5,
		MaxVY:      5,
	}
}

// ObstacleSpawner produces the obstacle state at every reset
type ObstacleSpawner struct {
	config ObstacleConfig
	height float64
	rand   *rand.Rand
}

func NewObstacleSpawner(config ObstacleConfig, canvasHeight float64, seed uint64) *ObstacleSpawner {
	return &ObstacleSpawner{
		config: config,
		height: canvasHeight,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

func (s *ObstacleSpawner) Spawn() Obstacle {
	if !s.config.Randomized {
		return Obstacle{
			X:      s.config.SpawnX,
			Y:      s.config.SpawnY,
			VX:     s.config.SpawnVX,
			VY:     s.config.SpawnVY,
			Radius: s.config.Radius,
		}
	}
	return Obstacle{
		X:      s.config.SpawnX,
		Y:      s.rand.Float64() * s.height,
		VX:     s.config.MinVX + s.rand.Float64()*(s.config.MaxVX-s.config.MinVX),
		VY:     s.config.MinVY + s.rand.Float64()*(s.config.MaxVY-s.config.MinVY),
		Radius: s.config.Radius,
	}
}
