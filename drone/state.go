package drone

import "fmt"

// Action is one of the two discrete thrust commands
type Action int

const (
	ThrustDown Action = iota
	ThrustUp
)

// NumActions is the size of the action space
const NumActions = 2

var AllActions = []Action{ThrustDown, ThrustUp}

func (a Action) Valid() bool {
	return a == ThrustDown || a == ThrustUp
}

func (a Action) String() string {
	switch a {
	case ThrustDown:
		return "Down"
	case ThrustUp:
		return "Up"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Hash is the action identifier used in traces and records
func (a Action) Hash() string {
	return a.String()
}

// Config holds the physical constants of the simulation.
// AccDown and AccUp need not be equal.
type Config struct {
	Gravity      float64 `mapstructure:"gravity" yaml:"gravity" json:"gravity"`
	AccDown      float64 `mapstructure:"acc_down" yaml:"acc_down" json:"acc_down"`
	AccUp        float64 `mapstructure:"acc_up" yaml:"acc_up" json:"acc_up"`
	CanvasWidth  float64 `mapstructure:"canvas_width" yaml:"canvas_width" json:"canvas_width"`
	CanvasHeight float64 `mapstructure:"canvas_height" yaml:"canvas_height" json:"canvas_height"`
	Width        float64 `mapstructure:"width" yaml:"width" json:"width"`
	Height       float64 `mapstructure:"height" yaml:"height" json:"height"`
}

// DefaultConfig mirrors the deterministic drone model
func DefaultConfig() Config {
	return Config{
		Gravity:      0.02,
		AccDown:      0.02,
		AccUp:        0.05,
		CanvasWidth:  800,
		CanvasHeight: 600,
		Width:        50,
		Height:       30,
	}
}

// State is the kinematic state of the drone. Values are never clamped,
// leaving the canvas is reported by Crashed.
type State struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Middle returns a still drone at the centre of the canvas
func Middle(cfg Config) State {
	return State{
		X: cfg.CanvasWidth / 2,
		Y: cfg.CanvasHeight / 2,
	}
}

// ApplyAction adds the velocity delta of the action.
// Panics on an action outside the closed action space.
func (s State) ApplyAction(a Action, cfg Config) State {
	switch a {
	case ThrustDown:
		s.VY += cfg.AccDown
	case ThrustUp:
		s.VY -= cfg.AccUp
	default:
		panic(fmt.Sprintf("invalid action %d", int(a)))
	}
	return s
}

// Update integrates position and then accumulates gravity for the next tick
func (s State) Update(gravity float64) State {
	s.X += s.VX
	s.Y += s.VY
	s.VY += gravity
	return s
}

// Step is one full tick: action delta, integration, gravity
func (s State) Step(a Action, cfg Config) State {
	return s.ApplyAction(a, cfg).Update(cfg.Gravity)
}

// Crashed reports whether the drone touched the floor or the ceiling
func (s State) Crashed(cfg Config) bool {
	if s.Y+cfg.Height >= cfg.CanvasHeight {
		return true
	}
	return s.Y <= 0
}

// HitObstacle is the four half-plane overlap test against the obstacle.
// It is an approximation of circle/rectangle intersection and the last
// condition uses the obstacle centre rather than its left edge.
func (s State) HitObstacle(o Obstacle, cfg Config) bool {
	top := o.Y-o.Radius < s.Y+cfg.Height
	bottom := o.Y+o.Radius > s.Y
	right := o.X+o.Radius > s.X
	left := o.X < s.X+cfg.Width
	return top && bottom && right && left
}
