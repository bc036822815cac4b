package drone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGravityIncreasesVelocity(t *testing.T) {
	for _, g := range []float64{0.001, 0.02, 0.5, 3} {
		s := State{Y: 300}
		prev := s.VY
		for i := 0; i < 100; i++ {
			s = s.Update(g)
			require.Greater(t, s.VY, prev, "gravity %v tick %d", g, i)
			prev = s.VY
		}
	}
}

func TestThrustUpRecurrence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = 0.02
	cfg.AccUp = 0.05

	s := State{Y: 300, VY: 0}
	for i := 0; i < 10; i++ {
		s = s.Step(ThrustUp, cfg)
	}

	// the velocity used for the move of tick i is (i-1)*g - i*accUp
	const k = 10
	wantVY := k * (cfg.Gravity - cfg.AccUp)
	wantY := 300.0
	for i := 1; i <= k; i++ {
		wantY += float64(i-1)*cfg.Gravity - float64(i)*cfg.AccUp
	}
	assert.InDelta(t, -0.3, wantVY, 1e-12)
	assert.InDelta(t, 298.15, wantY, 1e-12)
	assert.InDelta(t, wantVY, s.VY, 1e-12)
	assert.InDelta(t, wantY, s.Y, 1e-12)
	assert.Zero(t, s.X, "x unchanged without horizontal velocity")
}

func TestAsymmetricThrust(t *testing.T) {
	cfg := Config{AccDown: 0.02, AccUp: 0.05}
	s := State{}
	assert.InDelta(t, 0.02, s.ApplyAction(ThrustDown, cfg).VY, 1e-12)
	assert.InDelta(t, -0.05, s.ApplyAction(ThrustUp, cfg).VY, 1e-12)
}

func TestInvalidActionPanics(t *testing.T) {
	cfg := DefaultConfig()
	assert.Panics(t, func() { State{}.Step(Action(7), cfg) })
	assert.False(t, Action(-1).Valid())
}

func TestCrashed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CanvasHeight = 600
	cfg.Height = 30

	assert.True(t, State{Y: 575}.Crashed(cfg))
	assert.False(t, State{Y: 300}.Crashed(cfg))
	assert.True(t, State{Y: 570}.Crashed(cfg), "bottom edge touching the floor")
	assert.True(t, State{Y: 0}.Crashed(cfg))
	assert.True(t, State{Y: -4}.Crashed(cfg))
	assert.False(t, State{Y: 0.5}.Crashed(cfg))
}

func TestHitObstacle(t *testing.T) {
	cfg := DefaultConfig()
	d := State{X: 100, Y: 100}

	assert.True(t, d.HitObstacle(Obstacle{X: 120, Y: 110, Radius: 10}, cfg))
	// far left, right edge does not reach the drone
	assert.False(t, d.HitObstacle(Obstacle{X: 80, Y: 110, Radius: 10}, cfg))
	// centre right of the drone's right edge
	assert.False(t, d.HitObstacle(Obstacle{X: 150, Y: 110, Radius: 10}, cfg))
	// the left edge overlaps but the centre does not; the test uses the centre
	assert.False(t, d.HitObstacle(Obstacle{X: 155, Y: 110, Radius: 10}, cfg))
	// above and below
	assert.False(t, d.HitObstacle(Obstacle{X: 120, Y: 85, Radius: 10}, cfg))
	assert.False(t, d.HitObstacle(Obstacle{X: 120, Y: 145, Radius: 10}, cfg))
}

func TestObstacleUpdate(t *testing.T) {
	o := Obstacle{X: 0, Y: 100, VX: 10, VY: -1, Radius: 5}.Update(0.5)
	assert.Equal(t, Obstacle{X: 10, Y: 99, VX: 10, VY: -0.5, Radius: 5}, o)
}

func TestObstacleSpawner(t *testing.T) {
	cfg := DefaultObstacleConfig()
	cfg.Randomized = false
	fixed := NewObstacleSpawner(cfg, 600, 1).Spawn()
	assert.Equal(t, Obstacle{X: 0, Y: 800, Radius: cfg.Radius}, fixed)

	cfg.Randomized = true
	s := NewObstacleSpawner(cfg, 600, 1)
	for i := 0; i < 200; i++ {
		o := s.Spawn()
		require.GreaterOrEqual(t, o.Y, 0.0)
		require.Less(t, o.Y, 600.0)
		require.GreaterOrEqual(t, o.VX, cfg.MinVX)
		require.Less(t, o.VX, cfg.MaxVX)
		require.GreaterOrEqual(t, o.VY, cfg.MinVY)
		require.Less(t, o.VY, cfg.MaxVY)
	}
}
