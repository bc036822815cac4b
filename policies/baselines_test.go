package policies

import (
	"testing"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookaheadSteersTowardBand(t *testing.T) {
	cfg := drone.DefaultConfig()
	band := drone.Band{Top: 250, Bottom: 350}
	l := NewLookaheadPolicy(cfg, band, 1)

	assert.Equal(t, drone.ThrustUp, l.NextAction(drone.Observation{State: drone.State{Y: 420}}, 0))
	assert.Equal(t, drone.ThrustDown, l.NextAction(drone.Observation{State: drone.State{Y: 180}}, 0))
}

func TestLookaheadKeepsDroneInBand(t *testing.T) {
	cfg := drone.DefaultConfig()
	band := drone.Band{Top: 250, Bottom: 350}
	for _, ticks := range []int{1, 10, 40} {
		l := NewLookaheadPolicy(cfg, band, ticks)
		s := drone.Middle(cfg)
		for i := 0; i < 5000; i++ {
			s = s.Step(l.NextAction(drone.Observation{State: s}, 0), cfg)
			require.False(t, s.Crashed(cfg))
			require.True(t, band.Contains(s.Y), "ticks %d left the band at %v", ticks, s.Y)
		}
	}
}

func TestRandomPolicy(t *testing.T) {
	r := NewRandomPolicy(5)
	seen := make(map[drone.Action]int)
	for i := 0; i < 1000; i++ {
		seen[r.NextAction(drone.Observation{}, 0)]++
	}
	assert.Len(t, seen, 2)
	assert.NoError(t, r.UpdateIteration(0, nil, 0))
}

func TestTabularPolicyBackwardUpdate(t *testing.T) {
	memory, err := types.NewReplayMemory(10)
	require.NoError(t, err)
	memory.Add(types.Transition{State: drone.FeatureVector{0.3, 0.3}, Action: drone.ThrustDown, Reward: 5})
	memory.Add(types.Transition{State: drone.FeatureVector{0, 0}, Action: drone.ThrustUp, Reward: 1})
	memory.Add(types.Transition{State: drone.FeatureVector{0.4, 0}, Action: drone.ThrustDown, Reward: -1})

	p := NewTabularPolicy(0.5, 0.9, 10, 1)
	require.NoError(t, p.UpdateIteration(0, memory, 2))

	assert.InDelta(t, -0.5, p.qTable.Get("9|5", "Down", 0), 1e-12)
	assert.InDelta(t, 0.5, p.qTable.Get("5|5", "Up", 0), 1e-12)
	assert.False(t, p.qTable.HasState("8|8"), "transition outside of the episode was used")
	assert.Equal(t, drone.ThrustUp, p.NextAction(drone.Observation{Features: drone.FeatureVector{0.01, 0.02}}, 0))

	blob, err := p.SerializeWeights()
	require.NoError(t, err)
	restored := NewTabularPolicy(0.5, 0.9, 10, 2)
	require.NoError(t, restored.LoadWeights(blob))
	assert.InDelta(t, 0.5, restored.qTable.Get("5|5", "Up", 0), 1e-12)
	assert.Error(t, restored.LoadWeights([]byte("[1,2]")))

	p.Reset()
	assert.Zero(t, p.qTable.Len())
}

func TestTabularKeyClampsOutOfRange(t *testing.T) {
	p := NewTabularPolicy(0.1, 0.9, 4, 1)
	assert.Equal(t, "0|3", p.key(drone.FeatureVector{-3, 7}))
	assert.Equal(t, "2|1", p.key(drone.FeatureVector{0, -0.2}))
}
