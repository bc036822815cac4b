package policies

import (
	"math"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/types"
	"golang.org/x/exp/rand"
)

// RandomPolicy picks uniformly at random and never learns
type RandomPolicy struct {
	rand *rand.Rand
}

var _ types.Policy = &RandomPolicy{}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) NextAction(_ drone.Observation, _ float64) drone.Action {
	return drone.AllActions[r.rand.Intn(drone.NumActions)]
}

func (r *RandomPolicy) UpdateIteration(_ int, _ *types.ReplayMemory, _ int) error {
	return nil
}

func (r *RandomPolicy) Reset() {}

// LookaheadPolicy simulates holding each action for a few ticks and picks
// the one ending closest to the band centre. It ignores epsilon.
type LookaheadPolicy struct {
	config drone.Config
	band   drone.Band
	ticks  int
}

var _ types.Policy = &LookaheadPolicy{}

func NewLookaheadPolicy(config drone.Config, band drone.Band, ticks int) *LookaheadPolicy {
	if ticks <= 0 {
		ticks = 1
	}
	return &LookaheadPolicy{
		config: config,
		band:   band,
		ticks:  ticks,
	}
}

func (l *LookaheadPolicy) NextAction(obs drone.Observation, _ float64) drone.Action {
	best := drone.ThrustDown
	bestDist := math.Inf(1)
	for _, a := range drone.AllActions {
		s := obs.State
		for i := 0; i < l.ticks; i++ {
			s = s.Step(a, l.config)
		}
		if d := math.Abs(s.Y - l.band.Center()); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}

func (l *LookaheadPolicy) UpdateIteration(_ int, _ *types.ReplayMemory, _ int) error {
	return nil
}

func (l *LookaheadPolicy) Reset() {}
