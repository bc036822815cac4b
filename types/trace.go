package types

import (
	"encoding/json"

	"github.com/carwyn987/Drone-Avoidance/drone"
)

// Trace of an episode as (state, action, nextState, reward) tuples
type Trace struct {
	states     []drone.State
	actions    []drone.Action
	nextStates []drone.State
	rewards    []float64
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]drone.State, 0),
		actions:    make([]drone.Action, 0),
		nextStates: make([]drone.State, 0),
		rewards:    make([]float64, 0),
	}
}

func (t *Trace) Append(state drone.State, action drone.Action, nextState drone.State, reward float64) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.nextStates = append(t.nextStates, nextState)
	t.rewards = append(t.rewards, reward)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (drone.State, drone.Action, drone.State, float64, bool) {
	if i < 0 || i >= len(t.states) {
		return drone.State{}, 0, drone.State{}, 0, false
	}
	return t.states[i], t.actions[i], t.nextStates[i], t.rewards[i], true
}

func (t *Trace) Last() (drone.State, drone.Action, drone.State, float64, bool) {
	return t.Get(len(t.states) - 1)
}

// TotalReward is the undiscounted return of the episode
func (t *Trace) TotalReward() float64 {
	sum := 0.0
	for _, r := range t.rewards {
		sum += r
	}
	return sum
}

// TicksInBand counts the steps that ended with the drone inside the band
func (t *Trace) TicksInBand(band drone.Band) int {
	count := 0
	for _, s := range t.nextStates {
		if band.Contains(s.Y) {
			count++
		}
	}
	return count
}

type traceStep struct {
	State     drone.State `json:"state"`
	Action    string      `json:"action"`
	NextState drone.State `json:"next_state"`
	Reward    float64     `json:"reward"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	steps := make([]traceStep, t.Len())
	for i := range steps {
		steps[i] = traceStep{
			State:     t.states[i],
			Action:    t.actions[i].Hash(),
			NextState: t.nextStates[i],
			Reward:    t.rewards[i],
		}
	}
	return json.Marshal(steps)
}
