package types

import "github.com/carwyn987/Drone-Avoidance/drone"

// Policy chooses the action of every tick and learns at the end of each episode
type Policy interface {
	// NextAction picks the action for the observation with exploration rate epsilon
	NextAction(drone.Observation, float64) drone.Action
	// UpdateIteration is invoked after every episode with the shared memory
	// and the number of transitions the episode added to it
	UpdateIteration(episode int, memory *ReplayMemory, episodeLength int) error
	// Reset forgets everything learnt
	Reset()
}

// Persistent is implemented by policies whose learnt state can be checkpointed.
// The blob is opaque to the caller.
type Persistent interface {
	SerializeWeights() ([]byte, error)
	LoadWeights([]byte) error
}
