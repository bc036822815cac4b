package types

import "github.com/carwyn987/Drone-Avoidance/drone"

// Environment is what the training loop steps through.
// *drone.Environment is the implementation used by the commands.
type Environment interface {
	// Reset called at the start of each episode
	Reset() drone.Observation
	// Observe the current state without changing it
	Observe() drone.Observation
	// Step applies exactly one action
	Step(drone.Action) drone.StepResult
}

var _ Environment = &drone.Environment{}
