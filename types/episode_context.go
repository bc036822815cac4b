package types

import (
	"context"
	"time"

	"github.com/carwyn987/Drone-Avoidance/drone"
)

// EpisodeContext carries the inputs of an episode and collects its outcome
type EpisodeContext struct {
	Context    context.Context
	Experiment string
	Episode    int
	Epsilon    float64

	Trace    *Trace
	Duration time.Duration

	// how the episode ended
	Crashed     bool
	HorizonEnd  bool
	Interrupted bool
	Err         error
	TrainErr    error
}

func NewEpisodeContext(ctx context.Context, experiment string, episode int, epsilon float64) *EpisodeContext {
	return &EpisodeContext{
		Context:    ctx,
		Experiment: experiment,
		Episode:    episode,
		Epsilon:    epsilon,
		Trace:      NewTrace(),
	}
}

func (e *EpisodeContext) SetError(err error) {
	e.Err = err
}

// Result summarizes the episode for observers and records
func (e *EpisodeContext) Result(band drone.Band) EpisodeResult {
	r := EpisodeResult{
		Experiment:  e.Experiment,
		Episode:     e.Episode,
		Length:      e.Trace.Len(),
		TotalReward: e.Trace.TotalReward(),
		InBand:      e.Trace.TicksInBand(band),
		Epsilon:     e.Epsilon,
		Crashed:     e.Crashed,
		Duration:    e.Duration,
	}
	if e.TrainErr != nil {
		r.TrainError = e.TrainErr.Error()
	}
	return r
}
