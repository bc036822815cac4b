package types

import (
	"time"

	"github.com/carwyn987/Drone-Avoidance/drone"
)

// Snapshot is a read-only copy of one tick, handed to observers
type Snapshot struct {
	Experiment string          `json:"experiment"`
	Episode    int             `json:"episode"`
	Tick       int             `json:"tick"`
	Drone      drone.State     `json:"drone"`
	Obstacle   *drone.Obstacle `json:"obstacle,omitempty"`
	Action     string          `json:"action"`
	Reward     float64         `json:"reward"`
	Epsilon    float64         `json:"epsilon"`
	Crashed    bool            `json:"crashed"`
}

// EpisodeResult summarizes a finished episode
type EpisodeResult struct {
	Experiment  string        `json:"experiment"`
	Episode     int           `json:"episode"`
	Length      int           `json:"length"`
	TotalReward float64       `json:"total_reward"`
	InBand      int           `json:"in_band"`
	Epsilon     float64       `json:"epsilon"`
	Crashed     bool          `json:"crashed"`
	TrainError  string        `json:"train_error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Observer consumes the progress of a training loop. Implementations must
// not block: OnTick is called from the loop between two ticks.
type Observer interface {
	OnTick(Snapshot)
	OnEpisodeEnd(EpisodeResult)
}
