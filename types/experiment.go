package types

import (
	"context"
	"fmt"
	"math"
	"path"
	"strconv"
	"time"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/storage"
	"github.com/carwyn987/Drone-Avoidance/util"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// LoopConfig holds the episode level constants of the training loop
type LoopConfig struct {
	// Episodes is the total number of episodes, resumed ones included.
	// 0 runs until the context is cancelled.
	Episodes int `mapstructure:"episodes" yaml:"episodes" json:"episodes"`
	// Horizon caps the ticks of an episode, 0 means until crash
	Horizon int `mapstructure:"horizon" yaml:"horizon" json:"horizon"`

	EpsilonStart float64 `mapstructure:"epsilon_start" yaml:"epsilon_start" json:"epsilon_start"`
	EpsilonDecay float64 `mapstructure:"epsilon_decay" yaml:"epsilon_decay" json:"epsilon_decay"`
	EpsilonMin   float64 `mapstructure:"epsilon_min" yaml:"epsilon_min" json:"epsilon_min"`

	// CheckpointEvery episodes, 0 disables checkpoints
	CheckpointEvery int `mapstructure:"checkpoint_every" yaml:"checkpoint_every" json:"checkpoint_every"`
	// TickDelay is the pause between two ticks
	TickDelay time.Duration `mapstructure:"tick_delay" yaml:"tick_delay" json:"tick_delay"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Episodes:        1000,
		Horizon:         5000,
		EpsilonStart:    0.9,
		EpsilonDecay:    0.9,
		EpsilonMin:      0,
		CheckpointEvery: 50,
	}
}

// EpsilonAt is the exploration rate after the given number of decayed episodes
func (c LoopConfig) EpsilonAt(episodes int) float64 {
	eps := c.EpsilonStart * math.Pow(c.EpsilonDecay, float64(episodes))
	return math.Max(eps, c.EpsilonMin)
}

// RunConfig configures a single execution of an experiment
type RunConfig struct {
	Context    context.Context
	CurrentRun int
	Loop       LoopConfig

	Analyzers []Analyzer
	Observers []Observer
	// Store is optional, checkpoints are taken only for Persistent policies
	Store  storage.Store
	Logger log.Logger
	// Output receives the status line, printed inline when nil
	Output *ParallelOutput

	RecordTraces bool
	RecordPath   string
}

// RunSummary is returned by Experiment.Run
type RunSummary struct {
	Episodes     int
	Crashes      int
	HorizonEnds  int
	TrainFaults  int
	Checkpoints  int
	LastEpisode  int
	Epsilon      float64
	Interrupted  bool
	ResumedFrom  int
	TotalTicks   int
	EpisodeError error
}

// Experiment binds a policy to an environment and a replay memory
type Experiment struct {
	Name        string
	policy      Policy
	environment Environment
	memory      *ReplayMemory
	band        drone.Band
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, policy Policy, environment Environment, memory *ReplayMemory, band drone.Band) *Experiment {
	return &Experiment{
		Name:        name,
		policy:      policy,
		environment: environment,
		memory:      memory,
		band:        band,
	}
}

func (e *Experiment) Memory() *ReplayMemory {
	return e.memory
}

func (e *Experiment) Policy() Policy {
	return e.policy
}

// Run the experiment for the configured number of episodes. Cancelling the
// context stops the loop between two ticks; the run then returns the
// summary with Interrupted set and a nil error.
func (e *Experiment) Run(rc *RunConfig) (*RunSummary, error) {
	ctx := rc.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := rc.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = log.With(logger, "experiment", e.Name, "run", rc.CurrentRun)

	summary := &RunSummary{}
	startEpisode := e.restore(ctx, rc, logger)
	summary.ResumedFrom = startEpisode
	eps := rc.Loop.EpsilonAt(startEpisode)

	episode := startEpisode
	for rc.Loop.Episodes == 0 || episode < rc.Loop.Episodes {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		eCtx := NewEpisodeContext(ctx, e.Name, episode, eps)
		e.runEpisode(eCtx, rc)
		summary.TotalTicks += eCtx.Trace.Len()

		if eCtx.Interrupted {
			// the transitions of a partial episode stay in memory, nothing else changes
			summary.Interrupted = true
			break
		}
		if eCtx.Err != nil {
			level.Error(logger).Log("msg", "episode aborted", "episode", episode, "err", eCtx.Err)
			summary.EpisodeError = eCtx.Err
			return summary, eCtx.Err
		}

		summary.Episodes++
		if eCtx.Crashed {
			summary.Crashes++
		} else {
			summary.HorizonEnds++
		}

		eps = math.Max(eps*rc.Loop.EpsilonDecay, rc.Loop.EpsilonMin)
		if err := e.policy.UpdateIteration(episode, e.memory, eCtx.Trace.Len()); err != nil {
			summary.TrainFaults++
			eCtx.TrainErr = err
			level.Warn(logger).Log("msg", "training step failed", "episode", episode, "err", err)
		}
		episode++

		if rc.Loop.CheckpointEvery > 0 && episode%rc.Loop.CheckpointEvery == 0 {
			if e.checkpoint(ctx, rc, episode, logger) {
				summary.Checkpoints++
			}
		}

		result := eCtx.Result(e.band)
		for _, a := range rc.Analyzers {
			a.Analyze(rc.CurrentRun, result.Episode, e.Name, eCtx.Trace)
		}
		for _, o := range rc.Observers {
			o.OnEpisodeEnd(result)
		}
		if rc.RecordTraces {
			e.recordEpisode(rc, eCtx, logger)
		}
		level.Debug(logger).Log("msg", "episode done", "episode", result.Episode, "length", result.Length, "reward", result.TotalReward, "epsilon", eps)
		e.printStatus(rc, summary, eps)
	}

	summary.LastEpisode = episode
	summary.Epsilon = eps
	if rc.Output == nil {
		fmt.Println("")
	}
	return summary, nil
}

// restore loads the last checkpoint into the policy. Missing or corrupt
// checkpoints leave the policy freshly initialized.
func (e *Experiment) restore(ctx context.Context, rc *RunConfig, logger log.Logger) int {
	p, ok := e.policy.(Persistent)
	if rc.Store == nil || !ok {
		return 0
	}
	c, err := rc.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			level.Info(logger).Log("msg", "no checkpoint, starting fresh")
		} else {
			level.Warn(logger).Log("msg", "could not load checkpoint, starting fresh", "err", err)
		}
		return 0
	}
	if err := p.LoadWeights(c.Weights); err != nil {
		level.Warn(logger).Log("msg", "corrupt checkpoint weights, starting fresh", "err", err)
		e.policy.Reset()
		return 0
	}
	level.Info(logger).Log("msg", "restored checkpoint", "iteration", c.Iteration)
	return c.Iteration
}

func (e *Experiment) checkpoint(ctx context.Context, rc *RunConfig, iteration int, logger log.Logger) bool {
	p, ok := e.policy.(Persistent)
	if rc.Store == nil || !ok {
		return false
	}
	weights, err := p.SerializeWeights()
	if err != nil {
		level.Warn(logger).Log("msg", "could not serialize weights", "err", err)
		return false
	}
	if err := rc.Store.Save(ctx, &storage.Checkpoint{Weights: weights, Iteration: iteration}); err != nil {
		level.Warn(logger).Log("msg", "could not save checkpoint", "iteration", iteration, "err", err)
		return false
	}
	level.Info(logger).Log("msg", "checkpoint saved", "iteration", iteration)
	return true
}

// runEpisode plays ticks until the drone crashes, the horizon is reached
// or the context is cancelled. Panics raised by the policy end the
// episode with an error.
func (e *Experiment) runEpisode(eCtx *EpisodeContext, rc *RunConfig) {
	start := time.Now()
	defer func() {
		eCtx.Duration = time.Since(start)
		if r := recover(); r != nil {
			eCtx.SetError(errors.Errorf("episode %d: %v", eCtx.Episode, r))
		}
	}()

	obs := e.environment.Reset()
	for tick := 0; rc.Loop.Horizon <= 0 || tick < rc.Loop.Horizon; tick++ {
		if eCtx.Context.Err() != nil {
			eCtx.Interrupted = true
			return
		}

		action := e.policy.NextAction(obs, eCtx.Epsilon)
		res := e.environment.Step(action)
		e.memory.Add(Transition{State: obs.Features, Action: action, Reward: res.Reward})
		eCtx.Trace.Append(obs.State, action, res.State, res.Reward)

		snapshot := Snapshot{
			Experiment: e.Name,
			Episode:    eCtx.Episode,
			Tick:       tick,
			Drone:      res.State,
			Obstacle:   res.Obstacle,
			Action:     action.Hash(),
			Reward:     res.Reward,
			Epsilon:    eCtx.Epsilon,
			Crashed:    res.Crashed,
		}
		for _, o := range rc.Observers {
			o.OnTick(snapshot)
		}

		if res.Crashed {
			eCtx.Crashed = true
			return
		}
		obs = e.environment.Observe()

		if rc.Loop.TickDelay > 0 {
			select {
			case <-eCtx.Context.Done():
				eCtx.Interrupted = true
				return
			case <-time.After(rc.Loop.TickDelay):
			}
		}
	}
	eCtx.HorizonEnd = true
}

func (e *Experiment) recordEpisode(rc *RunConfig, eCtx *EpisodeContext, logger log.Logger) {
	tracesFile := path.Join(rc.RecordPath, "traces", e.Name+"_"+strconv.Itoa(rc.CurrentRun)+".jsonl")
	record := struct {
		EpisodeResult
		Trace *Trace `json:"trace"`
	}{
		EpisodeResult: eCtx.Result(e.band),
		Trace:         eCtx.Trace,
	}
	if err := util.AppendJSONLine(tracesFile, record); err != nil {
		level.Warn(logger).Log("msg", "could not record episode", "err", err)
	}
}

func (e *Experiment) printStatus(rc *RunConfig, s *RunSummary, eps float64) {
	status := fmt.Sprintf("Exp:%s, Eps:%d, Crashed:%d, Horizon:%d, Faults:%d, Ticks:%d, Memory:%d/%d, Epsilon:%.4f",
		e.Name, s.Episodes, s.Crashes, s.HorizonEnds, s.TrainFaults, s.TotalTicks, e.memory.Len(), e.memory.Capacity(), eps)
	if rc.Output != nil {
		rc.Output.Set(status)
		return
	}
	fmt.Printf("\r%s", status)
}

// Reset forgets the learnt policy and empties the memory
func (e *Experiment) Reset() {
	e.policy.Reset()
	e.memory.Clear()
}
