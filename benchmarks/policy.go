package benchmarks

import (
	"github.com/carwyn987/Drone-Avoidance/config"
	"github.com/carwyn987/Drone-Avoidance/policies"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/go-kit/log"
	"github.com/pkg/errors"
)

// newPolicy builds the named policy for an environment with numFeatures features
func newPolicy(name string, cfg *config.Config, numFeatures int, logger log.Logger) (types.Policy, error) {
	switch name {
	case "dqn":
		agent, err := policies.NewAgent(numFeatures, cfg.Agent, logger)
		if err != nil {
			return nil, err
		}
		return agent, nil
	case "tabular":
		return policies.NewTabularPolicy(cfg.Compare.TabularAlpha, cfg.Agent.Discount, cfg.Compare.TabularBins, cfg.Agent.Seed), nil
	case "lookahead":
		return policies.NewLookaheadPolicy(cfg.Drone, cfg.Reward.Band(), cfg.Compare.LookaheadTicks), nil
	case "random":
		return policies.NewRandomPolicy(cfg.Agent.Seed), nil
	}
	return nil, errors.Errorf("unknown policy %q", name)
}

func newExperiment(name string, cfg *config.Config, seedOffset uint64, logger log.Logger) (*types.Experiment, error) {
	env, err := cfg.Environment(seedOffset)
	if err != nil {
		return nil, err
	}
	policy, err := newPolicy(name, cfg, env.NumFeatures(), logger)
	if err != nil {
		return nil, err
	}
	memory, err := types.NewReplayMemory(cfg.Memory.Capacity)
	if err != nil {
		return nil, err
	}
	return types.NewExperiment(name, policy, env, memory, cfg.Reward.Band()), nil
}
