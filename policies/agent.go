package policies

import (
	"math"
	"sync"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// ErrTrainingFault is returned when a training step produces a non finite loss
var ErrTrainingFault = errors.New("training fault")

// AgentConfig is fixed at construction
type AgentConfig struct {
	Hidden       int     `mapstructure:"hidden" yaml:"hidden" json:"hidden"`
	BatchSize    int     `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`
	Epochs       int     `mapstructure:"epochs" yaml:"epochs" json:"epochs"`
	Discount     float64 `mapstructure:"discount" yaml:"discount" json:"discount"`
	LearningRate float64 `mapstructure:"learning_rate" yaml:"learning_rate" json:"learning_rate"`
	Seed         uint64  `mapstructure:"seed" yaml:"seed" json:"seed"`
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Hidden:       10,
		BatchSize:    100,
		Epochs:       1,
		Discount:     0.9,
		LearningRate: 0.01,
		Seed:         1,
	}
}

func (c AgentConfig) Validate() error {
	if c.Discount <= 0 || c.Discount >= 1 {
		return errors.Errorf("discount %v outside (0, 1)", c.Discount)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch size %d must be positive", c.BatchSize)
	}
	if c.Hidden <= 0 {
		return errors.Errorf("hidden width %d must be positive", c.Hidden)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning rate %v must be positive", c.LearningRate)
	}
	return nil
}

// Agent is the online Q-learning agent. It owns its approximator and
// serializes inference and training.
type Agent struct {
	mu           sync.Mutex
	config       AgentConfig
	approximator Approximator
	rand         *rand.Rand
	logger       log.Logger

	faults   int
	lastLoss float64
}

var _ types.Policy = &Agent{}
var _ types.Persistent = &Agent{}

// NewAgent creates an agent backed by a QNetwork
func NewAgent(numFeatures int, config AgentConfig, logger log.Logger) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	network := NewQNetwork(numFeatures, config.Hidden, drone.NumActions, config.LearningRate, config.Seed)
	return NewAgentWithApproximator(network, config, logger), nil
}

func NewAgentWithApproximator(approximator Approximator, config AgentConfig, logger log.Logger) *Agent {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if config.Epochs <= 0 {
		config.Epochs = 1
	}
	return &Agent{
		config:       config,
		approximator: approximator,
		rand:         rand.New(rand.NewSource(config.Seed + 1)),
		logger:       logger,
	}
}

// ChooseAction explores with probability epsilon, otherwise it returns the
// action with the highest value, ties going to the lowest index. A non
// finite evaluation is counted as a fault and answered with a random action.
func (a *Agent) ChooseAction(fv drone.FeatureVector, epsilon float64) drone.Action {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rand.Float64() < epsilon {
		return a.randomAction()
	}
	values := a.approximator.Evaluate(fv)
	if len(values) != drone.NumActions || !finite(values) {
		a.faults++
		level.Warn(a.logger).Log("msg", "non finite evaluation, acting randomly", "values", values)
		return a.randomAction()
	}
	return drone.Action(floats.MaxIdx(values))
}

func (a *Agent) randomAction() drone.Action {
	return drone.AllActions[a.rand.Intn(drone.NumActions)]
}

// Train updates the approximator on the transitions of the last episode.
// The memory is only read. An empty window skips training.
func (a *Agent) Train(memory *types.ReplayMemory, episodeLength int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for epoch := 0; epoch < a.config.Epochs; epoch++ {
		batch := memory.SampleEpisode(a.config.BatchSize, episodeLength, a.rand)
		if len(batch) == 0 {
			return nil
		}
		inputs, targets := a.targets(batch)
		loss := a.approximator.TrainStep(inputs, targets)
		a.lastLoss = loss
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			a.faults++
			return errors.Wrapf(ErrTrainingFault, "loss %v on a batch of %d", loss, len(batch))
		}
	}
	return nil
}

// targets keeps the current prediction for the actions not taken so that
// only the taken action contributes to the gradient
func (a *Agent) targets(batch []types.Experience) ([][]float64, [][]float64) {
	inputs := make([][]float64, len(batch))
	targets := make([][]float64, len(batch))
	for i, e := range batch {
		inputs[i] = e.State
		target := a.approximator.Evaluate(e.State)
		value := e.Reward
		if !e.Terminal {
			value += a.config.Discount * floats.Max(a.approximator.Evaluate(e.Next))
		}
		target[e.Action] = value
		targets[i] = target
	}
	return inputs, targets
}

// Faults is the number of non finite evaluations and losses seen so far
func (a *Agent) Faults() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.faults
}

func (a *Agent) LastLoss() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastLoss
}

func (a *Agent) NextAction(obs drone.Observation, epsilon float64) drone.Action {
	return a.ChooseAction(obs.Features, epsilon)
}

func (a *Agent) UpdateIteration(_ int, memory *types.ReplayMemory, episodeLength int) error {
	return a.Train(memory, episodeLength)
}

func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.approximator.Reset()
	a.faults = 0
	a.lastLoss = 0
}

func (a *Agent) SerializeWeights() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.approximator.SerializeWeights()
}

func (a *Agent) LoadWeights(blob []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.approximator.LoadWeights(blob)
}
