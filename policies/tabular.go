package policies

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

var actionKeys = []string{drone.ThrustDown.Hash(), drone.ThrustUp.Hash()}

// TabularPolicy is epsilon-greedy Q-learning over a discretized feature
// space. Values are updated backwards over the last episode.
type TabularPolicy struct {
	mu       sync.Mutex
	qTable   *QTable
	alpha    float64
	discount float64
	bins     int
	rand     *rand.Rand
}

var _ types.Policy = &TabularPolicy{}
var _ types.Persistent = &TabularPolicy{}

func NewTabularPolicy(alpha, discount float64, bins int, seed uint64) *TabularPolicy {
	if bins <= 0 {
		bins = 10
	}
	return &TabularPolicy{
		qTable:   NewQTable(),
		alpha:    alpha,
		discount: discount,
		bins:     bins,
		rand:     rand.New(rand.NewSource(seed)),
	}
}

// key buckets every feature of [-0.5, 0.5] into one of the bins, values
// outside the range fall into the border buckets
func (t *TabularPolicy) key(fv drone.FeatureVector) string {
	parts := make([]string, len(fv))
	for i, v := range fv {
		b := int(math.Floor((v + 0.5) * float64(t.bins)))
		if b < 0 {
			b = 0
		}
		if b >= t.bins {
			b = t.bins - 1
		}
		parts[i] = strconv.Itoa(b)
	}
	return strings.Join(parts, "|")
}

func (t *TabularPolicy) NextAction(obs drone.Observation, epsilon float64) drone.Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rand.Float64() < epsilon {
		return drone.AllActions[t.rand.Intn(drone.NumActions)]
	}
	best, _ := t.qTable.MaxAmong(t.key(obs.Features), actionKeys, 0)
	if best == drone.ThrustUp.Hash() {
		return drone.ThrustUp
	}
	return drone.ThrustDown
}

func (t *TabularPolicy) UpdateIteration(_ int, memory *types.ReplayMemory, episodeLength int) error {
	transitions := memory.Recent(episodeLength)

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(transitions) - 1; i >= 0; i-- {
		tr := transitions[i]
		stateKey := t.key(tr.State)
		actionKey := tr.Action.Hash()

		nextVal := 0.0
		if i < len(transitions)-1 {
			_, nextVal = t.qTable.MaxAmong(t.key(transitions[i+1].State), actionKeys, 0)
		}
		curVal := t.qTable.Get(stateKey, actionKey, 0)
		t.qTable.Set(stateKey, actionKey, (1-t.alpha)*curVal+t.alpha*(tr.Reward+t.discount*nextVal))
	}
	return nil
}

func (t *TabularPolicy) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.qTable = NewQTable()
}

func (t *TabularPolicy) SerializeWeights() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.Marshal(t.qTable)
}

func (t *TabularPolicy) LoadWeights(blob []byte) error {
	q := NewQTable()
	if err := json.Unmarshal(blob, q); err != nil {
		return errors.Wrap(err, "decoding q-table")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.qTable = q
	return nil
}
