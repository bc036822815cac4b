package policies

import (
	"testing"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQNetworkShapes(t *testing.T) {
	q := NewQNetwork(6, 10, drone.NumActions, 0.01, 1)
	out := q.Evaluate(drone.FeatureVector{0, 0.1, -0.2, 0.3, -0.4, 0.5})
	assert.Len(t, out, drone.NumActions)
	assert.True(t, finite(out))
}

func TestQNetworkLossDecreases(t *testing.T) {
	q := NewQNetwork(2, 10, 2, 0.05, 7)
	inputs := [][]float64{{-0.4, 0.1}, {-0.1, -0.2}, {0.2, 0.05}, {0.45, 0.2}}
	targets := [][]float64{{1, -1}, {0.5, 0}, {-0.5, 0.2}, {-1, 1}}

	first := q.TrainStep(inputs, targets)
	last := first
	for i := 0; i < 500; i++ {
		last = q.TrainStep(inputs, targets)
	}
	assert.Less(t, last, first)
	assert.Zero(t, q.TrainStep(nil, nil))
}

func TestQNetworkWeightsRoundTrip(t *testing.T) {
	a := NewQNetwork(2, 10, 2, 0.01, 1)
	b := NewQNetwork(2, 10, 2, 0.01, 2)
	fv := drone.FeatureVector{0.2, -0.1}
	require.NotEqual(t, a.Evaluate(fv), b.Evaluate(fv))

	blob, err := a.SerializeWeights()
	require.NoError(t, err)
	require.NoError(t, b.LoadWeights(blob))
	assert.Equal(t, a.Evaluate(fv), b.Evaluate(fv))
}

func TestQNetworkRejectsCorruptWeights(t *testing.T) {
	q := NewQNetwork(2, 10, 2, 0.01, 1)
	fv := drone.FeatureVector{0.2, -0.1}
	before := q.Evaluate(fv)

	assert.Error(t, q.LoadWeights([]byte("not json")))
	assert.Error(t, q.LoadWeights([]byte(`{"inputs":6,"hidden":10,"outputs":2}`)))
	assert.Error(t, q.LoadWeights([]byte(`{"inputs":2,"hidden":10,"outputs":2,"w1":[1,2],"b1":[],"w2":[],"b2":[]}`)))

	other := NewQNetwork(6, 10, 2, 0.01, 1)
	blob, err := other.SerializeWeights()
	require.NoError(t, err)
	assert.Error(t, q.LoadWeights(blob))

	assert.Equal(t, before, q.Evaluate(fv))
}

func TestAgentWeightsRoundTrip(t *testing.T) {
	a, err := NewAgent(2, DefaultAgentConfig(), nil)
	require.NoError(t, err)
	cfg := DefaultAgentConfig()
	cfg.Seed = 99
	b, err := NewAgent(2, cfg, nil)
	require.NoError(t, err)

	blob, err := a.SerializeWeights()
	require.NoError(t, err)
	require.NoError(t, b.LoadWeights(blob))
	for _, fv := range []drone.FeatureVector{{0, 0}, {0.3, -0.3}, {-0.45, 0.1}} {
		assert.Equal(t, a.ChooseAction(fv, 0), b.ChooseAction(fv, 0))
	}
	assert.Error(t, b.LoadWeights([]byte("{")))
}
