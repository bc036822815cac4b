package policies

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Approximator maps a feature vector to one value estimate per action
type Approximator interface {
	Evaluate(drone.FeatureVector) []float64
	// TrainStep performs one gradient step toward the targets and returns the loss
	TrainStep(inputs, targets [][]float64) float64
	SerializeWeights() ([]byte, error)
	LoadWeights([]byte) error
	// Reset reinitializes the weights
	Reset()
}

// QNetwork is a fully connected network with one ReLU hidden layer
// trained by plain SGD on the mean squared error
type QNetwork struct {
	mu sync.Mutex

	inputs, hidden, outputs int
	learningRate            float64

	w1, w2 *mat.Dense
	b1, b2 *mat.VecDense

	rand *rand.Rand
}

var _ Approximator = &QNetwork{}

func NewQNetwork(inputs, hidden, outputs int, learningRate float64, seed uint64) *QNetwork {
	q := &QNetwork{
		inputs:       inputs,
		hidden:       hidden,
		outputs:      outputs,
		learningRate: learningRate,
		rand:         rand.New(rand.NewSource(seed)),
	}
	q.Reset()
	return q
}

func (q *QNetwork) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.w1 = mat.NewDense(q.inputs, q.hidden, q.randomWeights(q.inputs*q.hidden))
	q.w2 = mat.NewDense(q.hidden, q.outputs, q.randomWeights(q.hidden*q.outputs))
	q.b1 = mat.NewVecDense(q.hidden, nil)
	q.b2 = mat.NewVecDense(q.outputs, nil)
}

func (q *QNetwork) randomWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = q.rand.Float64() - 0.5
	}
	return w
}

func (q *QNetwork) Evaluate(fv drone.FeatureVector) []float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	x := mat.NewDense(1, q.inputs, copyRow(fv))
	_, _, out := q.forward(x)
	return out.RawRowView(0)
}

// forward returns the hidden pre-activations, the hidden activations and the outputs
func (q *QNetwork) forward(x *mat.Dense) (*mat.Dense, *mat.Dense, *mat.Dense) {
	rows, _ := x.Dims()

	z1 := mat.NewDense(rows, q.hidden, nil)
	z1.Mul(x, q.w1)
	addBias(z1, q.b1)

	h := mat.NewDense(rows, q.hidden, nil)
	h.Apply(func(_, _ int, v float64) float64 {
		return relu(v)
	}, z1)

	out := mat.NewDense(rows, q.outputs, nil)
	out.Mul(h, q.w2)
	addBias(out, q.b2)
	return z1, h, out
}

func (q *QNetwork) TrainStep(inputs, targets [][]float64) float64 {
	if len(inputs) == 0 || len(inputs) != len(targets) {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(inputs)
	x := mat.NewDense(n, q.inputs, nil)
	y := mat.NewDense(n, q.outputs, nil)
	for i := range inputs {
		x.SetRow(i, inputs[i])
		y.SetRow(i, targets[i])
	}

	z1, h, out := q.forward(x)

	// dL/dout for L = 1/(2n) * sum (out - y)^2
	diff := mat.NewDense(n, q.outputs, nil)
	diff.Sub(out, y)
	loss := 0.5 * mat.Sum(squared(diff)) / float64(n)
	diff.Scale(1/float64(n), diff)

	dw2 := mat.NewDense(q.hidden, q.outputs, nil)
	dw2.Mul(h.T(), diff)
	db2 := columnSums(diff)

	dh := mat.NewDense(n, q.hidden, nil)
	dh.Mul(diff, q.w2.T())
	dh.Apply(func(i, j int, v float64) float64 {
		if z1.At(i, j) <= 0 {
			return 0
		}
		return v
	}, dh)

	dw1 := mat.NewDense(q.inputs, q.hidden, nil)
	dw1.Mul(x.T(), dh)
	db1 := columnSums(dh)

	q.w2.Apply(func(i, j int, v float64) float64 { return v - q.learningRate*dw2.At(i, j) }, q.w2)
	q.w1.Apply(func(i, j int, v float64) float64 { return v - q.learningRate*dw1.At(i, j) }, q.w1)
	q.b2.AddScaledVec(q.b2, -q.learningRate, db2)
	q.b1.AddScaledVec(q.b1, -q.learningRate, db1)
	return loss
}

type networkWeights struct {
	Inputs  int       `json:"inputs"`
	Hidden  int       `json:"hidden"`
	Outputs int       `json:"outputs"`
	W1      []float64 `json:"w1"`
	B1      []float64 `json:"b1"`
	W2      []float64 `json:"w2"`
	B2      []float64 `json:"b2"`
}

func (q *QNetwork) SerializeWeights() ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return json.Marshal(networkWeights{
		Inputs:  q.inputs,
		Hidden:  q.hidden,
		Outputs: q.outputs,
		W1:      q.w1.RawMatrix().Data,
		B1:      q.b1.RawVector().Data,
		W2:      q.w2.RawMatrix().Data,
		B2:      q.b2.RawVector().Data,
	})
}

// LoadWeights replaces the weights. On error the current weights are kept.
func (q *QNetwork) LoadWeights(blob []byte) error {
	var w networkWeights
	if err := json.Unmarshal(blob, &w); err != nil {
		return errors.Wrap(err, "decoding network weights")
	}
	if w.Inputs != q.inputs || w.Hidden != q.hidden || w.Outputs != q.outputs {
		return errors.Errorf("network shape %dx%dx%d does not match %dx%dx%d",
			w.Inputs, w.Hidden, w.Outputs, q.inputs, q.hidden, q.outputs)
	}
	if len(w.W1) != q.inputs*q.hidden || len(w.W2) != q.hidden*q.outputs ||
		len(w.B1) != q.hidden || len(w.B2) != q.outputs {
		return errors.New("network weights have the wrong length")
	}
	for _, layer := range [][]float64{w.W1, w.B1, w.W2, w.B2} {
		if !finite(layer) {
			return errors.New("network weights are not finite")
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.w1 = mat.NewDense(q.inputs, q.hidden, w.W1)
	q.b1 = mat.NewVecDense(q.hidden, w.B1)
	q.w2 = mat.NewDense(q.hidden, q.outputs, w.W2)
	q.b2 = mat.NewVecDense(q.outputs, w.B2)
	return nil
}

func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func addBias(m *mat.Dense, b *mat.VecDense) {
	m.Apply(func(_, j int, v float64) float64 {
		return v + b.AtVec(j)
	}, m)
}

func squared(m *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(m)
	out.MulElem(out, out)
	return out
}

func columnSums(m *mat.Dense) *mat.VecDense {
	_, cols := m.Dims()
	out := mat.NewVecDense(cols, nil)
	for j := 0; j < cols; j++ {
		out.SetVec(j, floats.Sum(mat.Col(nil, j, m)))
	}
	return out
}

func copyRow(fv drone.FeatureVector) []float64 {
	out := make([]float64, len(fv))
	copy(out, fv)
	return out
}

// finite reports whether no value is NaN or infinite
func finite(values []float64) bool {
	if floats.HasNaN(values) {
		return false
	}
	for _, v := range values {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
