package types

import (
	"sync"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ErrInvalidCapacity is returned when a replay memory is created with a non positive capacity
var ErrInvalidCapacity = errors.New("replay memory capacity must be positive")

// Transition is one (state, action, reward) tuple.
// The next state is implicitly the following transition.
type Transition struct {
	State  drone.FeatureVector `json:"state"`
	Action drone.Action        `json:"action"`
	Reward float64             `json:"reward"`
}

// Experience is a sampled transition paired with its chronological successor
// within the same episode. Next is nil when Terminal is true.
type Experience struct {
	Transition
	Next     drone.FeatureVector
	Terminal bool
}

// ReplayMemory is a fixed capacity ring buffer of transitions.
// Appends overwrite the oldest entry once full. Safe for concurrent use.
type ReplayMemory struct {
	mu       sync.RWMutex
	entries  []Transition
	capacity int
	cursor   int // next write position
	size     int
	total    int
}

func NewReplayMemory(capacity int) (*ReplayMemory, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d", capacity)
	}
	return &ReplayMemory{
		entries:  make([]Transition, capacity),
		capacity: capacity,
	}, nil
}

// Add appends a transition in O(1)
func (m *ReplayMemory) Add(t Transition) {
	t.State = copyFeatures(t.State)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.cursor] = t
	m.cursor = (m.cursor + 1) % m.capacity
	if m.size < m.capacity {
		m.size++
	}
	m.total++
}

// Clear drops every stored transition, the capacity is kept
func (m *ReplayMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make([]Transition, m.capacity)
	m.cursor = 0
	m.size = 0
	m.total = 0
}

// Len is the number of transitions currently stored
func (m *ReplayMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *ReplayMemory) Capacity() int {
	return m.capacity
}

// Total is the number of transitions ever added
func (m *ReplayMemory) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// Get returns the i-th stored transition in insertion order, 0 being the oldest
func (m *ReplayMemory) Get(i int) (Transition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= m.size {
		return Transition{}, false
	}
	return m.at(i), true
}

// Contents returns a copy of the stored transitions, oldest first
func (m *ReplayMemory) Contents() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transition, m.size)
	for i := 0; i < m.size; i++ {
		out[i] = m.at(i)
	}
	return out
}

// Recent returns the last n transitions, oldest first
func (m *ReplayMemory) Recent(n int) []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > m.size {
		n = m.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]Transition, n)
	for i := 0; i < n; i++ {
		out[i] = m.at(m.size - n + i)
	}
	return out
}

// SampleBatch draws up to n transitions uniformly without replacement.
// When fewer than n are stored all of them are returned in random order.
func (m *ReplayMemory) SampleBatch(n int, src rand.Source) []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idxs := m.sample(n, m.size, src)
	out := make([]Transition, len(idxs))
	for i, idx := range idxs {
		out[i] = m.at(idx)
	}
	return out
}

// SampleEpisode draws up to n transitions among the last episodeLength
// stored ones and pairs each with its successor. The most recent
// transition of the window has no successor and is marked terminal.
func (m *ReplayMemory) SampleEpisode(n, episodeLength int, src rand.Source) []Experience {
	m.mu.RLock()
	defer m.mu.RUnlock()

	window := episodeLength
	if window > m.size {
		window = m.size
	}
	offset := m.size - window

	idxs := m.sample(n, window, src)
	out := make([]Experience, len(idxs))
	for i, idx := range idxs {
		e := Experience{Transition: m.at(offset + idx)}
		if idx == window-1 {
			e.Terminal = true
		} else {
			e.Next = m.at(offset + idx + 1).State
		}
		out[i] = e
	}
	return out
}

// sample picks min(n, population) distinct indices in [0, population)
func (m *ReplayMemory) sample(n, population int, src rand.Source) []int {
	if n <= 0 || population <= 0 {
		return nil
	}
	if n > population {
		n = population
	}
	idxs := make([]int, n)
	sampleuv.WithoutReplacement(idxs, population, src)
	return idxs
}

// at returns a copy of the i-th oldest entry, callers hold the lock
func (m *ReplayMemory) at(i int) Transition {
	start := (m.cursor - m.size + m.capacity) % m.capacity
	t := m.entries[(start+i)%m.capacity]
	t.State = copyFeatures(t.State)
	return t
}

func copyFeatures(fv drone.FeatureVector) drone.FeatureVector {
	if fv == nil {
		return nil
	}
	out := make(drone.FeatureVector, len(fv))
	copy(out, fv)
	return out
}
