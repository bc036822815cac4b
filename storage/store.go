// Package storage persists agent checkpoints: an opaque weight blob and
// the number of episodes it was trained for.
package storage

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Load when nothing was saved yet
var ErrNotFound = errors.New("checkpoint not found")

type Checkpoint struct {
	Weights   []byte
	Iteration int
}

// Store is the persistence collaborator of the training loop
type Store interface {
	Save(context.Context, *Checkpoint) error
	Load(context.Context) (*Checkpoint, error)
	Close() error
}

// MemStore keeps the last checkpoint in process memory
type MemStore struct {
	last *Checkpoint
	// Saves counts the successful Save calls
	Saves int
}

var _ Store = &MemStore{}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Save(_ context.Context, c *Checkpoint) error {
	m.last = clone(c)
	m.Saves++
	return nil
}

func (m *MemStore) Load(_ context.Context) (*Checkpoint, error) {
	if m.last == nil {
		return nil, ErrNotFound
	}
	return clone(m.last), nil
}

func (m *MemStore) Close() error {
	return nil
}

func clone(c *Checkpoint) *Checkpoint {
	w := make([]byte, len(c.Weights))
	copy(w, c.Weights)
	return &Checkpoint{Weights: w, Iteration: c.Iteration}
}
