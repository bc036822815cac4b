package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/quasilyte/gdata"
)

type savedCheckpoint struct {
	Weights   []byte `json:"weights"`
	Iteration int    `json:"numIterations"`
}

// GdataStore saves checkpoints as a single item in the per-user
// application data directory
type GdataStore struct {
	manager *gdata.Manager
	item    string
}

var _ Store = &GdataStore{}

func NewGdataStore(appName, item string) (*GdataStore, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening app data")
	}
	return &GdataStore{
		manager: m,
		item:    item,
	}, nil
}

func (g *GdataStore) Save(_ context.Context, c *Checkpoint) error {
	data, err := json.Marshal(savedCheckpoint{Weights: c.Weights, Iteration: c.Iteration})
	if err != nil {
		return errors.Wrap(err, "serializing checkpoint")
	}
	if err := g.manager.SaveItem(g.item, data); err != nil {
		return errors.Wrapf(err, "saving item %s", g.item)
	}
	return nil
}

func (g *GdataStore) Load(_ context.Context) (*Checkpoint, error) {
	data, err := g.manager.LoadItem(g.item)
	if err != nil {
		return nil, errors.Wrapf(err, "loading item %s", g.item)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	var saved savedCheckpoint
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, errors.Wrapf(err, "parsing item %s", g.item)
	}
	return &Checkpoint{Weights: saved.Weights, Iteration: saved.Iteration}, nil
}

func (g *GdataStore) Close() error {
	return nil
}
