package config

import (
	"github.com/carwyn987/Drone-Avoidance/storage"
	"github.com/pkg/errors"
)

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendGdata  = "gdata"
	BackendRedis  = "redis"
)

// StorageConfig selects where checkpoints go
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// gdata
	AppName string `mapstructure:"app_name" yaml:"app_name"`
	Item    string `mapstructure:"item" yaml:"item"`
	// redis
	Addr string `mapstructure:"addr" yaml:"addr"`
	Key  string `mapstructure:"key" yaml:"key"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case BackendNone, BackendMemory:
	case BackendGdata:
		if s.AppName == "" || s.Item == "" {
			return errors.New("gdata storage needs an app name and an item")
		}
	case BackendRedis:
		if s.Addr == "" || s.Key == "" {
			return errors.New("redis storage needs an address and a key")
		}
	default:
		return errors.Errorf("unknown storage backend %q", s.Backend)
	}
	return nil
}

// Open returns the configured store, nil when persistence is disabled
func (s StorageConfig) Open() (storage.Store, error) {
	switch s.Backend {
	case BackendGdata:
		g, err := storage.NewGdataStore(s.AppName, s.Item)
		if err != nil {
			return nil, err
		}
		return g, nil
	case BackendRedis:
		return storage.NewRedisStore(s.Addr, s.Key), nil
	case BackendMemory:
		return storage.NewMemStore(), nil
	case BackendNone:
		return nil, nil
	}
	return nil, errors.Errorf("unknown storage backend %q", s.Backend)
}
