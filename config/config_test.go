package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carwyn987/Drone-Avoidance/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500, cfg.Memory.Capacity)
	assert.Equal(t, 0.9, cfg.Agent.Discount)
	assert.Equal(t, 0.9, cfg.Loop.EpsilonStart)
	assert.Equal(t, 0.9, cfg.Loop.EpsilonDecay)
	assert.Equal(t, 50, cfg.Loop.CheckpointEvery)
	assert.Equal(t, 250.0, cfg.Reward.Top)
	assert.Equal(t, 350.0, cfg.Reward.Bottom)
	assert.Equal(t, 2, cfg.NumFeatures())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drone.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
drone:
  gravity: 0.03
obstacle:
  enabled: true
loop:
  episodes: 20
  tick_delay: 5ms
storage:
  backend: redis
  addr: redis:6379
`), 0644))
	t.Setenv("DRONE_AGENT_HIDDEN", "16")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.03, cfg.Drone.Gravity)
	assert.Equal(t, 0.05, cfg.Drone.AccUp, "unset keys keep their default")
	assert.True(t, cfg.Obstacle.Enabled)
	assert.Equal(t, 6, cfg.NumFeatures())
	assert.Equal(t, 20, cfg.Loop.Episodes)
	assert.Equal(t, 5*time.Millisecond, cfg.Loop.TickDelay)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Addr)
	assert.Equal(t, 16, cfg.Agent.Hidden)

	env, err := cfg.Environment(0)
	require.NoError(t, err)
	assert.Equal(t, 6, env.NumFeatures())
	assert.Len(t, env.Observe().Features, 6)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory:\n  capacity: 0\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"gravity":  func(c *Config) { c.Drone.Gravity = 0 },
		"canvas":   func(c *Config) { c.Drone.Height = 700 },
		"band":     func(c *Config) { c.Reward.Top, c.Reward.Bottom = 400, 100 },
		"discount": func(c *Config) { c.Agent.Discount = 1.5 },
		"epsilon":  func(c *Config) { c.Loop.EpsilonStart = 2 },
		"decay":    func(c *Config) { c.Loop.EpsilonDecay = 0 },
		"backend":  func(c *Config) { c.Storage.Backend = "s3" },
		"bonus":    func(c *Config) { c.Reward.Shape, c.Reward.Bonus, c.Reward.Penalty = "fixed", -5, 1 },
		"scale":    func(c *Config) { c.Reward.Scale = 0 },
		"redis":    func(c *Config) { c.Storage.Backend, c.Storage.Addr = BackendRedis, "" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Loop.Episodes = 7
	cfg.Compare.Policies = []string{"dqn", "random"}
	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestStorageOpen(t *testing.T) {
	s, err := StorageConfig{Backend: BackendNone}.Open()
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = StorageConfig{Backend: BackendMemory}.Open()
	require.NoError(t, err)
	assert.IsType(t, &storage.MemStore{}, s)

	s, err = StorageConfig{Backend: BackendRedis, Addr: "127.0.0.1:6379", Key: "drone"}.Open()
	require.NoError(t, err)
	assert.IsType(t, &storage.RedisStore{}, s)
	assert.NoError(t, s.Close())
}
