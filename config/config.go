// Package config aggregates the named constants of every component.
// Values come from Default, then an optional YAML file, then DRONE_*
// environment variables.
package config

import (
	"bytes"
	"strings"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/policies"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/carwyn987/Drone-Avoidance/util"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DRONE"

type MemoryConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// CompareConfig selects the policies raced by the compare command
type CompareConfig struct {
	Runs           int      `mapstructure:"runs" yaml:"runs"`
	Policies       []string `mapstructure:"policies" yaml:"policies"`
	LookaheadTicks int      `mapstructure:"lookahead_ticks" yaml:"lookahead_ticks"`
	TabularBins    int      `mapstructure:"tabular_bins" yaml:"tabular_bins"`
	TabularAlpha   float64  `mapstructure:"tabular_alpha" yaml:"tabular_alpha"`
	SmoothWindow   int      `mapstructure:"smooth_window" yaml:"smooth_window"`
}

type Config struct {
	Drone    drone.Config         `mapstructure:"drone" yaml:"drone"`
	Reward   drone.RewardConfig   `mapstructure:"reward" yaml:"reward"`
	Obstacle drone.ObstacleConfig `mapstructure:"obstacle" yaml:"obstacle"`
	Features drone.FeatureScale   `mapstructure:"features" yaml:"features"`
	Memory   MemoryConfig         `mapstructure:"memory" yaml:"memory"`
	Agent    policies.AgentConfig `mapstructure:"agent" yaml:"agent"`
	Loop     types.LoopConfig     `mapstructure:"loop" yaml:"loop"`
	Storage  StorageConfig        `mapstructure:"storage" yaml:"storage"`
	Server   ServerConfig         `mapstructure:"server" yaml:"server"`
	Compare  CompareConfig        `mapstructure:"compare" yaml:"compare"`

	// Seed drives the obstacle spawns
	Seed         uint64 `mapstructure:"seed" yaml:"seed"`
	RecordPath   string `mapstructure:"record_path" yaml:"record_path"`
	RecordTraces bool   `mapstructure:"record_traces" yaml:"record_traces"`
}

func Default() *Config {
	return &Config{
		Drone:    drone.DefaultConfig(),
		Reward:   drone.DefaultRewardConfig(),
		Obstacle: drone.DefaultObstacleConfig(),
		Features: drone.DefaultFeatureScale(),
		Memory:   MemoryConfig{Capacity: 500},
		Agent:    policies.DefaultAgentConfig(),
		Loop:     types.DefaultLoopConfig(),
		Storage: StorageConfig{
			Backend: BackendNone,
			AppName: "drone-avoidance",
			Item:    "model",
			Addr:    "127.0.0.1:6379",
			Key:     "drone",
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    ":8080",
		},
		Compare: CompareConfig{
			Runs:           1,
			Policies:       []string{"dqn", "tabular", "lookahead", "random"},
			LookaheadTicks: 10,
			TabularBins:    10,
			TabularAlpha:   0.3,
			SmoothWindow:   10,
		},
		Seed:       1,
		RecordPath: "results",
	}
}

// Load reads the YAML file at path (optional) and the environment on top of the defaults
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigType("yaml")

	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, errors.Wrap(err, "encoding defaults")
	}
	if err := vp.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, errors.Wrap(err, "reading defaults")
	}
	if path != "" {
		vp.SetConfigFile(path)
		if err := vp.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	cfg := &Config{}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	d := c.Drone
	if d.Gravity <= 0 {
		return errors.Errorf("gravity %v must be positive", d.Gravity)
	}
	if d.AccUp <= 0 || d.AccDown <= 0 {
		return errors.New("thrust accelerations must be positive")
	}
	if d.CanvasHeight <= d.Height || d.CanvasWidth <= d.Width {
		return errors.New("drone does not fit the canvas")
	}
	if _, err := c.Reward.Build(); err != nil {
		return err
	}
	if c.Features.VelocityRange <= 0 || c.Features.ObstacleVelocityRange <= 0 {
		return errors.New("feature scales must be positive")
	}
	if c.Memory.Capacity <= 0 {
		return errors.Wrapf(types.ErrInvalidCapacity, "memory capacity %d", c.Memory.Capacity)
	}
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	l := c.Loop
	if l.Episodes < 0 || l.Horizon < 0 || l.CheckpointEvery < 0 {
		return errors.New("episodes, horizon and checkpoint interval cannot be negative")
	}
	if l.EpsilonStart < 0 || l.EpsilonStart > 1 || l.EpsilonMin < 0 || l.EpsilonMin > 1 {
		return errors.Errorf("exploration rates must lie in [0, 1]")
	}
	if l.EpsilonDecay <= 0 || l.EpsilonDecay > 1 {
		return errors.Errorf("epsilon decay %v outside (0, 1]", l.EpsilonDecay)
	}
	return c.Storage.Validate()
}

// NumFeatures is the width of the feature vectors of the configured environment
func (c *Config) NumFeatures() int {
	if c.Obstacle.Enabled {
		return 6
	}
	return 2
}

// Environment builds a fresh environment. seedOffset separates the
// obstacle spawns of environments built from the same config.
func (c *Config) Environment(seedOffset uint64) (*drone.Environment, error) {
	reward, err := c.Reward.Build()
	if err != nil {
		return nil, err
	}
	var spawner *drone.ObstacleSpawner
	if c.Obstacle.Enabled {
		spawner = drone.NewObstacleSpawner(c.Obstacle, c.Drone.CanvasHeight, c.Seed+seedOffset)
	}
	return drone.NewEnvironment(c.Drone, reward, c.Features, spawner), nil
}

func (c *Config) Marshal() ([]byte, error) {
	bs, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return bs, nil
}

// Write stores the resolved config as YAML
func (c *Config) Write(path string) error {
	bs, err := c.Marshal()
	if err != nil {
		return err
	}
	return util.WriteToFile(path, bs)
}
