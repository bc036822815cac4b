package types

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/carwyn987/Drone-Avoidance/util"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs int        `yaml:"runs"`
	Loop LoopConfig `yaml:"loop"`

	RecordPath   string `yaml:"record_path"`
	RecordTraces bool   `yaml:"record_traces"`

	Logger log.Logger `yaml:"-"`
}

// Comparison contains the different experiments to compare
// The traces obtained from the experiments are analyzed
// The analyzed datasets are then compared
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) *Comparison {
	if config.Logger == nil {
		config.Logger = log.NewNopLogger()
	}
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() error {
	out := struct {
		ComparisonConfig `yaml:",inline"`
		Experiments      []string `yaml:"experiments"`
		Analyzers        []string `yaml:"analyzers"`
	}{ComparisonConfig: *c.cConfig}
	for _, e := range c.Experiments {
		out.Experiments = append(out.Experiments, e.Name)
	}
	for name := range c.analyzers {
		out.Analyzers = append(out.Analyzers, name)
	}
	bs, err := yaml.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "marshalling comparison config")
	}
	return util.WriteToFile(path.Join(c.cConfig.RecordPath, "comparison_config.yaml"), bs)
}

// Run the comparison. Each run trains every experiment from scratch.
// Returns the datasets of the last completed run keyed by analyzer name.
func (c *Comparison) Run(ctx context.Context) (map[string][]DataSet, error) {
	if err := util.EnsureDir(c.cConfig.RecordPath); err != nil {
		return nil, err
	}
	if err := c.recordConfig(); err != nil {
		return nil, err
	}
	logger := c.cConfig.Logger

	var last map[string][]DataSet
	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Printf("Run %d\n", run+1)
		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}
		analyzers := make([]Analyzer, 0, len(c.analyzers))
		for _, a := range c.analyzers {
			analyzers = append(analyzers, a)
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			if ctx.Err() != nil {
				return last, nil
			}
			e.Reset()
			summary, err := e.Run(&RunConfig{
				Context:      ctx,
				CurrentRun:   run,
				Loop:         c.cConfig.Loop,
				Analyzers:    analyzers,
				Logger:       logger,
				RecordTraces: c.cConfig.RecordTraces,
				RecordPath:   c.cConfig.RecordPath,
			})
			if err != nil {
				return last, errors.Wrapf(err, "experiment %s", e.Name)
			}
			if summary.Interrupted {
				return last, nil
			}
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
		}
		for name, comp := range c.comparators {
			if err := comp(run, names, datasets[name]); err != nil {
				level.Warn(logger).Log("msg", "comparator failed", "analysis", name, "err", err)
			}
		}
		last = datasets
	}
	return last, nil
}

// RemoveContents deletes everything inside dir
func RemoveContents(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	names, err := d.Readdirnames(-1)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.RemoveAll(path.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
