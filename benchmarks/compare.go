package benchmarks

import (
	"context"
	"path"

	"github.com/carwyn987/Drone-Avoidance/config"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/carwyn987/Drone-Avoidance/util"
	"github.com/go-kit/log"
	"github.com/spf13/cobra"
)

var clean bool

// Compare trains every configured policy from scratch and plots episode
// length, total reward and band occupancy side by side.
func Compare(ctx context.Context, cfg *config.Config, logger log.Logger) (map[string][]types.DataSet, error) {
	if err := util.EnsureDir(cfg.RecordPath); err != nil {
		return nil, err
	}
	if clean {
		if err := types.RemoveContents(cfg.RecordPath); err != nil {
			return nil, err
		}
	}

	c := types.NewComparison(&types.ComparisonConfig{
		Runs:         cfg.Compare.Runs,
		Loop:         cfg.Loop,
		RecordPath:   cfg.RecordPath,
		RecordTraces: cfg.RecordTraces,
		Logger:       logger,
	})
	plotPath := path.Join(cfg.RecordPath, "plots")
	window := cfg.Compare.SmoothWindow
	c.AddAnalysis("episode_length", types.EpisodeLengthAnalyzer(), types.ChainComparators(
		types.SeriesPlotter(plotPath, "episode_length", "Ticks survived", window),
		types.JSONDumper(cfg.RecordPath, "episode_length"),
	))
	c.AddAnalysis("total_reward", types.TotalRewardAnalyzer(), types.ChainComparators(
		types.SeriesPlotter(plotPath, "total_reward", "Total reward", window),
		types.JSONDumper(cfg.RecordPath, "total_reward"),
	))
	c.AddAnalysis("in_band", types.BandOccupancyAnalyzer(cfg.Reward.Band()), types.ChainComparators(
		types.SeriesPlotter(plotPath, "in_band", "Share of ticks inside the band", window),
		types.JSONDumper(cfg.RecordPath, "in_band"),
	))

	for i, name := range cfg.Compare.Policies {
		e, err := newExperiment(name, cfg, uint64(i), logger)
		if err != nil {
			return nil, err
		}
		c.AddExperiment(e)
	}
	if err := cfg.Write(path.Join(cfg.RecordPath, "config.yaml")); err != nil {
		return nil, err
	}
	return c.Run(ctx)
}

func CompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the configured policies on the same environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, done := interruptContext()
			defer done()

			stopProfiling, err := startProfiling(cfg.RecordPath)
			if err != nil {
				return err
			}
			defer stopProfiling()

			_, err = Compare(ctx, cfg, newLogger())
			return err
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove the previous contents of the save folder")
	return cmd
}
