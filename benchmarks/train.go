package benchmarks

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/carwyn987/Drone-Avoidance/config"
	"github.com/carwyn987/Drone-Avoidance/server"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/carwyn987/Drone-Avoidance/util"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var policyName string

// Train runs the training loop of a single policy. The monitoring server,
// when enabled, lives as long as the loop.
func Train(ctx context.Context, cfg *config.Config, name string, logger log.Logger) (*types.RunSummary, error) {
	experiment, err := newExperiment(name, cfg, 0, logger)
	if err != nil {
		return nil, err
	}
	store, err := cfg.Storage.Open()
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer store.Close()
	}

	if err := util.EnsureDir(cfg.RecordPath); err != nil {
		return nil, err
	}
	if err := cfg.Write(path.Join(cfg.RecordPath, "config.yaml")); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	var observers []types.Observer
	if cfg.Server.Enabled {
		srv := server.New(cfg.Server.Addr, logger)
		observers = append(observers, srv)
		g.Go(func() error {
			return srv.Run(gCtx)
		})
	}

	output := types.NewParallelOutput()
	printer := types.NewTerminalPrinter(os.Stdout, []*types.ParallelOutput{output}, 200*time.Millisecond)
	printer.Start(gCtx)

	var summary *types.RunSummary
	g.Go(func() error {
		// the server stops with the loop
		defer cancel()
		s, err := experiment.Run(&types.RunConfig{
			Context:      gCtx,
			Loop:         cfg.Loop,
			Observers:    observers,
			Store:        store,
			Logger:       logger,
			Output:       output,
			RecordTraces: cfg.RecordTraces,
			RecordPath:   cfg.RecordPath,
		})
		summary = s
		return err
	})
	err = g.Wait()
	printer.Stop()
	if summary != nil {
		level.Info(logger).Log(
			"msg", "training finished",
			"episodes", summary.Episodes,
			"crashes", summary.Crashes,
			"horizon_ends", summary.HorizonEnds,
			"train_faults", summary.TrainFaults,
			"checkpoints", summary.Checkpoints,
			"resumed_from", summary.ResumedFrom,
			"interrupted", summary.Interrupted,
		)
	}
	return summary, err
}

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a policy, resuming from the configured checkpoint store",
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

			summary, err := Train(ctx, cfg, policyName, newLogger())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Episodes: %d, Crashes: %d, Last episode: %d, Epsilon: %.4f\n",
				summary.Episodes, summary.Crashes, summary.LastEpisode, summary.Epsilon)
			return nil
		},
	}
	cmd.Flags().StringVarP(&policyName, "policy", "p", "dqn", "Policy to train: dqn, tabular, lookahead or random")
	return cmd
}
