package benchmarks

import (
	"context"
	"os"
	"os/signal"

	"github.com/carwyn987/Drone-Avoidance/config"
	"github.com/carwyn987/Drone-Avoidance/util"
	"github.com/go-kit/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	episodes   int
	horizon    int
	saveFile   string
	runs       int
	debug      bool
	cpuprofile string
	memprofile string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "drone",
		Short:         "Train and compare policies that keep a 2D drone inside a target band",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file, DRONE_* environment variables override it")
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 1000, "Number of episodes to run, 0 runs until interrupted")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 5000, "Horizon of each episode, 0 runs until crash")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of comparison runs")
	rootCommand.PersistentFlags().BoolVar(&debug, "debug", false, "Log debug lines")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file of the save folder")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a heap profile to this file of the save folder")
	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(CompareCommand())
	rootCommand.AddCommand(CheckpointCommand())
	rootCommand.AddCommand(ConfigCommand())
	rootCommand.AddCommand(RedisInfoCommand())
	return rootCommand
}

// loadConfig resolves the config file and lets explicitly set flags win
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("episodes") {
		cfg.Loop.Episodes = episodes
	}
	if flags.Changed("horizon") {
		cfg.Loop.Horizon = horizon
	}
	if flags.Changed("save") {
		cfg.RecordPath = saveFile
	}
	if flags.Changed("runs") {
		cfg.Compare.Runs = runs
	}
	return cfg, cfg.Validate()
}

func newLogger() log.Logger {
	return util.NewLogger(os.Stderr, debug)
}

// interruptContext is cancelled on SIGINT or when the returned func is called
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
