package benchmarks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/carwyn987/Drone-Avoidance/config"
	"github.com/carwyn987/Drone-Avoidance/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ShowCheckpoint prints the iteration and the size of the stored weights
func ShowCheckpoint(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := cfg.Storage.Open()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("checkpoints are disabled, set storage.backend")
	}
	defer store.Close()

	c, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(out, "No checkpoint in %s storage\n", cfg.Storage.Backend)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Backend: %s, Iteration: %d, Weights: %d bytes\n", cfg.Storage.Backend, c.Iteration, len(c.Weights))
	return nil
}

func CheckpointCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint",
		Short: "Show the stored checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ShowCheckpoint(ctx, cfg, cmd.OutOrStdout())
		},
	}
}

func ConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bs, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bs)
			return err
		},
	}
}
