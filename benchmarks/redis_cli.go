package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// RedisInfoCommand checks the redis checkpoint backend and lists its keys
func RedisInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "redis-info",
		Short: "Ping the configured redis and list the checkpoint keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cli := redis.NewClient(&redis.Options{
				Addr: cfg.Storage.Addr,
			})
			defer cli.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := cli.Ping(ctx).Err(); err != nil {
				return err
			}
			keys, err := cli.Keys(ctx, cfg.Storage.Key+":*").Result()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s reachable, %d checkpoint keys\n", cfg.Storage.Addr, len(keys))
			for _, k := range keys {
				fmt.Fprintf(out, "%s\n", k)
			}
			return nil
		},
	}
}
