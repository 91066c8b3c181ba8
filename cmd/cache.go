package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/internal/observability"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manages the instruction-to-action cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Deletes every cached action",
		Long: `Deletes every cached instruction-to-action entry. Run this after the
portal changes its markup; the cache has no versioning, so stale selectors
are replayed until cleared.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			c := &components{}
			defer c.Shutdown(cmd.Context())

			store, err := newActionStore(cmd.Context(), cfg, logger, c)
			if err != nil {
				return fmt.Errorf("failed to open the action cache: %w", err)
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear the action cache: %w", err)
			}

			logger.Info("Action cache cleared.", zap.String("backend", cfg.Cache.Backend))
			fmt.Println("Action cache cleared.")
			return nil
		},
	})

	return cacheCmd
}

func init() {
	rootCmd.AddCommand(newCacheCmd())
}
