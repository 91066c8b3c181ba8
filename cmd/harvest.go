package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
	"github.com/maheshrjl/reraharvest/internal/actioncache"
	"github.com/maheshrjl/reraharvest/internal/browser"
	"github.com/maheshrjl/reraharvest/internal/config"
	"github.com/maheshrjl/reraharvest/internal/executor"
	"github.com/maheshrjl/reraharvest/internal/observability"
	"github.com/maheshrjl/reraharvest/internal/orchestrator"
	"github.com/maheshrjl/reraharvest/internal/persist"
	"github.com/maheshrjl/reraharvest/internal/portal"
	"github.com/maheshrjl/reraharvest/internal/resolver"
)

// defaultTargets drives a run when no targets are passed on the command line.
var defaultTargets = []string{
	"TN/01/Building/0001/2023",
	"TN/02/Building/0045/2023",
	"TN/29/Layout/0112/2024",
}

func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest [targets...]",
		Short: "Scrapes registration, land and document records for each target project",
		Long: `Runs the full extraction pipeline for each target (a registration number
or project name). The first target reuses the initial browser session; every
additional target gets its own concurrent session. Successful results are
written under the configured output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			targets := args
			if len(targets) == 0 {
				targets = defaultTargets
			}

			logger := observability.GetLogger()
			logger.Info("Starting harvest run", zap.Strings("targets", targets))

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				if components != nil {
					components.Shutdown(ctx)
				}
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown(ctx)

			firstSession, err := components.Manager.NewPageSession(ctx)
			if err != nil {
				return fmt.Errorf("failed to open the initial browser session: %w", err)
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := firstSession.Close(closeCtx); err != nil {
					logger.Warn("Error closing the initial session", zap.Error(err))
				}
			}()

			outcomes, err := components.Orchestrator.Run(ctx, firstSession, targets)
			if err != nil {
				return err
			}

			var failed int
			for _, outcome := range outcomes {
				if outcome.Failed() {
					failed++
					fmt.Printf("FAIL  %s: %v\n", outcome.Target, outcome.Err)
				} else {
					fmt.Printf("OK    %s\n", outcome.Target)
				}
			}
			fmt.Printf("\n%d/%d targets succeeded. Results in %s/\n", len(outcomes)-failed, len(outcomes), cfg.Output.Dir)

			if failed == len(outcomes) {
				return fmt.Errorf("all %d targets failed", failed)
			}
			return nil
		},
	}
}

// components holds the initialized service graph for a harvest run.
type components struct {
	Manager      *browser.Manager
	Orchestrator *orchestrator.Orchestrator

	redisClient *redis.Client
}

// Shutdown gracefully closes everything that holds external resources.
func (c *components) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if c.Manager != nil {
		if err := c.Manager.Shutdown(shutdownCtx); err != nil {
			observability.GetLogger().Warn("Error during browser shutdown", zap.Error(err))
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			observability.GetLogger().Warn("Error closing redis client", zap.Error(err))
		}
	}
}

// initializeComponents handles dependency injection for a run: cache store,
// resolver client, browser manager, cached executor, portal scraper and the
// orchestrator on top.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	store, err := newActionStore(ctx, cfg, logger, c)
	if err != nil {
		return c, fmt.Errorf("failed to initialize the action cache: %w", err)
	}

	geminiClient, err := resolver.NewGeminiClient(cfg.Resolver, logger)
	if err != nil {
		return c, fmt.Errorf("failed to initialize the resolver client: %w", err)
	}
	res := resolver.New(geminiClient, cfg.Resolver.SnapshotLimit, logger)

	c.Manager = browser.NewManager(ctx, cfg, res, logger)

	actor := executor.New(store, logger)
	scraper := portal.NewScraper(cfg, actor, logger)
	sink := persist.NewFileSink(cfg.Output.Dir, logger)

	orch, err := orchestrator.New(c.Manager, scraper, sink, logger)
	if err != nil {
		return c, err
	}
	c.Orchestrator = orch

	return c, nil
}

// actionStore is what the cmd layer needs from a cache backend: the executor
// read/write surface plus the operational clear.
type actionStore interface {
	schemas.ActionStore
	Clear(ctx context.Context) error
}

func newActionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, c *components) (actionStore, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		store, err := actioncache.NewRedisStore(ctx, client, cfg.Cache.KeyPrefix, logger)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		c.redisClient = client
		return store, nil
	default:
		return actioncache.NewFileStore(cfg.Cache.Path, logger)
	}
}

func init() {
	rootCmd.AddCommand(newHarvestCmd())
}
