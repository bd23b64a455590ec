// Command rememba is the context retrieval engine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/adapters/driven/ai"
	cachemem "github.com/custodia-labs/rememba-cli/internal/adapters/driven/cache/memory"
	configfile "github.com/custodia-labs/rememba-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/rememba-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/rememba-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/services"
)

// version is set at build time via ldflags.
var version = "dev"

// cacheSweepInterval is how often expired cache entries are evicted.
const cacheSweepInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settings, err := configfile.LoadSettings(configStore)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	serviceSettings := configfile.LoadServiceSettings(configStore)

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	external := ai.InitServices(ctx, serviceSettings)
	defer external.Close()

	cache := cachemem.NewCache(cacheSweepInterval)
	defer cache.Close()

	scorer := services.NewRelevanceScorer(settings.Boosts)

	executors := []services.SourceExecutor{
		services.WithCache(
			services.NewMemoryExecutor(store.MemoryStore(), external.EmbeddingService, settings),
			cache, settings.PositiveCacheTTL, settings.NegativeCacheTTL),
	}
	if external.VectorIndex != nil {
		executors = append(executors, services.WithCache(
			services.NewVectorExecutor(external.VectorIndex, external.EmbeddingService, settings),
			cache, settings.PositiveCacheTTL, settings.NegativeCacheTTL))
	}
	if external.WebSearch != nil {
		executors = append(executors, services.WithCache(
			services.NewWebExecutor(external.WebSearch, settings),
			cache, settings.PositiveCacheTTL, settings.NegativeCacheTTL))
	}

	orchestrator := services.NewOrchestrator(executors, scorer, settings)
	assembler := services.NewContextAssembler(store.HistoryStore(), store.SummaryStore(), settings)

	var audit *services.AuditService
	if external.Summariser != nil {
		audit = services.NewAuditService(
			store.HistoryStore(), store.SummaryStore(), external.Summariser, settings.Audit)
	}

	retriever := services.NewRetrievalService(
		services.NewQueryAnalyzer(),
		services.NewStrategyPlanner(settings),
		orchestrator,
		assembler,
		store.MemoryStore(),
		store.HistoryStore(),
		external.VectorIndex,
		external.EmbeddingService,
		audit,
		settings,
	)

	schedulerConfig := domain.DefaultSchedulerConfig()

	wiring := cli.Services{
		Retriever:       retriever,
		Config:          configStore,
		SchedulerConfig: schedulerConfig,
		Warnings:        external.Warnings,
	}
	if audit != nil {
		wiring.Audit = audit

		scheduler := services.NewScheduler(schedulerConfig, store.SchedulerStore(), audit)
		wiring.Scheduler = scheduler

		if schedulerConfig.Enabled {
			go func() {
				if err := scheduler.Start(ctx); err != nil && err != context.Canceled {
					fmt.Fprintf(os.Stderr, "warning: scheduler stopped: %v\n", err)
				}
			}()
			defer scheduler.Stop() //nolint:errcheck
		}
	}

	cli.SetServices(wiring)
	cli.SetVersion(version)

	return cli.ExecuteContext(ctx)
}
