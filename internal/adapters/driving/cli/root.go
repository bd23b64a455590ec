// Package cli provides the cobra command tree for the rememba binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services holds the driving ports the commands run against.
type Services struct {
	Retriever       driving.ContextRetriever
	Audit           driving.AuditService
	Scheduler       driving.Scheduler
	Config          driven.ConfigStore
	SchedulerConfig domain.SchedulerConfig

	// Warnings are non-fatal service initialisation issues, surfaced
	// once on startup.
	Warnings []string
}

// services holds the current wiring. Nil fields disable the commands
// that need them.
var services Services

// SetServices wires the driving ports into the command tree.
func SetServices(s Services) {
	services = s
}

// SetVersion overrides the build-time version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "rememba",
	Short: "Context retrieval engine for conversational assistants",
	Long: `Rememba assembles relevance-ranked, token-budgeted context for
conversational AI assistants.

It classifies each query, retrieves concurrently from persisted memories,
a vector index, and live web search, scores and merges the candidates,
and packs the best of them into a bounded context window alongside recent
conversation turns and rolling thread summaries.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		for _, warning := range services.Warnings {
			cmd.PrintErrf("warning: %s\n", warning)
		}
	},
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline stages to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable context, so
// long-running commands stop cleanly on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
