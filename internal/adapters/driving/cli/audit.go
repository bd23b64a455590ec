package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var auditAll bool

var auditCmd = &cobra.Command{
	Use:   "audit [thread-id]",
	Short: "Run the conversation audit",
	Long: `Recomputes thread importance and refreshes stale summaries.
Pass a thread ID to audit a single thread, or --all for every
recently active thread. The scheduler runs this automatically in
the background; the command exists for on-demand runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditAll, "all", false, "audit every recently active thread")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if services.Audit == nil {
		return errors.New("audit service not configured")
	}

	if auditAll {
		refreshed, err := services.Audit.AuditAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("audit failed: %w", err)
		}
		cmd.Printf("Audited all active threads, %d summaries refreshed\n", refreshed)
		return nil
	}

	if len(args) == 0 {
		return errors.New("provide a thread ID or --all")
	}

	summary, err := services.Audit.AuditThread(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}
	if summary == nil {
		cmd.Printf("Thread %s: nothing due\n", args[0])
		return nil
	}

	cmd.Printf("Thread %s (importance %.2f):\n%s\n", summary.ThreadID, summary.ImportanceScore, summary.SummaryText)
	return nil
}
