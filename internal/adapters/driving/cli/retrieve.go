package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

var (
	retrieveUser   string
	retrieveThread string
	retrieveBudget int
	retrieveJSON   bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve assembled context for a query",
	Long: `Runs the full retrieval pipeline for a query: classifies it, fans out
to the memory, vector and web sources in parallel, scores and merges the
candidates, and packs the best of them into the token budget together
with recent turns and rolling summaries.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveUser, "user", "u", "default", "user the query belongs to")
	retrieveCmd.Flags().StringVarP(&retrieveThread, "thread", "t", "default", "conversation thread")
	retrieveCmd.Flags().IntVarP(&retrieveBudget, "budget", "b", 0, "token budget (0 = configured default)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output assembled context as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if services.Retriever == nil {
		return errors.New("retrieval service not configured")
	}

	query := domain.Query{
		Text:        args[0],
		UserID:      retrieveUser,
		ThreadID:    retrieveThread,
		SubmittedAt: time.Now(),
	}

	assembled, err := services.Retriever.RetrieveContext(cmd.Context(), query, retrieveBudget)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(assembled, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	result := assembled.Result
	cmd.Printf("Context (%d tokens, %d blocks, confidence %.2f, %dms):\n\n",
		assembled.TotalTokens, len(assembled.Blocks), result.Confidence, result.ElapsedMs)
	for _, block := range assembled.Blocks {
		cmd.Printf("  [%s] %s\n", block.Kind, block.Text)
	}

	if len(result.LayerBreakdown) > 0 {
		cmd.Println()
		for source, count := range result.LayerBreakdown {
			cmd.Printf("  %s: %d candidates\n", source, count)
		}
	}
	return nil
}
