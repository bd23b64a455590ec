package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

var (
	rememberUser     string
	rememberThread   string
	rememberTier     string
	rememberPriority float64
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content]",
	Short: "Save a memory",
	Long: `Persists a fact for the user and indexes it for vector search when an
embedding service is configured. Saved memories surface in later
retrievals for the same user.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemember,
}

func init() {
	rememberCmd.Flags().StringVarP(&rememberUser, "user", "u", "default", "user the memory belongs to")
	rememberCmd.Flags().StringVarP(&rememberThread, "thread", "t", "", "conversation thread the fact came from")
	rememberCmd.Flags().StringVar(&rememberTier, "tier", "tier2", "importance tier (tier1, tier2, tier3)")
	rememberCmd.Flags().Float64VarP(&rememberPriority, "priority", "p", 0.7, "importance weight in (0, 1]")
	rootCmd.AddCommand(rememberCmd)
}

func runRemember(cmd *cobra.Command, args []string) error {
	if services.Retriever == nil {
		return errors.New("retrieval service not configured")
	}

	mem, err := services.Retriever.Remember(cmd.Context(), rememberUser, rememberThread,
		args[0], domain.Tier(rememberTier), rememberPriority)
	if err != nil {
		return fmt.Errorf("remember failed: %w", err)
	}

	cmd.Printf("Saved memory %s (%s, priority %.2f)\n", mem.ID, mem.Tier, mem.Priority)
	return nil
}
