package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget [memory-id]",
	Short: "Delete a saved memory",
	Long: `Tombstones a memory so it no longer surfaces in retrieval.
Forgetting an already-forgotten memory is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}

func runForget(cmd *cobra.Command, args []string) error {
	if services.Retriever == nil {
		return errors.New("retrieval service not configured")
	}

	if err := services.Retriever.Forget(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("forget failed: %w", err)
	}

	cmd.Printf("Forgot memory %s\n", args[0])
	return nil
}
