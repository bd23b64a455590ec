package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	memoriesUser  string
	memoriesLimit int
	memoriesJSON  bool
)

var memoriesCmd = &cobra.Command{
	Use:   "memories",
	Short: "List saved memories",
	Long:  `Lists the user's live memories, newest first. Tombstoned memories are excluded.`,
	Args:  cobra.NoArgs,
	RunE:  runMemories,
}

func init() {
	memoriesCmd.Flags().StringVarP(&memoriesUser, "user", "u", "default", "user to list memories for")
	memoriesCmd.Flags().IntVarP(&memoriesLimit, "limit", "n", 20, "maximum number of memories (0 = all)")
	memoriesCmd.Flags().BoolVar(&memoriesJSON, "json", false, "output memories as JSON")
	rootCmd.AddCommand(memoriesCmd)
}

func runMemories(cmd *cobra.Command, _ []string) error {
	if services.Retriever == nil {
		return errors.New("retrieval service not configured")
	}

	memories, err := services.Retriever.ListMemories(cmd.Context(), memoriesUser, memoriesLimit)
	if err != nil {
		return fmt.Errorf("listing memories failed: %w", err)
	}

	if memoriesJSON {
		data, err := json.MarshalIndent(memories, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal memories: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(memories) == 0 {
		cmd.Println("No memories saved.")
		return nil
	}

	cmd.Printf("Memories for %s:\n\n", memoriesUser)
	for _, mem := range memories {
		cmd.Printf("  %s  [%s %.2f]  %s\n", mem.ID, mem.Tier, mem.Priority, mem.Content)
	}
	return nil
}
