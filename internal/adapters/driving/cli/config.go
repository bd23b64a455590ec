package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change configuration: retrieval tuning, the embedding and
summariser providers, the vector index and web search credentials.

Keys use dotted paths, e.g. retrieval.token_budget or embedding.provider.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and persists it immediately. Values are
stored as booleans, integers or floats when they parse as such, and as
strings otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if services.Config == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Config file: %s\n\n", services.Config.Path())

	cmd.Println("[Embedding]")
	printConfigKey(cmd, "embedding.provider")
	printConfigKey(cmd, "embedding.model")
	printConfigKey(cmd, "embedding.base_url")
	printSecretKey(cmd, "embedding.api_key")
	cmd.Println()

	cmd.Println("[Summariser]")
	printConfigKey(cmd, "summariser.provider")
	printConfigKey(cmd, "summariser.model")
	printConfigKey(cmd, "summariser.base_url")
	printSecretKey(cmd, "summariser.api_key")
	cmd.Println()

	cmd.Println("[Vector index]")
	printConfigKey(cmd, "vector.base_url")
	printConfigKey(cmd, "vector.collection")
	cmd.Println()

	cmd.Println("[Web search]")
	printSecretKey(cmd, "websearch.api_key")
	printConfigKey(cmd, "websearch.search_engine_id")
	cmd.Println()

	cmd.Println("[Retrieval]")
	printConfigKey(cmd, "retrieval.token_budget")
	printConfigKey(cmd, "retrieval.max_candidates")
	printConfigKey(cmd, "retrieval.per_source_deadline_ms")
	printConfigKey(cmd, "retrieval.overall_deadline_ms")
	printConfigKey(cmd, "retrieval.default_freshness")

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if services.Config == nil {
		return errors.New("config store not configured")
	}

	value, ok := services.Config.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Printf("%v\n", value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if services.Config == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := services.Config.Set(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s\n", key)
	return nil
}

func printConfigKey(cmd *cobra.Command, key string) {
	value, ok := services.Config.Get(key)
	if !ok {
		cmd.Printf("  %s: (not set)\n", key)
		return
	}
	cmd.Printf("  %s: %v\n", key, value)
}

func printSecretKey(cmd *cobra.Command, key string) {
	secret := services.Config.GetString(key)
	if secret == "" {
		cmd.Printf("  %s: (not set)\n", key)
		return
	}
	cmd.Printf("  %s: %s\n", key, maskAPIKey(secret))
}

// maskAPIKey hides all but the last four characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// parseConfigValue stores booleans and numbers typed, everything else
// as a string.
func parseConfigValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
