package main

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a ShelfWatch configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  shelfwatch validate -c config.yaml
  shelfwatch validate --config /etc/shelfwatch/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// never echo the expanded API key
	redacted := cfg.Redacted()

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", redacted.Port)
	fmt.Printf("  Server:        %s\n", redacted.URL)
	fmt.Printf("  API key:       %s\n", redacted.APIKey)
	fmt.Printf("  Scan interval: %s\n", redacted.ScanInterval.Duration())
	if redacted.StateFile != "" {
		fmt.Printf("  State file:    %s\n", redacted.StateFile)
	}

	return nil
}
