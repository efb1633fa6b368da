// Package main is the entry point for the shelfwatch CLI.
//
// ShelfWatch can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	shelfwatch serve -c config.yaml    # Start the dashboard
//	shelfwatch validate -c config.yaml # Validate configuration
//	shelfwatch version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "shelfwatch",
	Short: "An Audiobookshelf sensor dashboard",
	Long: `ShelfWatch watches an Audiobookshelf media server and turns its
statistics into live sensors.

It polls the server's REST API at a configurable interval and displays
active users, open sessions, library sizes and more in a web UI with
Server-Sent Events for live updates.

Quick start:
  1. Create a config file (shelfwatch.yaml)
  2. Run: shelfwatch serve -c shelfwatch.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  url: http://abs.local:13378
  api_key: ${ABS_API_KEY}
  scan_interval: 300`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this shelfwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shelfwatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
