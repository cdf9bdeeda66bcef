// Package main is the entry point for the jobpoll CLI.
//
// jobpoll can be used either as a library (SDK) or as a standalone binary
// that watches backend jobs defined in a YAML file until they finish.
//
// Usage:
//
//	jobpoll watch -c jobs.yaml    # Poll jobs until they reach a terminal state
//	jobpoll validate -c jobs.yaml # Validate configuration
//	jobpoll version               # Show version info
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
	Use:   "jobpoll",
	Short: "Poll long-running backend jobs until they finish",
	Long: `jobpoll watches long-running backend jobs that expose only a
status-check endpoint. It polls each job on a cadence suited to its kind,
backs off on failures, and stops when the job reaches a terminal state.

Quick start:
  1. Create a config file (jobs.yaml)
  2. Run: jobpoll watch -c jobs.yaml

Example config:
  jobs:
    - name: avatar-42
      kind: training
      url: https://api.example.com/avatars/42/status
      extractor: json:status`,
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
	Long:  `Print the version, commit hash, and build date of this jobpoll binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobpoll %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
