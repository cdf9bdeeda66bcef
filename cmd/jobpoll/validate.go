package main

import (
	"fmt"

	"github.com/heyarsen/jobpoll/config"
	"github.com/spf13/cobra"
)

// validateCmd checks a configuration file without polling anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate loads the configuration file, expands environment variables,
and reports any errors without starting any polls.

Useful in CI pipelines to catch config mistakes before deployment.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringP("config", "c", "", "Path to configuration file (required)")
	validateCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Building the jobs exercises the extractor and option paths too.
	jobs, err := config.BuildJobs(cfg)
	if err != nil {
		return err
	}

	byKind := make(map[string]int)
	for _, job := range jobs {
		byKind[string(job.Kind())]++
	}

	fmt.Println("Config is valid!")
	fmt.Printf("  Jobs: %d\n", len(jobs))
	for _, kind := range []string{"training", "generation", "look"} {
		if n := byKind[kind]; n > 0 {
			fmt.Printf("    %s: %d\n", kind, n)
		}
	}
	return nil
}
