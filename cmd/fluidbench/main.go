// Command fluidbench drives the sparse fluid solver headlessly.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fluidbench",
		Short: "Headless driver for the sparse stable-fluids solver",
		Long: `fluidbench steps the active-tile fluid solver without a window.

It runs an emitter swarm over the grid, reports throughput and flow
diagnostics as JSON log records, and can sweep across grid sizes.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Set up slog (JSON to stdout for structured logging)
			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(logger)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (empty = use defaults)")
	rootCmd.PersistentFlags().String("output-dir", "", "Output directory for CSV logs and config snapshot")
	rootCmd.PersistentFlags().Int64("seed", 0, "RNG seed (0 = time-based)")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the --config flag and loads it over the embedded defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// seedFlag returns --seed, or a time-based seed when it is zero.
func seedFlag(cmd *cobra.Command) int64 {
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seed
}
