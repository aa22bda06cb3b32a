package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rwill128/browser-neurogenesis-sub001/game"
	"github.com/rwill128/browser-neurogenesis-sub001/telemetry"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the same workload across several grid sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			sizes, _ := cmd.Flags().GetIntSlice("sizes")
			steps, _ := cmd.Flags().GetInt("steps")
			emitters, _ := cmd.Flags().GetInt("emitters")
			outputDir, _ := cmd.Flags().GetString("output-dir")

			if len(sizes) == 0 {
				sizes = base.Bench.SweepSizes
			}
			if steps == 0 {
				steps = base.Bench.Steps
			}
			req := request{Steps: steps}.clamped()

			om, err := telemetry.NewOutputManager(outputDir)
			if err != nil {
				return err
			}
			defer om.Close()
			if err := om.WriteConfig(base); err != nil {
				return err
			}

			seed := seedFlag(cmd)
			for _, size := range sizes {
				cfg, err := base.WithGridSize(size)
				if err != nil {
					return fmt.Errorf("size %d: %w", size, err)
				}

				res, err := runBench(cfg, game.Options{Seed: seed, Emitters: emitters}, req.Steps)
				if err != nil {
					return fmt.Errorf("size %d: %w", size, err)
				}

				rec := sweepRecord(size, res)
				slog.Info("sweep", "result", rec)
				if err := om.WriteSweep(rec); err != nil {
					slog.Error("failed to write sweep", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntSlice("sizes", nil, "Grid sizes to run (default bench.sweep_sizes)")
	cmd.Flags().Int("steps", 0, "Solver steps per size (0 = bench.steps)")
	cmd.Flags().Int("emitters", -1, "Emitter count (-1 = swarm.count)")

	return cmd
}

func sweepRecord(size int, res result) telemetry.SweepRecord {
	return telemetry.SweepRecord{
		Size:           size,
		Steps:          res.Steps,
		ElapsedMS:      float64(res.Elapsed.Microseconds()) / 1000,
		StepsPerSec:    res.StepsPerSec(),
		SkippedPct:     res.Perf.SkippedPct,
		AvgDomainCells: res.Perf.AvgDomainCells,
		DyeTotal:       float64(res.Diagnostics.DyeTotal),
		MaxSpeed:       float64(res.Diagnostics.MaxSpeed),
		NonFinite:      res.Diagnostics.NonFinite,
	}
}
