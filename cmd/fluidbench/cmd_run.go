package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rwill128/browser-neurogenesis-sub001/game"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Step the solver with an emitter swarm and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			steps, _ := cmd.Flags().GetInt("steps")
			dt, _ := cmd.Flags().GetFloat64("dt")
			iters, _ := cmd.Flags().GetInt("iterations")
			emitters, _ := cmd.Flags().GetInt("emitters")
			logStats, _ := cmd.Flags().GetBool("log-stats")
			outputDir, _ := cmd.Flags().GetString("output-dir")

			if steps == 0 {
				steps = cfg.Bench.Steps
			}
			req := request{Steps: steps, DT: dt, Iterations: iters}.clamped()
			if err := req.apply(cfg); err != nil {
				return err
			}

			seed := seedFlag(cmd)
			slog.Info("starting run",
				"seed", seed,
				"size", cfg.Grid.Size,
				"steps", req.Steps,
				"dt", cfg.Grid.DT,
				"pressure_iterations", cfg.Fluid.PressureIterations,
			)

			res, err := runBench(cfg, game.Options{
				Seed:      seed,
				LogStats:  logStats,
				OutputDir: outputDir,
				Emitters:  emitters,
			}, req.Steps)
			if err != nil {
				return err
			}

			slog.Info("run complete",
				"size", cfg.Grid.Size,
				"steps", res.Steps,
				"elapsed_ms", res.Elapsed.Milliseconds(),
				"sps", res.StepsPerSec(),
				"diagnostics", res.Diagnostics,
				"perf", res.Perf,
			)
			return nil
		},
	}

	cmd.Flags().Int("steps", 0, "Solver steps to run (0 = bench.steps)")
	cmd.Flags().Float64("dt", 0, "Timestep override (0 = grid.dt)")
	cmd.Flags().Int("iterations", 0, "Pressure iterations override (0 = config)")
	cmd.Flags().Int("emitters", -1, "Emitter count (-1 = swarm.count)")
	cmd.Flags().Bool("log-stats", false, "Output periodic stats via slog")

	return cmd
}
