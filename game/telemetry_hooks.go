package game

import "log/slog"

// flushTelemetry records the current step and the perf window.
func (g *Game) flushTelemetry() {
	rec := g.Record()
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(rec)
	}

	if g.logStats {
		rec.LogStats()
		perfStats.LogStats()
		if rec.NonFinite > 0 {
			slog.Warn("non-finite cells in fluid", "tick", rec.Tick, "count", rec.NonFinite)
		}
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteStep(rec); err != nil {
			slog.Error("failed to write step", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, g.tick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}
