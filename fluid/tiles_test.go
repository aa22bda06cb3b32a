package fluid

import (
	"testing"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
)

// checkTracker verifies the active list and index arrays agree.
func checkTracker(t *testing.T, tr *TileTracker) {
	t.Helper()
	for pos, id := range tr.active {
		if tr.index[id] != int32(pos) {
			t.Errorf("index[%d] = %d, want %d", id, tr.index[id], pos)
		}
	}
	for id := range tr.ttl {
		inList := tr.index[id] >= 0
		if (tr.ttl[id] > 0) != inList {
			t.Errorf("tile %d: ttl=%d but inList=%v", id, tr.ttl[id], inList)
		}
	}
}

func TestTileTracker_MarkAndHalo(t *testing.T) {
	tr := NewTileTracker(4, 4, 1, 5, false)
	tr.MarkTile(0, 0)
	if tr.Len() != 4 {
		t.Errorf("corner with halo 1: %d tiles, want 4", tr.Len())
	}
	if tr.TouchedCount() != 4 {
		t.Errorf("touched = %d, want 4", tr.TouchedCount())
	}

	// Re-marking refreshes without duplicating.
	tr.MarkTile(0, 0)
	if tr.Len() != 4 || tr.TouchedCount() != 4 {
		t.Errorf("re-mark: len=%d touched=%d, want 4,4", tr.Len(), tr.TouchedCount())
	}
	checkTracker(t, tr)

	w := NewTileTracker(4, 4, 1, 5, true)
	w.MarkTile(0, 0)
	if w.Len() != 9 || !w.IsActive(15) {
		t.Errorf("wrapped halo: len=%d active(15)=%v, want 9,true", w.Len(), w.IsActive(15))
	}
}

func TestTileTracker_DecaySwapWithLast(t *testing.T) {
	tr := NewTileTracker(4, 1, 0, 2, false)
	tr.MarkTile(0, 0)
	tr.Decay() // tile 0 at ttl 1
	tr.MarkTile(1, 0)
	tr.MarkTile(2, 0)
	tr.MarkTile(3, 0)

	if slept := tr.Decay(); slept != 1 {
		t.Errorf("slept = %d, want 1", slept)
	}
	if tr.IsActive(0) {
		t.Error("tile 0 should have expired")
	}
	if tr.Len() != 3 {
		t.Errorf("len = %d, want 3", tr.Len())
	}
	if tr.active[0] != 3 {
		t.Errorf("active[0] = %d, want last tile 3 swapped in", tr.active[0])
	}
	checkTracker(t, tr)

	tr.Decay()
	if tr.Len() != 0 || tr.Sleeping() != 4 {
		t.Errorf("len=%d sleeping=%d, want 0,4", tr.Len(), tr.Sleeping())
	}
	checkTracker(t, tr)
}

func TestTileTracker_Reset(t *testing.T) {
	tr := NewTileTracker(3, 3, 1, 1, false)
	tr.MarkTile(1, 1)
	tr.Decay()
	tr.MarkTile(1, 1)

	tr.Reset()
	if tr.Len() != 0 || tr.Sleeping() != 0 || tr.TouchedCount() != 0 {
		t.Errorf("after reset: len=%d sleeping=%d touched=%d", tr.Len(), tr.Sleeping(), tr.TouchedCount())
	}
	checkTracker(t, tr)
}

func TestMarkCell_IgnoresNonFinite(t *testing.T) {
	s := newTestSolver(t, 16, nil)
	nan := float32(0)
	nan /= nan
	s.MarkCarrierCell(nan, 3)
	s.MarkMomentumCell(3, nan)
	if s.Carrier().Len() != 0 || s.Momentum().Len() != 0 {
		t.Error("non-finite coordinates should not mark tiles")
	}
}

func TestSeedMomentumTiles(t *testing.T) {
	s := newTestSolver(t, 32, func(c *config.FluidConfig) {
		c.ActiveTileHalo = 0
		c.MomentumSpeedThreshold = 0.5
	})
	s.Vx[s.IX(20, 5)] = 0.4 // below threshold
	s.Vy[s.IX(10, 25)] = 1

	s.SeedMomentumTilesFromVelocityField()

	if s.Momentum().Len() != 1 {
		t.Fatalf("momentum tiles = %d, want 1", s.Momentum().Len())
	}
	if want := 3*s.tileCols + 1; !s.Momentum().IsActive(want) {
		t.Errorf("tile %d should be active", want)
	}
}

func TestStep_TileSleepsAfterTTL(t *testing.T) {
	const ttl = 3
	s := newTestSolver(t, 16, func(c *config.FluidConfig) {
		c.ActiveTileHalo = 0
		c.ActiveTileTTL = ttl
	})
	s.MarkCarrierCell(4, 4)

	for tick := int64(1); tick <= ttl; tick++ {
		if s.Carrier().Len() == 0 {
			t.Fatalf("tile expired early at tick %d", tick)
		}
		s.Step(tick)
	}

	if s.Carrier().Len() != 0 {
		t.Errorf("carrier tiles = %d after %d steps, want 0", s.Carrier().Len(), ttl)
	}
	if got := s.ActiveTileTelemetry().CarrierSleeping; got != 1 {
		t.Errorf("CarrierSleeping = %d, want 1", got)
	}

	s.Step(ttl + 1)
	if got := s.ActiveTileTelemetry().CarrierSleeping; got != 1 {
		t.Errorf("CarrierSleeping = %d after idle step, want 1", got)
	}
}
