package fluid

// TileTracker records which coarse tiles are active and for how long.
//
// State is kept in parallel fixed-size arrays keyed by tile id: a TTL
// counter (0 = inactive), a dense active list with its inverse index for
// O(1) membership and swap-with-last removal, and a touched flag that is
// cleared once per tick. A tile id is in the active list iff its TTL > 0.
type TileTracker struct {
	cols, rows int
	halo       int
	ttlMax     uint16
	wrap       bool

	ttl     []uint16
	index   []int32 // position in active, -1 when absent
	active  []int32
	touched []bool

	touchedCount int
	sleeping     int
}

// NewTileTracker creates a tracker for a cols×rows tile grid.
func NewTileTracker(cols, rows, halo, ttl int, wrap bool) *TileTracker {
	total := cols * rows
	t := &TileTracker{
		cols:    cols,
		rows:    rows,
		halo:    halo,
		ttlMax:  uint16(ttl),
		wrap:    wrap,
		ttl:     make([]uint16, total),
		index:   make([]int32, total),
		active:  make([]int32, 0, total),
		touched: make([]bool, total),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	return t
}

// MarkTile activates tile (tx, ty) and every tile within the halo radius,
// refreshing their TTL.
func (t *TileTracker) MarkTile(tx, ty int) {
	for dy := -t.halo; dy <= t.halo; dy++ {
		for dx := -t.halo; dx <= t.halo; dx++ {
			x, y := tx+dx, ty+dy
			if t.wrap {
				x = modInt(x, t.cols)
				y = modInt(y, t.rows)
			} else if x < 0 || y < 0 || x >= t.cols || y >= t.rows {
				continue
			}
			t.activate(y*t.cols + x)
		}
	}
}

func (t *TileTracker) activate(id int) {
	t.ttl[id] = t.ttlMax
	if t.index[id] < 0 {
		t.index[id] = int32(len(t.active))
		t.active = append(t.active, int32(id))
	}
	if !t.touched[id] {
		t.touched[id] = true
		t.touchedCount++
	}
}

// Decay decrements every active tile's TTL and drops tiles that reach zero.
// It returns how many tiles went to sleep.
func (t *TileTracker) Decay() int {
	slept := 0
	for i := 0; i < len(t.active); {
		id := t.active[i]
		t.ttl[id]--
		if t.ttl[id] > 0 {
			i++
			continue
		}
		t.remove(int(id))
		slept++
		// The last element now sits at i; revisit it.
	}
	t.sleeping += slept
	return slept
}

// remove drops id from the active list by moving the last entry into its slot.
func (t *TileTracker) remove(id int) {
	pos := t.index[id]
	if pos < 0 {
		return
	}
	last := int32(len(t.active) - 1)
	moved := t.active[last]
	t.active[pos] = moved
	t.index[moved] = pos
	t.active = t.active[:last]
	t.index[id] = -1
	t.ttl[id] = 0
}

// ResetTouched clears the per-tick touched flags.
func (t *TileTracker) ResetTouched() {
	if t.touchedCount == 0 {
		return
	}
	clear(t.touched)
	t.touchedCount = 0
}

// Reset forgets all activity, including the sleeping counter.
func (t *TileTracker) Reset() {
	clear(t.ttl)
	clear(t.touched)
	for i := range t.index {
		t.index[i] = -1
	}
	t.active = t.active[:0]
	t.touchedCount = 0
	t.sleeping = 0
}

// IsActive reports whether tile id has a live TTL.
func (t *TileTracker) IsActive(id int) bool { return t.ttl[id] > 0 }

// TTL returns the remaining steps for tile id.
func (t *TileTracker) TTL(id int) int { return int(t.ttl[id]) }

// Touched reports whether tile id was marked since the last ResetTouched.
func (t *TileTracker) Touched(id int) bool { return t.touched[id] }

// Len returns the number of active tiles.
func (t *TileTracker) Len() int { return len(t.active) }

// TouchedCount returns the number of tiles marked this tick.
func (t *TileTracker) TouchedCount() int { return t.touchedCount }

// Sleeping returns how many times a tile has expired since the last Reset.
func (t *TileTracker) Sleeping() int { return t.sleeping }

// Total returns the number of tiles tracked.
func (t *TileTracker) Total() int { return len(t.ttl) }

// AppendActive appends the active tile ids (in list order) to dst.
func (t *TileTracker) AppendActive(dst []int) []int {
	for _, id := range t.active {
		dst = append(dst, int(id))
	}
	return dst
}

// Carrier returns the tracker for tiles holding visible dye.
func (s *Solver) Carrier() *TileTracker { return s.carrier }

// Momentum returns the tracker for tiles holding currents.
func (s *Solver) Momentum() *TileTracker { return s.momentum }

// MarkCarrierCell activates the carrier tile owning cell (gx, gy).
// Non-finite coordinates are ignored.
func (s *Solver) MarkCarrierCell(gx, gy float32) {
	if tx, ty, ok := s.cellTile(gx, gy); ok {
		s.carrier.MarkTile(tx, ty)
	}
}

// MarkMomentumCell activates the momentum tile owning cell (gx, gy).
// Non-finite coordinates are ignored.
func (s *Solver) MarkMomentumCell(gx, gy float32) {
	if tx, ty, ok := s.cellTile(gx, gy); ok {
		s.momentum.MarkTile(tx, ty)
	}
}

// SeedMomentumTilesFromVelocityField marks momentum tiles wherever an
// interior cell moves faster than MomentumSpeedThreshold, so currents left
// behind by advection keep their tiles awake without a fresh AddVelocity.
func (s *Solver) SeedMomentumTilesFromVelocityField() {
	n := s.n
	ts := s.tileSize
	for y := 1; y < n-1; y++ {
		base := s.IX(0, y)
		for x := 1; x < n-1; x++ {
			i := base + x
			vx, vy := s.Vx[i], s.Vy[i]
			if vx*vx+vy*vy <= s.momentumSpd2 {
				continue
			}
			tx := x / ts
			s.momentum.MarkTile(tx, y/ts)
			// Skip the rest of this tile's row segment; it is already marked.
			x = (tx+1)*ts - 1
		}
	}
}

func (s *Solver) cellTile(gx, gy float32) (int, int, bool) {
	if !isFinite(gx) || !isFinite(gy) {
		return 0, 0, false
	}
	i := s.IXf(gx, gy)
	return (i % s.n) / s.tileSize, (i / s.n) / s.tileSize, true
}
