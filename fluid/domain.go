package fluid

import (
	"slices"
	"sort"
)

// Span is a half-open run of columns [X0, X1) within one grid row.
type Span struct {
	X0, X1 int
}

// Len returns the number of cells covered.
func (sp Span) Len() int { return sp.X1 - sp.X0 }

// Rect is a bounding box over cells: columns [XMin, XMax), rows YMin..YMax
// inclusive. Columns follow the Span convention; rows are discrete.
type Rect struct {
	XMin, XMax int
	YMin, YMax int
}

// Domain is the set of interior cells one step computes, stored per row as
// sorted, non-overlapping, non-adjacent spans. Only rows and columns
// 1..N-2 ever appear; the outer ring belongs to the boundary handler.
type Domain struct {
	Rows map[int][]Span

	// YMin and YMax bound the populated rows (inclusive).
	YMin, YMax int

	order []int
	cells int
}

func newDomain() *Domain {
	return &Domain{Rows: make(map[int][]Span)}
}

// Empty reports whether the domain covers no cells.
func (d *Domain) Empty() bool { return d == nil || d.cells == 0 }

// Cells returns the number of covered cells.
func (d *Domain) Cells() int {
	if d == nil {
		return 0
	}
	return d.cells
}

// RowOrder returns populated rows in ascending order. Every solver loop
// walks rows in this order so results do not depend on map iteration.
func (d *Domain) RowOrder() []int {
	if d == nil {
		return nil
	}
	return d.order
}

// Contains reports whether cell (x, y) is inside the domain.
func (d *Domain) Contains(x, y int) bool {
	if d == nil {
		return false
	}
	spans := d.Rows[y]
	i := sort.Search(len(spans), func(i int) bool { return spans[i].X1 > x })
	return i < len(spans) && spans[i].X0 <= x
}

// Bounds returns the bounding rectangle of the domain.
func (d *Domain) Bounds() Rect {
	if d.Empty() {
		return Rect{}
	}
	r := Rect{XMin: int(^uint(0) >> 1), YMin: d.YMin, YMax: d.YMax}
	for _, y := range d.order {
		spans := d.Rows[y]
		r.XMin = min(r.XMin, spans[0].X0)
		r.XMax = max(r.XMax, spans[len(spans)-1].X1)
	}
	return r
}

func (d *Domain) addSpan(y int, sp Span) {
	if sp.X1 <= sp.X0 {
		return
	}
	d.Rows[y] = append(d.Rows[y], sp)
}

// finalize merges spans per row and rebuilds the row order, bounds and cell
// count. It must run after the last addSpan.
func (d *Domain) finalize() *Domain {
	d.order = d.order[:0]
	d.cells = 0
	for y, spans := range d.Rows {
		merged := mergeSpans(spans)
		if len(merged) == 0 {
			delete(d.Rows, y)
			continue
		}
		d.Rows[y] = merged
		d.order = append(d.order, y)
		for _, sp := range merged {
			d.cells += sp.Len()
		}
	}
	slices.Sort(d.order)
	if len(d.order) > 0 {
		d.YMin = d.order[0]
		d.YMax = d.order[len(d.order)-1]
	}
	return d
}

// mergeSpans sorts spans by start and joins overlapping or touching runs.
// Spans separated by at least one empty cell stay distinct.
func mergeSpans(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	slices.SortFunc(spans, func(a, b Span) int { return a.X0 - b.X0 })
	out := spans[:1]
	for _, sp := range spans[1:] {
		last := &out[len(out)-1]
		if sp.X0 <= last.X1 {
			last.X1 = max(last.X1, sp.X1)
			continue
		}
		out = append(out, sp)
	}
	return out
}

// tileRect returns the padded cell rectangle of a tile, clipped to the
// interior. Padding is one tile width on every side; the column range also
// keeps the first cell past the tile so its stencil neighbour is solved.
func (s *Solver) tileRect(id int) (Rect, bool) {
	ts := s.tileSize
	pad := ts
	tx, ty := id%s.tileCols, id/s.tileCols
	r := Rect{
		XMin: max(tx*ts-pad, 1),
		XMax: min((tx+1)*ts+pad+1, s.n-1),
		YMin: max(ty*ts-pad, 1),
		YMax: min((ty+1)*ts+pad, s.n-2),
	}
	return r, r.XMin < r.XMax && r.YMin <= r.YMax
}

// buildSparseDomainFromTiles expands each tile id into its padded rectangle
// and merges the resulting row spans. Returns nil for an empty tile list.
func (s *Solver) buildSparseDomainFromTiles(tiles []int) *Domain {
	if len(tiles) == 0 {
		return nil
	}
	d := newDomain()
	for _, id := range tiles {
		r, ok := s.tileRect(id)
		if !ok {
			continue
		}
		for y := r.YMin; y <= r.YMax; y++ {
			d.addSpan(y, Span{X0: r.XMin, X1: r.XMax})
		}
	}
	return d.finalize()
}

// mergeDomains returns the union of a and b. Either may be nil.
func mergeDomains(a, b *Domain) *Domain {
	if a.Empty() && b.Empty() {
		return nil
	}
	d := newDomain()
	for _, src := range []*Domain{a, b} {
		if src == nil {
			continue
		}
		for y, spans := range src.Rows {
			for _, sp := range spans {
				d.addSpan(y, sp)
			}
		}
	}
	return d.finalize()
}

// normalizeDomain turns a bounding rectangle into full-row coverage,
// clipped to the interior.
func (s *Solver) normalizeDomain(r Rect) *Domain {
	x0, x1 := max(r.XMin, 1), min(r.XMax, s.n-1)
	y0, y1 := max(r.YMin, 1), min(r.YMax, s.n-2)
	if x0 >= x1 || y0 > y1 {
		return nil
	}
	d := newDomain()
	for y := y0; y <= y1; y++ {
		d.addSpan(y, Span{X0: x0, X1: x1})
	}
	return d.finalize()
}

// expandTileMap returns tiles plus every tile within rings tile steps of
// one of them, sorted and deduplicated.
func (s *Solver) expandTileMap(tiles []int, rings int) []int {
	if len(tiles) == 0 {
		return nil
	}
	seen := make([]bool, s.tileCols*s.tileRows)
	for _, id := range tiles {
		tx, ty := id%s.tileCols, id/s.tileCols
		for dy := -rings; dy <= rings; dy++ {
			for dx := -rings; dx <= rings; dx++ {
				if nid, ok := s.tileID(tx+dx, ty+dy); ok {
					seen[nid] = true
				}
			}
		}
	}
	return collectTiles(seen)
}

// subtractTileMaps returns the tiles of a that are not in b, preserving a's order.
func subtractTileMaps(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	drop := make(map[int]struct{}, len(b))
	for _, id := range b {
		drop[id] = struct{}{}
	}
	out := make([]int, 0, len(a))
	for _, id := range a {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// unionTileMaps returns the sorted, deduplicated union of the given lists.
func (s *Solver) unionTileMaps(lists ...[]int) []int {
	seen := make([]bool, s.tileCols*s.tileRows)
	for _, l := range lists {
		for _, id := range l {
			seen[id] = true
		}
	}
	return collectTiles(seen)
}

// buildDeepEmptyTileMap lists tiles that neither tracker currently holds
// active. These are swept on the empty cadence so residual motion in
// unmarked regions still settles.
func (s *Solver) buildDeepEmptyTileMap() []int {
	total := s.tileCols * s.tileRows
	out := make([]int, 0, total-s.carrier.Len())
	for id := 0; id < total; id++ {
		if !s.carrier.IsActive(id) && !s.momentum.IsActive(id) {
			out = append(out, id)
		}
	}
	return out
}

// tileID resolves tile coordinates, wrapping on periodic grids.
func (s *Solver) tileID(tx, ty int) (int, bool) {
	if s.wrap {
		tx = modInt(tx, s.tileCols)
		ty = modInt(ty, s.tileRows)
	} else if tx < 0 || ty < 0 || tx >= s.tileCols || ty >= s.tileRows {
		return 0, false
	}
	return ty*s.tileCols + tx, true
}

func collectTiles(seen []bool) []int {
	var out []int
	for id, ok := range seen {
		if ok {
			out = append(out, id)
		}
	}
	return out
}
