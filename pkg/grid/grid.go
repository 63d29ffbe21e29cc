package grid

import (
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

// Arms records which of a cell's four arms a source's geometry uses. A
// straight run through a cell uses two opposite arms, a corner uses two
// perpendicular arms, and a path end uses one.
type Arms uint8

func armBit(d geom.Direction) Arms { return 1 << uint(d) }

// Has reports whether the arm toward d is in use.
func (a Arms) Has(d geom.Direction) bool { return a&armBit(d) != 0 }

// OnAxis reports whether any arm along ax is in use.
func (a Arms) OnAxis(ax geom.Axis) bool {
	if ax == geom.AxisX {
		return a.Has(geom.East) || a.Has(geom.West)
	}
	return a.Has(geom.North) || a.Has(geom.South)
}

// Turns reports whether arms on both axes are in use.
func (a Arms) Turns() bool { return a.OnAxis(geom.AxisX) && a.OnAxis(geom.AxisY) }

// Straight returns the axis of a plain pass-through, or AxisNone when the
// arms are not exactly one opposite pair.
func (a Arms) Straight() geom.Axis {
	switch a {
	case armBit(geom.East) | armBit(geom.West):
		return geom.AxisX
	case armBit(geom.North) | armBit(geom.South):
		return geom.AxisY
	}
	return geom.AxisNone
}

// Usage is one source's use of a cell.
type Usage struct {
	Source string
	Arms   Arms
	End    bool // a link of the source starts or lands here
}

type cell struct {
	node string
	arms map[string]*[4]int
	ends map[string]int
}

func (c *cell) armsOf(src string) Arms {
	var a Arms
	if counts, ok := c.arms[src]; ok {
		for d, n := range counts {
			if n > 0 {
				a |= armBit(geom.Direction(d))
			}
		}
	}
	return a
}

func (c *cell) empty() bool {
	if c.node != "" {
		return false
	}
	for src := range c.arms {
		if c.armsOf(src) != 0 {
			return false
		}
	}
	for _, n := range c.ends {
		if n > 0 {
			return false
		}
	}
	return true
}

// Grid is the occupancy grid the router and color assigner consult. Each
// cell knows the node covering it, if any, and which arms each source's
// link tree uses.
type Grid struct {
	cells map[geom.Cell]*cell
	nodes map[string][]geom.Cell
	trees map[string]*layout.LinkTree
}

// New creates an empty grid.
func New() *Grid {
	return &Grid{
		cells: make(map[geom.Cell]*cell),
		nodes: make(map[string][]geom.Cell),
		trees: make(map[string]*layout.LinkTree),
	}
}

// FromLayout builds a grid holding every node footprint and link tree of l.
func FromLayout(l *layout.Layout) *Grid {
	g := New()
	for _, id := range l.NodeIDs() {
		g.AddNode(id, l.Nodes[id].Rect())
	}
	for _, src := range l.Sources() {
		g.SetTree(l.Trees[src])
	}
	return g
}

func (g *Grid) at(c geom.Cell) *cell {
	x, ok := g.cells[c]
	if !ok {
		x = &cell{arms: make(map[string]*[4]int), ends: make(map[string]int)}
		g.cells[c] = x
	}
	return x
}

// AddNode marks every grid point of the snapped footprint, boundary
// included, as covered by node id.
func (g *Grid) AddNode(id string, r geom.Rect) {
	g.RemoveNode(id)
	s := r.Snap()
	lo, hi := s.Min.Cell(), s.Max.Cell()
	for col := lo.Col; col <= hi.Col; col++ {
		for row := lo.Row; row <= hi.Row; row++ {
			c := geom.Cell{Col: col, Row: row}
			g.at(c).node = id
			g.nodes[id] = append(g.nodes[id], c)
		}
	}
}

// RemoveNode clears the footprint of node id.
func (g *Grid) RemoveNode(id string) {
	for _, c := range g.nodes[id] {
		if x, ok := g.cells[c]; ok && x.node == id {
			x.node = ""
		}
	}
	delete(g.nodes, id)
}

// Node returns the node covering c.
func (g *Grid) Node(c geom.Cell) string {
	if x, ok := g.cells[c]; ok {
		return x.node
	}
	return ""
}

// SetTree replaces the grid record of t's source with t's current geometry.
// Call it after every mutation of the tree.
func (g *Grid) SetTree(t *layout.LinkTree) {
	g.RemoveTree(t.Source)
	g.trees[t.Source] = t
	g.stamp(t, 1)
}

// RemoveTree clears all geometry recorded for source.
func (g *Grid) RemoveTree(source string) {
	if t, ok := g.trees[source]; ok {
		g.stamp(t, -1)
		delete(g.trees, source)
	}
}

func (g *Grid) stamp(t *layout.LinkTree, delta int) {
	for _, r := range t.Runs() {
		walk(r.From, r.To, func(c geom.Cell, d geom.Direction) {
			x := g.at(c)
			counts, ok := x.arms[t.Source]
			if !ok {
				counts = new([4]int)
				x.arms[t.Source] = counts
			}
			counts[d] += delta
		})
	}
	ends := []geom.Point{t.Start}
	for _, link := range t.Links() {
		if p, err := t.Path(link); err == nil {
			ends = append(ends, p[len(p)-1])
		}
	}
	for _, p := range ends {
		g.at(p.Cell()).ends[t.Source] += delta
	}
}

// walk visits every arm a straight run from a to b uses: the outgoing arm of
// each cell but the last, and the incoming arm of each cell but the first.
func walk(a, b geom.Point, visit func(geom.Cell, geom.Direction)) {
	d, ok := geom.Heading(a.Snap(), b.Snap())
	if !ok {
		return
	}
	back := opposite(d)
	from, to := a.Cell(), b.Cell()
	for c := from; c != to; {
		next := c.Step(d)
		visit(c, d)
		visit(next, back)
		c = next
	}
}

func opposite(d geom.Direction) geom.Direction { return (d + 2) % 4 }

// PathArms returns the arms a polyline uses per cell.
func PathArms(pts []geom.Point) map[geom.Cell]Arms {
	out := make(map[geom.Cell]Arms)
	for i := 1; i < len(pts); i++ {
		walk(pts[i-1], pts[i], func(c geom.Cell, d geom.Direction) {
			out[c] |= armBit(d)
		})
	}
	if len(pts) == 1 {
		out[pts[0].Cell()] = 0
	}
	return out
}

// Usages returns every source using c, sorted by source.
func (g *Grid) Usages(c geom.Cell) []Usage {
	x, ok := g.cells[c]
	if !ok {
		return nil
	}
	srcs := slices.Collect(maps.Keys(x.arms))
	for src := range x.ends {
		if _, ok := x.arms[src]; !ok {
			srcs = append(srcs, src)
		}
	}
	slices.Sort(srcs)
	var out []Usage
	for _, src := range srcs {
		a := x.armsOf(src)
		end := x.ends[src] > 0
		if a == 0 && !end {
			continue
		}
		out = append(out, Usage{Source: src, Arms: a, End: end})
	}
	return out
}

// Crossings returns the sources whose geometry passes through the grid point
// nearest p.
func (g *Grid) Crossings(p geom.Point) []Usage { return g.Usages(p.Cell()) }

// SharedCells returns the cells used by two or more sources, in row-major
// order.
func (g *Grid) SharedCells() []geom.Cell {
	var out []geom.Cell
	for c := range g.cells {
		if len(g.Usages(c)) >= 2 {
			out = append(out, c)
		}
	}
	sortCells(out)
	return out
}

func sortCells(cs []geom.Cell) {
	slices.SortFunc(cs, func(a, b geom.Cell) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
}

// Extent returns the smallest cell range covering everything on the grid. ok
// is false for an empty grid.
func (g *Grid) Extent() (lo, hi geom.Cell, ok bool) {
	for c, x := range g.cells {
		if x.empty() {
			continue
		}
		if !ok {
			lo, hi, ok = c, c, true
			continue
		}
		lo.Col, lo.Row = min(lo.Col, c.Col), min(lo.Row, c.Row)
		hi.Col, hi.Row = max(hi.Col, c.Col), max(hi.Row, c.Row)
	}
	return lo, hi, ok
}
