package grid

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
)

// Reason classifies a conflict.
type Reason int

const (
	// ReasonNode means link geometry enters a node footprint away from the
	// link's own pads.
	ReasonNode Reason = iota
	// ReasonCollinear means two sources run along the same axis through a
	// cell, or one ends on the other's run.
	ReasonCollinear
	// ReasonTurn means a source turns in a cell another source uses.
	ReasonTurn
	// ReasonPad means a link lands on a pad another source already uses.
	ReasonPad
)

func (r Reason) String() string {
	switch r {
	case ReasonNode:
		return "node"
	case ReasonCollinear:
		return "collinear"
	case ReasonTurn:
		return "turn"
	case ReasonPad:
		return "pad"
	}
	return "unknown"
}

// Conflict is one illegal use of a cell.
type Conflict struct {
	Cell   geom.Cell
	Source string // source whose geometry is at fault
	Other  string // other source or node involved
	Reason Reason
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s at %v: %s vs %s", c.Reason, c.Cell.Point(), c.Source, c.Other)
}

// compatible reports whether two sources may share a cell: only a
// perpendicular pass-through is legal.
func compatible(a, b Arms) bool {
	sa, sb := a.Straight(), b.Straight()
	return sa != geom.AxisNone && sb != geom.AxisNone && sa != sb
}

// Check tests a candidate path for source against what is already on the
// grid. allowed lists the cells where the path may touch node footprints,
// normally its launch and landing pads. The last point of pts is treated as
// the landing pad. A nil result means the path is legal.
func (g *Grid) Check(source string, pts []geom.Point, allowed ...geom.Cell) []Conflict {
	if len(pts) == 0 {
		return nil
	}
	arms := PathArms(pts)
	landing := pts[len(pts)-1].Cell()
	cells := slices.Collect(maps.Keys(arms))
	sortCells(cells)

	var out []Conflict
	for _, c := range cells {
		if node := g.Node(c); node != "" && !slices.Contains(allowed, c) {
			out = append(out, Conflict{Cell: c, Source: source, Other: node, Reason: ReasonNode})
		}
		mine := arms[c]
		for _, u := range g.Usages(c) {
			if u.Source == source {
				continue
			}
			switch {
			case c == landing:
				out = append(out, Conflict{Cell: c, Source: source, Other: u.Source, Reason: ReasonPad})
			case mine.Turns() || u.Arms.Turns():
				out = append(out, Conflict{Cell: c, Source: source, Other: u.Source, Reason: ReasonTurn})
			case !compatible(mine, u.Arms) || u.End:
				out = append(out, Conflict{Cell: c, Source: source, Other: u.Source, Reason: ReasonCollinear})
			}
		}
	}
	return out
}

// Legal reports whether [Grid.Check] finds no conflict.
func (g *Grid) Legal(source string, pts []geom.Point, allowed ...geom.Cell) bool {
	return len(g.Check(source, pts, allowed...)) == 0
}

// PadFree reports whether no source other than source uses the cell at p.
func (g *Grid) PadFree(source string, p geom.Point) bool {
	for _, u := range g.Usages(p.Cell()) {
		if u.Source != source {
			return false
		}
	}
	return true
}

// BadRuns returns every conflict already present on the grid, in row-major
// cell order. Each conflicting pair is reported once.
func (g *Grid) BadRuns() []Conflict {
	cells := slices.Collect(maps.Keys(g.cells))
	sortCells(cells)
	var out []Conflict
	for _, c := range cells {
		us := g.Usages(c)
		if node := g.Node(c); node != "" {
			for _, u := range us {
				if !u.End {
					out = append(out, Conflict{Cell: c, Source: u.Source, Other: node, Reason: ReasonNode})
				}
			}
		}
		for i := 0; i < len(us); i++ {
			for j := i + 1; j < len(us); j++ {
				a, b := us[i], us[j]
				switch {
				case a.End && b.End:
					out = append(out, Conflict{Cell: c, Source: a.Source, Other: b.Source, Reason: ReasonPad})
				case a.Arms.Turns() || b.Arms.Turns():
					out = append(out, Conflict{Cell: c, Source: a.Source, Other: b.Source, Reason: ReasonTurn})
				case !compatible(a.Arms, b.Arms) || a.End || b.End:
					out = append(out, Conflict{Cell: c, Source: a.Source, Other: b.Source, Reason: ReasonCollinear})
				}
			}
		}
	}
	return out
}

// EmptyRows returns the rows strictly inside the grid extent that hold no
// node and no link geometry other than vertical pass-through runs. Removing
// such a row only shortens vertical segments.
func (g *Grid) EmptyRows() []int {
	return g.emptyLines(geom.AxisY)
}

// EmptyColumns is the column counterpart of [Grid.EmptyRows].
func (g *Grid) EmptyColumns() []int {
	return g.emptyLines(geom.AxisX)
}

// emptyLines scans rows (ax == AxisY) or columns (ax == AxisX).
func (g *Grid) emptyLines(ax geom.Axis) []int {
	lo, hi, ok := g.Extent()
	if !ok {
		return nil
	}
	index := func(c geom.Cell) int {
		if ax == geom.AxisY {
			return c.Row
		}
		return c.Col
	}
	// Rows may only be crossed by vertical runs, columns by horizontal ones.
	pass := ax
	blocked := make(map[int]bool)
	for c, x := range g.cells {
		if x.node != "" {
			blocked[index(c)] = true
			continue
		}
		for _, u := range g.Usages(c) {
			if u.End || u.Arms.Straight() != pass {
				blocked[index(c)] = true
			}
		}
	}
	var out []int
	for i := index(lo) + 1; i < index(hi); i++ {
		if !blocked[i] {
			out = append(out, i)
		}
	}
	return out
}
