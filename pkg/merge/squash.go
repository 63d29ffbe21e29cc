package merge

import (
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/grid"
	"github.com/matzehuels/regionsync/pkg/layout"
)

// Squash removes surplus empty grid columns and rows from a copy of l. Of
// every run of consecutive empty lines, the first keep survive and the rest
// are cut; everything past a cut line moves back by one grid unit. Empty
// lines only carry straight pass-through runs, so cutting them shortens
// segments without changing any corner or crossing.
//
// It returns the squashed copy and the number of lines removed.
func Squash(l *layout.Layout, keep int) (*layout.Layout, int) {
	g := grid.FromLayout(l)
	cols := surplus(g.EmptyColumns(), keep)
	rows := surplus(g.EmptyRows(), keep)

	out := l.Clone()
	if len(cols) == 0 && len(rows) == 0 {
		return out, 0
	}
	move := func(p geom.Point) geom.Point {
		c := p.Cell()
		return geom.Pt(p.X-float64(before(cols, c.Col))*geom.GridUnit, p.Y-float64(before(rows, c.Row))*geom.GridUnit)
	}

	for _, n := range out.Nodes {
		n.Location = move(n.Location)
	}
	for _, t := range out.Trees {
		t.Start = move(t.Start)
		for _, s := range t.Segments {
			s.End = move(s.End)
		}
	}
	for _, gp := range out.Groups {
		if gp.Hint != nil {
			h := move(*gp.Hint)
			gp.Hint = &h
		}
	}
	for _, o := range out.Overlays {
		for _, m := range o.Modules {
			for i, r := range m.Shapes {
				m.Shapes[i] = geom.Rect{Min: move(r.Min), Max: move(r.Max)}
			}
		}
	}
	return out, len(cols) + len(rows)
}

// surplus returns the lines to cut from sorted empty lines: all but the
// first keep of every consecutive run.
func surplus(empty []int, keep int) []int {
	var out []int
	run := 0
	for i, v := range empty {
		if i > 0 && v == empty[i-1]+1 {
			run++
		} else {
			run = 0
		}
		if run >= keep {
			out = append(out, v)
		}
	}
	return out
}

// before counts the cut lines strictly below index i.
func before(cut []int, i int) int {
	n, _ := slices.BinarySearch(cut, i)
	return n
}
