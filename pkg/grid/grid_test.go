package grid

import (
	"slices"
	"testing"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

func tree(source string, xy ...float64) *layout.LinkTree {
	var pts []geom.Point
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, geom.Pt(xy[i], xy[i+1]))
	}
	t := layout.NewTree(source, pts[0])
	_ = t.Graft(source+"-link", pts)
	return t
}

func path(xy ...float64) []geom.Point {
	var pts []geom.Point
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, geom.Pt(xy[i], xy[i+1]))
	}
	return pts
}

func reasons(cs []Conflict) []Reason {
	var out []Reason
	for _, c := range cs {
		out = append(out, c.Reason)
	}
	return out
}

func TestArms(t *testing.T) {
	tests := []struct {
		arms     Arms
		straight geom.Axis
		turns    bool
	}{
		{armBit(geom.East) | armBit(geom.West), geom.AxisX, false},
		{armBit(geom.North) | armBit(geom.South), geom.AxisY, false},
		{armBit(geom.East) | armBit(geom.South), geom.AxisNone, true},
		{armBit(geom.East), geom.AxisNone, false},
	}
	for _, tt := range tests {
		if got := tt.arms.Straight(); got != tt.straight {
			t.Errorf("Arms(%04b).Straight() = %v, want %v", tt.arms, got, tt.straight)
		}
		if got := tt.arms.Turns(); got != tt.turns {
			t.Errorf("Arms(%04b).Turns() = %v, want %v", tt.arms, got, tt.turns)
		}
	}
}

func TestCheckNodeBlocks(t *testing.T) {
	g := New()
	g.AddNode("b", geom.R(80, -10, 120, 10))

	cs := g.Check("a", path(0, 0, 130, 0))
	if !slices.Contains(reasons(cs), ReasonNode) {
		t.Errorf("Check() = %v, want a node conflict", cs)
	}
	// Landing on the allowed pad is fine.
	if cs := g.Check("a", path(0, 0, 80, 0), geom.Pt(80, 0).Cell()); len(cs) != 0 {
		t.Errorf("Check(to pad) = %v, want none", cs)
	}
}

func TestCheckPerpendicularCrossing(t *testing.T) {
	g := New()
	g.SetTree(tree("x", 0, 0, 100, 0))

	if cs := g.Check("y", path(50, -50, 50, 50)); len(cs) != 0 {
		t.Errorf("Check(crossing) = %v, want none", cs)
	}
}

func TestCheckCollinearAndTurn(t *testing.T) {
	g := New()
	g.SetTree(tree("x", 0, 0, 100, 0))

	got := reasons(g.Check("y", path(20, -20, 20, 0, 80, 0, 80, -20)))
	if !slices.Contains(got, ReasonTurn) {
		t.Errorf("reasons = %v, want a turn conflict", got)
	}
	if !slices.Contains(got, ReasonCollinear) {
		t.Errorf("reasons = %v, want a collinear conflict", got)
	}
	// The owning source may share its own bus.
	if cs := g.Check("x", path(0, 0, 50, 0, 50, 40)); len(cs) != 0 {
		t.Errorf("Check(same source) = %v, want none", cs)
	}
}

func TestCheckPadCollision(t *testing.T) {
	g := New()
	g.SetTree(tree("x", 0, 0, 100, 0))

	got := reasons(g.Check("y", path(100, -50, 100, 0)))
	if !slices.Equal(got, []Reason{ReasonPad}) {
		t.Errorf("reasons = %v, want [pad]", got)
	}
	if g.PadFree("y", geom.Pt(100, 0)) {
		t.Error("PadFree() = true, want false")
	}
	if !g.PadFree("x", geom.Pt(100, 0)) {
		t.Error("PadFree(owner) = false, want true")
	}
}

func TestRemoveTree(t *testing.T) {
	g := New()
	g.SetTree(tree("x", 0, 0, 100, 0))
	g.RemoveTree("x")
	if us := g.Crossings(geom.Pt(50, 0)); len(us) != 0 {
		t.Errorf("Crossings() after RemoveTree = %v, want none", us)
	}
	if _, _, ok := g.Extent(); ok {
		t.Error("Extent() ok = true on emptied grid")
	}
}

func TestBadRuns(t *testing.T) {
	g := New()
	g.SetTree(tree("x", 0, 0, 100, 0))
	g.SetTree(tree("y", 50, -50, 50, 0, 150, 0))

	bad := g.BadRuns()
	if len(bad) == 0 {
		t.Fatal("BadRuns() = none, want conflicts")
	}
	if got := bad[0].Cell; got != geom.Pt(50, 0).Cell() {
		t.Errorf("first bad cell = %v, want (5,0)", got)
	}
	if got := g.SharedCells(); len(got) != 6 {
		t.Errorf("SharedCells() = %d cells, want 6", len(got))
	}
}

func TestEmptyLines(t *testing.T) {
	l := layout.New("L")
	l.SetNode(layout.NodeProps{ID: "a", Location: geom.Pt(0, 0)})
	l.SetNode(layout.NodeProps{ID: "b", Location: geom.Pt(0, 100)})
	tr := l.Tree("a")
	_ = tr.Graft("ab", path(20, 0, 40, 0, 40, 100))

	g := FromLayout(l)
	if got, want := g.EmptyRows(), []int{2, 3, 4, 5, 6, 7, 8}; !slices.Equal(got, want) {
		t.Errorf("EmptyRows() = %v, want %v", got, want)
	}
	if got, want := g.EmptyColumns(), []int{3}; !slices.Equal(got, want) {
		t.Errorf("EmptyColumns() = %v, want %v", got, want)
	}
}
