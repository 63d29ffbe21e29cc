package region

import (
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/regionsync/pkg/config"
	rserrors "github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
)

func fixture(t *testing.T) (*network.Network, *layout.Layout, []*network.Region) {
	t.Helper()
	net := network.New(nil)
	l := layout.New("L")
	for i, id := range []string{"n1", "n2", "n3", "n4"} {
		if err := net.AddNode(network.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
		x := float64(i) * 100
		if i >= 2 {
			x += 100
		}
		l.SetNode(layout.NodeProps{ID: id, Location: geom.Pt(x, 0)})
	}
	links := []struct{ id, src, tgt string }{
		{"l12", "n1", "n2"}, {"l23", "n2", "n3"}, {"l34", "n3", "n4"},
	}
	for _, lk := range links {
		if err := net.AddLink(network.Link{ID: lk.id, Source: lk.src, Target: lk.tgt}); err != nil {
			t.Fatal(err)
		}
		src, tgt := l.Nodes[lk.src], l.Nodes[lk.tgt]
		if err := l.Tree(lk.src).Graft(lk.id, []geom.Point{src.LaunchPad(), tgt.LandingPads()[0]}); err != nil {
			t.Fatal(err)
		}
	}
	regions := []*network.Region{
		network.NewRegion("R1", "n1", "n2"),
		network.NewRegion("R2", "n3", "n4"),
	}
	return net, l, regions
}

func TestCrossLinks(t *testing.T) {
	net, _, regions := fixture(t)
	got, err := CrossLinks(net, regions)
	if err != nil {
		t.Fatalf("CrossLinks() error = %v", err)
	}
	want := []CrossLink{{ID: "l23", Source: "n2", Target: "n3", SourceRegion: "R1", TargetRegion: "R2"}}
	if !slices.Equal(got, want) {
		t.Errorf("CrossLinks() = %+v, want %+v", got, want)
	}
}

func TestDecompose(t *testing.T) {
	net, l, regions := fixture(t)
	before := l.Clone()

	dec, err := Decompose(net, l, regions, config.Defaults())
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if want := []string{"R1", "R2"}; !slices.Equal(dec.Order, want) {
		t.Errorf("Order = %v, want %v", dec.Order, want)
	}

	r1 := dec.Layouts["R1"]
	if got := r1.NodeIDs(); !slices.Equal(got, []string{"n1", "n2"}) {
		t.Errorf("R1 nodes = %v", got)
	}
	if got := r1.Links(); !slices.Equal(got, []string{"l12"}) {
		t.Errorf("R1 links = %v, want [l12]", got)
	}
	if _, ok := r1.Trees["n2"]; ok {
		t.Error("R1 carries the tree of cross link l23")
	}
	if got, want := dec.Bounds["R1"], geom.R(-20, -10, 120, 10); got != want {
		t.Errorf("R1 bounds = %v, want %v", got, want)
	}
	if got := dec.Layouts["R2"].Links(); !slices.Equal(got, []string{"l34"}) {
		t.Errorf("R2 links = %v, want [l34]", got)
	}
	if len(dec.CrossLinks) != 1 || dec.CrossLinks[0].ID != "l23" {
		t.Errorf("CrossLinks = %+v", dec.CrossLinks)
	}

	// Parts are copies.
	r1.Nodes["n1"].Location = geom.Pt(-500, -500)
	if !l.Nodes["n1"].Location.Eq(before.Nodes["n1"].Location) {
		t.Error("Decompose aliased node properties")
	}
}

func TestDecomposeEmptyRegions(t *testing.T) {
	net, l, regions := fixture(t)
	hint := geom.Pt(503, 47)
	l.Groups["R3"] = &layout.GroupProps{Region: "R3", Hint: &hint}
	regions = append(regions, network.NewRegion("R3"), network.NewRegion("R4"))

	dec, err := Decompose(net, l, regions, config.Defaults())
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	tests := []struct {
		region string
		want   geom.Rect
	}{
		{"R3", geom.RectAround(geom.Pt(500, 50))},
		{"R4", geom.RectAround(geom.Pt(3*FallbackSpacing*geom.GridUnit, 0))},
	}
	for _, tt := range tests {
		if got := dec.Bounds[tt.region]; got != tt.want {
			t.Errorf("Bounds[%s] = %v, want %v", tt.region, got, tt.want)
		}
	}
}

func TestDecomposeVirtualSubsetPanics(t *testing.T) {
	net, l, regions := fixture(t)
	sub := network.NewRegion("R1a", "n1")
	sub.SubsetOf = "R1"

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !rserrors.Is(err, rserrors.ErrCodeContractViolation) {
			t.Errorf("recover() = %v, want contract violation", r)
		}
	}()
	_, _ = Decompose(net, l, append(regions, sub), config.Defaults())
}

func TestDecomposeOverlap(t *testing.T) {
	net, l, regions := fixture(t)
	regions[1].Members["n2"] = true
	_, err := Decompose(net, l, regions, config.Defaults())
	if !errors.Is(err, network.ErrRegionOverlap) {
		t.Errorf("Decompose() error = %v, want ErrRegionOverlap", err)
	}
}

func TestSliceAndRebuild(t *testing.T) {
	bounds := map[string]geom.Rect{
		"A": geom.R(0, 0, 100, 100),
		"B": geom.R(200, 0, 300, 100),
	}
	overlays := map[string]*layout.Overlay{
		"o": {ID: "o", Modules: map[string]*layout.Module{
			"span": {ID: "span", Shapes: []geom.Rect{geom.R(50, 20, 250, 80)}},
			"own":  {ID: "own", Shapes: []geom.Rect{geom.R(210, 10, 290, 90)}},
		}},
	}
	info := Slice(overlays, []string{"A", "B"}, bounds)

	if len(info.MultiClaimed) != 1 || !slices.Equal(info.MultiClaimed[0].Regions, []string{"A", "B"}) {
		t.Fatalf("MultiClaimed = %+v", info.MultiClaimed)
	}
	if len(info.Unclaimed) != 1 || info.Unclaimed[0].Rect != geom.R(100, 20, 200, 80) {
		t.Errorf("Unclaimed = %+v, want the gap between regions", info.Unclaimed)
	}
	if got := len(info.Owned["B"]); got != 2 {
		t.Errorf("B owns %d pieces, want 2", got)
	}

	same := Rebuild(info, nil)
	if got := same["o"].Modules["span"].Shapes; !slices.Equal(got, []geom.Rect{geom.R(50, 20, 250, 80)}) {
		t.Errorf("rebuilt span = %v, want the original rect", got)
	}

	moved := Rebuild(info, map[string]geom.Vector{"B": {DX: 100}})
	if got := moved["o"].Modules["own"].Shapes; !slices.Equal(got, []geom.Rect{geom.R(310, 10, 390, 90)}) {
		t.Errorf("rebuilt own = %v, want moved by B's delta", got)
	}
	if got := len(moved["o"].Modules["span"].Shapes); got != 2 {
		t.Errorf("span after moving B has %d shapes, want 2", got)
	}
}

func TestCoalesce(t *testing.T) {
	got := Coalesce([]geom.Rect{
		geom.R(0, 0, 10, 10), geom.R(10, 0, 20, 10), geom.R(0, 10, 20, 20), geom.R(50, 50, 60, 60),
	})
	want := []geom.Rect{geom.R(0, 0, 20, 20), geom.R(50, 50, 60, 60)}
	if !slices.Equal(got, want) {
		t.Errorf("Coalesce() = %v, want %v", got, want)
	}
}
