package merge

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/region"
	"github.com/matzehuels/regionsync/pkg/result"
)

func cross(id, from, to string) region.CrossLink {
	return region.CrossLink{ID: id, Source: id + "-s", Target: id + "-t", SourceRegion: from, TargetRegion: to}
}

func TestOrderRegionsExcludesCycle(t *testing.T) {
	links := []region.CrossLink{cross("l1", "A", "B"), cross("l2", "B", "C"), cross("l3", "C", "A")}
	o := OrderRegions([]string{"A", "B", "C"}, links)

	if len(o.Excluded) != 1 || o.Excluded[0].From != "C" || o.Excluded[0].To != "A" {
		t.Fatalf("Excluded = %+v, want [C->A]", o.Excluded)
	}
	want := [][]string{{"A"}, {"B"}, {"C"}}
	if !slices.EqualFunc(o.Columns, want, slices.Equal[[]string]) {
		t.Errorf("Columns = %v, want %v", o.Columns, want)
	}
	// Excluded edges only drop an ordering constraint; their links are
	// still cross-region links.
	if len(links) != 3 {
		t.Errorf("cross links = %d, want 3", len(links))
	}
}

func TestOrderRegionsHeaviestWins(t *testing.T) {
	links := []region.CrossLink{cross("l1", "A", "B"), cross("l2", "B", "A"), cross("l3", "B", "A")}
	o := OrderRegions([]string{"A", "B", "D"}, links)

	if len(o.Edges) != 1 || o.Edges[0].From != "B" || o.Edges[0].Weight != 2 {
		t.Errorf("Edges = %+v, want [B->A weight 2]", o.Edges)
	}
	if !slices.Equal(o.Edges[0].Links, []string{"l2", "l3"}) {
		t.Errorf("edge links = %v, want [l2 l3]", o.Edges[0].Links)
	}
	want := [][]string{{"B", "D"}, {"A"}}
	if !slices.EqualFunc(o.Columns, want, slices.Equal[[]string]) {
		t.Errorf("Columns = %v, want %v", o.Columns, want)
	}
	if o.Column["A"] != 1 {
		t.Errorf("Column[A] = %d, want 1", o.Column["A"])
	}
}

func TestPack(t *testing.T) {
	got := Pack(PackParams{
		Fixed:      map[string]geom.Rect{"A": geom.R(0, 0, 100, 100)},
		Floating:   map[string]geom.Vector{"B": {DX: 50, DY: 50}},
		CrossLinks: []region.CrossLink{cross("l1", "A", "B")},
		Border:     10,
	})
	if want := geom.R(0, 0, 100, 100); got["A"] != want {
		t.Errorf("fixed A = %v, want %v", got["A"], want)
	}
	if want := geom.R(110, 0, 160, 50); got["B"] != want {
		t.Errorf("B = %v, want %v", got["B"], want)
	}
}

func TestPackKeepsBorder(t *testing.T) {
	got := Pack(PackParams{
		Fixed:    map[string]geom.Rect{"A": geom.R(0, 0, 100, 100)},
		Floating: map[string]geom.Vector{"B": {DX: 50, DY: 50}, "C": {DX: 50, DY: 50}},
		Border:   20,
	})
	ids := []string{"A", "B", "C"}
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if got[a].Inset(20 - 1e-6).Overlaps(got[b]) {
				t.Errorf("%s %v and %s %v closer than the border", a, got[a], b, got[b])
			}
		}
	}
}

func TestGrowToFitZeroDemand(t *testing.T) {
	old := map[string]geom.Rect{"A": geom.R(0, 0, 100, 100), "B": geom.R(200, 0, 300, 100)}
	got := GrowToFit(old, old, Padding{})
	for id, v := range got {
		if !v.IsZero() {
			t.Errorf("delta[%s] = %v, want zero", id, v)
		}
	}
}

func TestGrowToFit(t *testing.T) {
	old := map[string]geom.Rect{"A": geom.R(0, 0, 100, 100), "B": geom.R(200, 0, 300, 100)}
	want := map[string]geom.Rect{"A": geom.R(0, 0, 150, 100), "B": geom.R(200, 0, 300, 100)}
	got := GrowToFit(old, want, Padding{})

	tests := []struct {
		id   string
		want geom.Vector
	}{
		{"A", geom.Vector{}},
		{"B", geom.Vector{DX: 50}},
	}
	for _, tt := range tests {
		if got[tt.id] != tt.want {
			t.Errorf("delta[%s] = %v, want %v", tt.id, got[tt.id], tt.want)
		}
	}
	a := want["A"].Translate(got["A"])
	b := want["B"].Translate(got["B"])
	if a.Overlaps(b) {
		t.Errorf("grown regions overlap: %v %v", a, b)
	}
}

func TestGrowToFitExpand(t *testing.T) {
	old := map[string]geom.Rect{"A": geom.R(0, 0, 100, 100), "B": geom.R(200, 0, 300, 100)}
	got := GrowToFit(old, old, Padding{Expand: 10})
	// Each region gains 20 per axis around its center.
	if want := (geom.Vector{DX: 10, DY: 10}); got["A"] != want {
		t.Errorf("delta[A] = %v, want %v", got["A"], want)
	}
	if want := (geom.Vector{DX: 30, DY: 10}); got["B"] != want {
		t.Errorf("delta[B] = %v, want %v", got["B"], want)
	}
}

func twoRegions(t *testing.T) (*network.Network, *layout.Layout, []*network.Region) {
	t.Helper()
	net := network.New(nil)
	l := layout.New("L")
	for i, id := range []string{"a", "b", "c"} {
		if err := net.AddNode(network.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
		l.SetNode(layout.NodeProps{ID: id, Location: geom.Pt(float64(i)*200, 0)})
	}
	for _, lk := range [][3]string{{"ab", "a", "b"}, {"bc", "b", "c"}} {
		if err := net.AddLink(network.Link{ID: lk[0], Source: lk[1], Target: lk[2]}); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.Tree("a").Graft("ab", []geom.Point{geom.Pt(20, 0), geom.Pt(180, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := l.Tree("b").Graft("bc", []geom.Point{geom.Pt(220, 0), geom.Pt(380, 0)}); err != nil {
		t.Fatal(err)
	}
	l.Groups["R1"] = &layout.GroupProps{Region: "R1"}
	l.Groups["R2"] = &layout.GroupProps{Region: "R2"}
	return net, l, []*network.Region{network.NewRegion("R1", "a", "b"), network.NewRegion("R2", "c")}
}

func TestMergeAllRoundTrip(t *testing.T) {
	net, l, regions := twoRegions(t)
	dec, err := region.Decompose(net, l, regions, config.Defaults())
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	got, err := MergeAll(l, dec.Layouts, nil, &dec.Slices)
	if err != nil {
		t.Fatalf("MergeAll() error = %v", err)
	}
	for _, link := range []string{"ab", "bc"} {
		want, _ := l.LinkPath(link)
		path, err := got.LinkPath(link)
		if err != nil {
			t.Fatalf("LinkPath(%s): %v", link, err)
		}
		if !slices.EqualFunc(path, want, geom.Point.Eq) {
			t.Errorf("path %s = %v, want %v", link, path, want)
		}
	}
	if got.Groups["R1"].Layer == got.Groups["R2"].Layer {
		t.Errorf("layers not unique: %d", got.Groups["R1"].Layer)
	}
}

func TestMergeAllTranslates(t *testing.T) {
	net, l, regions := twoRegions(t)
	dec, err := region.Decompose(net, l, regions, config.Defaults())
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	deltas := map[string]geom.Vector{"R1": {DY: 50}}
	got, err := MergeAll(l, dec.Layouts, deltas, nil)
	if err != nil {
		t.Fatalf("MergeAll() error = %v", err)
	}
	if want := geom.Pt(200, 50); !got.Nodes["b"].Location.Eq(want) {
		t.Errorf("b = %v, want %v", got.Nodes["b"].Location, want)
	}
	if want := geom.Pt(400, 0); !got.Nodes["c"].Location.Eq(want) {
		t.Errorf("c = %v, want %v", got.Nodes["c"].Location, want)
	}
	path, err := got.LinkPath("ab")
	if err != nil {
		t.Fatalf("LinkPath(ab): %v", err)
	}
	want := []geom.Point{geom.Pt(20, 50), geom.Pt(180, 50)}
	if !slices.EqualFunc(path, want, geom.Point.Eq) {
		t.Errorf("path ab = %v, want %v", path, want)
	}
	if l.Nodes["b"].Location.Y != 0 {
		t.Error("master layout was modified")
	}
}

func TestRenumberLayers(t *testing.T) {
	groups := map[string]*layout.GroupProps{
		"X": {Region: "X", Layer: 2},
		"Y": {Region: "Y", Layer: 0},
		"Z": {Region: "Z", Layer: 2},
	}
	renumberLayers(groups)
	want := map[string]int{"Y": 0, "X": 2, "Z": 3}
	for id, layer := range want {
		if groups[id].Layer != layer {
			t.Errorf("layer[%s] = %d, want %d", id, groups[id].Layer, layer)
		}
	}
}

func TestSquash(t *testing.T) {
	l := layout.New("L")
	l.SetNode(layout.NodeProps{ID: "a", Location: geom.Pt(0, 0)})
	l.SetNode(layout.NodeProps{ID: "b", Location: geom.Pt(200, 0)})
	if err := l.Tree("a").Graft("ab", []geom.Point{geom.Pt(20, 0), geom.Pt(180, 0)}); err != nil {
		t.Fatal(err)
	}

	got, removed := Squash(l, 1)
	if removed != 14 {
		t.Errorf("removed = %d, want 14", removed)
	}
	if want := geom.Pt(60, 0); !got.Nodes["b"].Location.Eq(want) {
		t.Errorf("b = %v, want %v", got.Nodes["b"].Location, want)
	}
	path, err := got.LinkPath("ab")
	if err != nil {
		t.Fatalf("LinkPath: %v", err)
	}
	want := []geom.Point{geom.Pt(20, 0), geom.Pt(40, 0)}
	if !slices.EqualFunc(path, want, geom.Point.Eq) {
		t.Errorf("path = %v, want %v", path, want)
	}
	if !l.Nodes["b"].Location.Eq(geom.Pt(200, 0)) {
		t.Error("input layout was modified")
	}
}

func TestSurplus(t *testing.T) {
	tests := []struct {
		empty []int
		keep  int
		want  []int
	}{
		{[]int{3, 4, 5, 9, 10}, 1, []int{4, 5, 10}},
		{[]int{3, 4, 5, 9, 10}, 2, []int{5}},
		{[]int{3, 5, 7}, 1, nil},
		{nil, 0, nil},
	}
	for _, tt := range tests {
		if got := surplus(tt.empty, tt.keep); !slices.Equal(got, tt.want) {
			t.Errorf("surplus(%v, %d) = %v, want %v", tt.empty, tt.keep, got, tt.want)
		}
	}
}

func TestPasses(t *testing.T) {
	tests := []struct {
		name string
		opts config.LayoutOptions
		want []Pass
	}{
		{"defaults", config.Defaults(), []Pass{{1, 0}, {2, 1}, {3, 2}, {4, 3}}},
		{"no expansion", config.LayoutOptions{BorderSize: 1}, []Pass{{1, 0}}},
		{"wide border", config.LayoutOptions{BorderSize: 3, MaxExpansion: 1}, []Pass{{3, 0}, {4, 1}}},
		{"capped", config.LayoutOptions{BorderSize: 1, MaxExpansion: 9}, []Pass{{1, 0}, {2, 1}, {3, 2}, {4, 3}}},
	}
	for _, tt := range tests {
		if got := NewEngine(nil, tt.opts).Passes(); !slices.Equal(got, tt.want) {
			t.Errorf("%s: Passes() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func attemptWith(results ...result.RoutingResult) Attempt {
	i := 0
	return func(ctx context.Context, p Pass) (*layout.Layout, result.RoutingResult, error) {
		r := results[i]
		i++
		return layout.New("pass"), r, nil
	}
}

func TestEngineRun(t *testing.T) {
	tests := []struct {
		name      string
		results   []result.RoutingResult
		attempts  int
		pass      Pass
		abandoned bool
		failed    []string
	}{
		{
			name:     "first pass clean",
			results:  []result.RoutingResult{result.OK()},
			attempts: 1,
			pass:     Pass{1, 0},
		},
		{
			name:     "clean after growing",
			results:  []result.RoutingResult{result.Failed("x"), result.Failed("x"), result.OK()},
			attempts: 3,
			pass:     Pass{3, 2},
		},
		{
			name:      "pad collisions abandon",
			results:   []result.RoutingResult{result.PadCollision("x"), result.OK()},
			attempts:  1,
			pass:      Pass{1, 0},
			abandoned: true,
			failed:    []string{"x"},
		},
		{
			name: "least bad kept",
			results: []result.RoutingResult{
				result.Failed("a", "b"), result.Failed("a"), result.Failed("a", "b", "c"), result.Failed("a", "b"),
			},
			attempts: 4,
			pass:     Pass{2, 1},
			failed:   []string{"a"},
		},
	}
	for _, tt := range tests {
		out, err := NewEngine(nil, config.Defaults()).Run(context.Background(), attemptWith(tt.results...))
		if err != nil {
			t.Fatalf("%s: Run() error = %v", tt.name, err)
		}
		if out.Attempts != tt.attempts {
			t.Errorf("%s: Attempts = %d, want %d", tt.name, out.Attempts, tt.attempts)
		}
		if out.Pass != tt.pass {
			t.Errorf("%s: Pass = %v, want %v", tt.name, out.Pass, tt.pass)
		}
		if out.Abandoned != tt.abandoned {
			t.Errorf("%s: Abandoned = %v, want %v", tt.name, out.Abandoned, tt.abandoned)
		}
		if got := out.Result.FailedLinks(); !slices.Equal(got, tt.failed) {
			t.Errorf("%s: failed = %v, want %v", tt.name, got, tt.failed)
		}
	}
}

func TestEngineRunCancelled(t *testing.T) {
	rec := &progress.Recorder{StopAfter: 1}
	rec.UpdateProgress(0.1)
	ctx := progress.WithMonitor(context.Background(), rec)

	called := false
	_, err := NewEngine(nil, config.Defaults()).Run(ctx, func(context.Context, Pass) (*layout.Layout, result.RoutingResult, error) {
		called = true
		return nil, result.OK(), nil
	})
	if !errors.Is(err, progress.ErrStopped) {
		t.Errorf("Run() error = %v, want ErrStopped", err)
	}
	if called {
		t.Error("attempt ran after cancellation")
	}
}
