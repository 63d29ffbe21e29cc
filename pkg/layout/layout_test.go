package layout

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matzehuels/regionsync/pkg/geom"
)

func sample() *Layout {
	l := New("L")
	l.SetNode(NodeProps{ID: "a", Location: geom.Pt(0, 0)})
	l.SetNode(NodeProps{ID: "b", Location: geom.Pt(100, 40)})
	tr := l.Tree("a")
	_ = tr.Graft("ab", pts(20, 0, 50, 0, 50, 40, 80, 40))
	l.Groups["r1"] = &GroupProps{Region: "r1", Layer: 1}
	l.Overlays["o"] = &Overlay{ID: "o", Modules: map[string]*Module{
		"m": {ID: "m", Shapes: []geom.Rect{geom.R(-30, -20, 30, 20)}},
	}}
	return l
}

func TestPads(t *testing.T) {
	n := NodeProps{ID: "n", Location: geom.Pt(100, 50)}
	if got, want := n.LaunchPad(), geom.Pt(120, 50); !got.Eq(want) {
		t.Errorf("LaunchPad() = %v, want %v", got, want)
	}
	pads := n.LandingPads()
	if len(pads) != 7 {
		t.Fatalf("LandingPads() = %d pads, want 7", len(pads))
	}
	if want := geom.Pt(80, 50); !pads[0].Eq(want) {
		t.Errorf("first landing pad = %v, want %v", pads[0], want)
	}
}

func TestNodeSize(t *testing.T) {
	tests := []struct {
		n    NodeProps
		want geom.Vector
	}{
		{NodeProps{}, geom.Vector{DX: 40, DY: 20}},
		{NodeProps{Renderer: RendererBare}, geom.Vector{DX: 20, DY: 10}},
		{NodeProps{Renderer: RendererBox, Width: 60, Height: 30}, geom.Vector{DX: 60, DY: 30}},
	}
	for _, tt := range tests {
		if got := tt.n.Size(); got != tt.want {
			t.Errorf("Size(%+v) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	l := sample()
	c := l.Clone()

	c.Nodes["a"].Location = geom.Pt(999, 999)
	c.Trees["a"].Remove("ab")
	c.Overlays["o"].Modules["m"].Shapes[0] = geom.R(0, 0, 1, 1)

	if !l.Nodes["a"].Location.Eq(geom.Pt(0, 0)) {
		t.Error("Clone shares node properties")
	}
	if !l.Trees["a"].HasLink("ab") {
		t.Error("Clone shares link trees")
	}
	if l.Overlays["o"].Modules["m"].Shapes[0] != geom.R(-30, -20, 30, 20) {
		t.Error("Clone shares module shapes")
	}
}

func TestReplaceContentsKeepsIdentity(t *testing.T) {
	target := New("target")
	src := sample()
	target.ReplaceContents(src)

	if target.ID != "target" {
		t.Errorf("ID = %q, want target", target.ID)
	}
	if len(target.Nodes) != 2 || !target.HasLink("ab") {
		t.Errorf("contents not replaced: %d nodes", len(target.Nodes))
	}
	src.Nodes["a"].Location = geom.Pt(5, 5)
	if target.Nodes["a"].Location.Eq(geom.Pt(5, 5)) {
		t.Error("ReplaceContents aliases the source")
	}
}

func TestTranslate(t *testing.T) {
	l := sample()
	l.Translate(geom.Vector{DX: 10, DY: 20})

	if got, want := l.Nodes["b"].Location, geom.Pt(110, 60); !got.Eq(want) {
		t.Errorf("node b = %v, want %v", got, want)
	}
	path, _ := l.LinkPath("ab")
	if want := pts(30, 20, 60, 20, 60, 60, 90, 60); !samePath(path, want) {
		t.Errorf("LinkPath(ab) = %v, want %v", path, want)
	}
	if got, want := l.Overlays["o"].Modules["m"].Shapes[0], geom.R(-20, 0, 40, 40); got != want {
		t.Errorf("module shape = %v, want %v", got, want)
	}
}

func TestValidateLinkInTwoTrees(t *testing.T) {
	l := sample()
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	other := l.Tree("b")
	_ = other.Graft("ab", pts(120, 40, 140, 40))

	if err := l.Validate(); !errors.Is(err, ErrLinkInTwoTrees) {
		t.Errorf("Validate() error = %v, want ErrLinkInTwoTrees", err)
	}
}

func TestRemoveLinkDropsEmptyTree(t *testing.T) {
	l := sample()
	l.RemoveLink("ab")
	if _, ok := l.Trees["a"]; ok {
		t.Error("empty tree not dropped")
	}
}

func TestBounds(t *testing.T) {
	l := sample()
	got, ok := l.Bounds()
	if !ok {
		t.Fatal("Bounds() ok = false")
	}
	if want := geom.R(-20, -10, 120, 50); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestLayoutJSON(t *testing.T) {
	data, err := json.Marshal(sample())
	if err != nil {
		t.Fatal(err)
	}
	var got Layout
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	p, err := got.LinkPath("ab")
	if err != nil {
		t.Fatalf("LinkPath: %v", err)
	}
	if len(p) != 4 || !p[3].Eq(geom.Pt(80, 40)) {
		t.Errorf("path = %v, want 4 points ending at (80,40)", p)
	}
	if got.Groups["r1"].Layer != 1 {
		t.Errorf("group layer = %d, want 1", got.Groups["r1"].Layer)
	}

	var bare Layout
	if err := json.Unmarshal([]byte(`{"id":"x","trees":{"a":null}}`), &bare); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if bare.Nodes == nil || bare.Groups == nil || bare.Overlays == nil {
		t.Error("omitted maps not initialized")
	}
	if len(bare.Trees) != 0 {
		t.Errorf("trees = %v, want null tree dropped", bare.Trees)
	}
}
