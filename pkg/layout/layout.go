package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
)

// ErrLinkInTwoTrees is returned by [Layout.Validate] when a link has a drop in
// more than one tree.
var ErrLinkInTwoTrees = errors.New("link belongs to more than one tree")

// Renderer kinds. The renderer decides a node's footprint on the grid.
const (
	RendererBox       = "box"
	RendererBare      = "bare"
	RendererIntercell = "intercell"
)

// footprints maps renderer kinds to their default width and height.
var footprints = map[string]geom.Vector{
	RendererBox:       {DX: 40, DY: 20},
	RendererBare:      {DX: 20, DY: 10},
	RendererIntercell: {DX: 20, DY: 20},
}

// NodeProps is the geometric state of one node. Location is the node's
// center.
type NodeProps struct {
	ID       string     `json:"id" bson:"id"`
	Location geom.Point `json:"location" bson:"location"`
	Renderer string     `json:"renderer,omitempty" bson:"renderer,omitempty"`
	Width    float64    `json:"width,omitempty" bson:"width,omitempty"`
	Height   float64    `json:"height,omitempty" bson:"height,omitempty"`
}

// Size returns the node footprint, falling back to the renderer default.
func (n *NodeProps) Size() geom.Vector {
	if n.Width > 0 && n.Height > 0 {
		return geom.Vector{DX: n.Width, DY: n.Height}
	}
	if fp, ok := footprints[n.Renderer]; ok {
		return fp
	}
	return footprints[RendererBox]
}

// Rect returns the node footprint in layout space.
func (n *NodeProps) Rect() geom.Rect {
	sz := n.Size()
	return geom.R(n.Location.X-sz.DX/2, n.Location.Y-sz.DY/2, n.Location.X+sz.DX/2, n.Location.Y+sz.DY/2)
}

// LaunchPad returns the point where the node's link tree starts: the middle
// of its right side.
func (n *NodeProps) LaunchPad() geom.Point {
	r := n.Rect()
	return geom.Pt(r.Max.X, n.Location.Y).Snap()
}

// LandingPads returns the points where inbound links may land, in order of
// preference: the left side from the center outward, then the top and
// bottom sides from left to right.
func (n *NodeProps) LandingPads() []geom.Point {
	r := n.Rect().Snap()
	c := n.Location.Snap()
	var pads []geom.Point
	pads = append(pads, geom.Pt(r.Min.X, c.Y))
	for d := geom.GridUnit; c.Y-d > r.Min.Y || c.Y+d < r.Max.Y; d += geom.GridUnit {
		if c.Y-d > r.Min.Y {
			pads = append(pads, geom.Pt(r.Min.X, c.Y-d))
		}
		if c.Y+d < r.Max.Y {
			pads = append(pads, geom.Pt(r.Min.X, c.Y+d))
		}
	}
	for x := r.Min.X + geom.GridUnit; x < r.Max.X; x += geom.GridUnit {
		pads = append(pads, geom.Pt(x, r.Min.Y))
	}
	for x := r.Min.X + geom.GridUnit; x < r.Max.X; x += geom.GridUnit {
		pads = append(pads, geom.Pt(x, r.Max.Y))
	}
	return pads
}

// GroupProps carries the visual state of one region.
type GroupProps struct {
	Region string      `json:"region" bson:"region"`
	Layer  int         `json:"layer" bson:"layer"`
	Color  string      `json:"color,omitempty" bson:"color,omitempty"`
	Hint   *geom.Point `json:"hint,omitempty" bson:"hint,omitempty"`
}

// Module is one named shape of an overlay, made of rectangles.
type Module struct {
	ID     string      `json:"id" bson:"id"`
	Shapes []geom.Rect `json:"shapes" bson:"shapes"`
}

// Overlay is a named set of modules drawn over the network.
type Overlay struct {
	ID      string             `json:"id" bson:"id"`
	Modules map[string]*Module `json:"modules" bson:"modules"`
}

// Clone returns a deep copy.
func (o *Overlay) Clone() *Overlay {
	out := &Overlay{ID: o.ID, Modules: make(map[string]*Module, len(o.Modules))}
	for id, m := range o.Modules {
		out.Modules[id] = &Module{ID: m.ID, Shapes: slices.Clone(m.Shapes)}
	}
	return out
}

// Layout is the full geometric state of one network or instance: node
// properties, one link tree per source node, region group properties and
// overlay module shapes.
//
// A Layout owned by a caller is never mutated by the core except through
// [Layout.ReplaceContents] and [Layout.MergeRegion] at commit time; all
// intermediate work happens on clones.
type Layout struct {
	ID       string                 `json:"id" bson:"id"`
	Nodes    map[string]*NodeProps  `json:"nodes" bson:"nodes"`
	Trees    map[string]*LinkTree   `json:"trees" bson:"trees"`
	Groups   map[string]*GroupProps `json:"groups,omitempty" bson:"groups,omitempty"`
	Overlays map[string]*Overlay    `json:"overlays,omitempty" bson:"overlays,omitempty"`
}

// New creates an empty layout.
func New(id string) *Layout {
	return &Layout{
		ID:       id,
		Nodes:    make(map[string]*NodeProps),
		Trees:    make(map[string]*LinkTree),
		Groups:   make(map[string]*GroupProps),
		Overlays: make(map[string]*Overlay),
	}
}

// UnmarshalJSON decodes a layout and replaces maps omitted from the input
// with empty ones, so decoded layouts behave like ones built with [New].
func (l *Layout) UnmarshalJSON(data []byte) error {
	type plain Layout
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Layout(p)
	if l.Nodes == nil {
		l.Nodes = make(map[string]*NodeProps)
	}
	if l.Trees == nil {
		l.Trees = make(map[string]*LinkTree)
	}
	if l.Groups == nil {
		l.Groups = make(map[string]*GroupProps)
	}
	if l.Overlays == nil {
		l.Overlays = make(map[string]*Overlay)
	}
	for src, t := range l.Trees {
		if t == nil {
			delete(l.Trees, src)
			continue
		}
		if t.Segments == nil {
			t.Segments = make(map[string]*Segment)
		}
		if t.Drops == nil {
			t.Drops = make(map[string]string)
		}
	}
	return nil
}

// SetNode stores node properties, replacing any previous entry.
func (l *Layout) SetNode(n NodeProps) {
	c := n
	l.Nodes[n.ID] = &c
}

// Node returns the properties of a node.
func (l *Layout) Node(id string) (*NodeProps, bool) {
	n, ok := l.Nodes[id]
	return n, ok
}

// NodeIDs returns all node IDs with properties, sorted.
func (l *Layout) NodeIDs() []string { return slices.Sorted(maps.Keys(l.Nodes)) }

// Sources returns the source IDs of all trees, sorted.
func (l *Layout) Sources() []string { return slices.Sorted(maps.Keys(l.Trees)) }

// Tree returns the tree for source, creating an empty one launched from the
// source's launch pad when absent.
func (l *Layout) Tree(source string) *LinkTree {
	if t, ok := l.Trees[source]; ok {
		return t
	}
	start := geom.Point{}
	if n, ok := l.Nodes[source]; ok {
		start = n.LaunchPad()
	}
	t := NewTree(source, start)
	l.Trees[source] = t
	return t
}

// TreeOf returns the tree carrying link.
func (l *Layout) TreeOf(link string) (*LinkTree, bool) {
	for _, src := range l.Sources() {
		if t := l.Trees[src]; t.HasLink(link) {
			return t, true
		}
	}
	return nil, false
}

// HasLink reports whether any tree carries the link.
func (l *Layout) HasLink(link string) bool {
	_, ok := l.TreeOf(link)
	return ok
}

// LinkPath returns the polyline of a link.
func (l *Layout) LinkPath(link string) ([]geom.Point, error) {
	t, ok := l.TreeOf(link)
	if !ok {
		return nil, fmt.Errorf("%s: %w", link, ErrUnknownLink)
	}
	return t.Path(link)
}

// RemoveLink removes the link from whichever tree carries it and drops
// trees left empty.
func (l *Layout) RemoveLink(link string) {
	t, ok := l.TreeOf(link)
	if !ok {
		return
	}
	t.Remove(link)
	if t.Empty() {
		delete(l.Trees, t.Source)
	}
}

// DropEmptyTrees removes trees without links.
func (l *Layout) DropEmptyTrees() {
	for src, t := range l.Trees {
		if t.Empty() {
			delete(l.Trees, src)
		}
	}
}

// Clone returns a deep copy.
func (l *Layout) Clone() *Layout {
	out := New(l.ID)
	for id, n := range l.Nodes {
		c := *n
		out.Nodes[id] = &c
	}
	for src, t := range l.Trees {
		out.Trees[src] = t.Clone()
	}
	for id, g := range l.Groups {
		c := *g
		if g.Hint != nil {
			h := *g.Hint
			c.Hint = &h
		}
		out.Groups[id] = &c
	}
	for id, o := range l.Overlays {
		out.Overlays[id] = o.Clone()
	}
	return out
}

// ReplaceContents makes l a deep copy of other while keeping l's identity.
// It is the single commit point for whole-layout results.
func (l *Layout) ReplaceContents(other *Layout) {
	c := other.Clone()
	l.Nodes, l.Trees, l.Groups, l.Overlays = c.Nodes, c.Trees, c.Groups, c.Overlays
}

// MergeRegion commits one region's part into l: node properties in part
// replace those in l, trees in part replace l's trees for the same source,
// and the region's group properties are copied.
func (l *Layout) MergeRegion(region string, part *Layout) {
	c := part.Clone()
	maps.Copy(l.Nodes, c.Nodes)
	maps.Copy(l.Trees, c.Trees)
	if g, ok := c.Groups[region]; ok {
		l.Groups[region] = g
	}
}

// Translate moves every node, link point and module shape by v.
func (l *Layout) Translate(v geom.Vector) {
	if v.IsZero() {
		return
	}
	for _, n := range l.Nodes {
		n.Location = n.Location.Add(v)
	}
	for _, t := range l.Trees {
		t.Translate(v)
	}
	for _, g := range l.Groups {
		if g.Hint != nil {
			h := g.Hint.Add(v)
			g.Hint = &h
		}
	}
	for _, o := range l.Overlays {
		for _, m := range o.Modules {
			for i := range m.Shapes {
				m.Shapes[i] = m.Shapes[i].Translate(v)
			}
		}
	}
}

// NodeBounds returns the union of the footprints of the given nodes, or of
// all nodes when ids is empty. ok is false when none have properties.
func (l *Layout) NodeBounds(ids ...string) (geom.Rect, bool) {
	if len(ids) == 0 {
		ids = l.NodeIDs()
	}
	var out geom.Rect
	found := false
	for _, id := range ids {
		n, ok := l.Nodes[id]
		if !ok {
			continue
		}
		if !found {
			out, found = n.Rect(), true
			continue
		}
		out = out.Union(n.Rect())
	}
	return out, found
}

// Bounds returns the extent of nodes and link geometry.
func (l *Layout) Bounds() (geom.Rect, bool) {
	out, found := l.NodeBounds()
	for _, src := range l.Sources() {
		t := l.Trees[src]
		for _, r := range t.Runs() {
			for _, p := range []geom.Point{r.From, r.To} {
				if !found {
					out, found = geom.RectAround(p), true
				} else {
					out = out.Extend(p)
				}
			}
		}
	}
	return out, found
}

// Validate checks the layout invariants: every link belongs to exactly one
// tree and every tree resolves.
func (l *Layout) Validate() error {
	owner := make(map[string]string)
	for _, src := range l.Sources() {
		t := l.Trees[src]
		if t.Source != src {
			return fmt.Errorf("tree keyed %s claims source %s", src, t.Source)
		}
		if err := t.Validate(); err != nil {
			return err
		}
		for _, link := range t.Links() {
			if prev, ok := owner[link]; ok {
				return fmt.Errorf("link %s in %s and %s: %w", link, prev, src, ErrLinkInTwoTrees)
			}
			owner[link] = src
		}
	}
	return nil
}

// Links returns every link ID carried by any tree, sorted.
func (l *Layout) Links() []string {
	var out []string
	for _, t := range l.Trees {
		out = append(out, t.Links()...)
	}
	slices.Sort(out)
	return out
}
