package layout

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/matzehuels/regionsync/pkg/geom"
)

var (
	// ErrDetached is returned by [LinkTree.Graft] when the first point of the
	// new path does not lie on the tree.
	ErrDetached = errors.New("path does not start on the link tree")

	// ErrUnknownLink is returned when a link has no drop in the tree.
	ErrUnknownLink = errors.New("link not in tree")
)

// Segment is one straight run of a link tree. It starts where its parent
// ends (or at the tree's Start for root segments) and ends at End.
type Segment struct {
	ID     string     `json:"id" bson:"id"`
	Parent string     `json:"parent,omitempty" bson:"parent,omitempty"`
	End    geom.Point `json:"end" bson:"end"`
}

// LinkTree is the shared branching geometry of all links launched by one
// source node. Links share a bus from Start and branch off towards their
// targets; each link ends at its drop segment, whose End is the landing pad
// on the target node.
type LinkTree struct {
	Source   string              `json:"source" bson:"source"`
	Start    geom.Point          `json:"start" bson:"start"`
	Color    string              `json:"color,omitempty" bson:"color,omitempty"`
	Segments map[string]*Segment `json:"segments" bson:"segments"`
	Drops    map[string]string   `json:"drops" bson:"drops"` // link ID -> drop segment ID

	next int
}

// NewTree creates an empty tree for source launching at start.
func NewTree(source string, start geom.Point) *LinkTree {
	return &LinkTree{
		Source:   source,
		Start:    start,
		Segments: make(map[string]*Segment),
		Drops:    make(map[string]string),
	}
}

// Links returns the IDs of all links in the tree, sorted.
func (t *LinkTree) Links() []string { return slices.Sorted(maps.Keys(t.Drops)) }

// HasLink reports whether the link has a drop in the tree.
func (t *LinkTree) HasLink(link string) bool {
	_, ok := t.Drops[link]
	return ok
}

// Empty reports whether the tree carries no links.
func (t *LinkTree) Empty() bool { return len(t.Drops) == 0 }

// SegmentStart returns the point where segment id begins.
func (t *LinkTree) SegmentStart(id string) geom.Point {
	s := t.Segments[id]
	if s == nil || s.Parent == "" {
		return t.Start
	}
	if p, ok := t.Segments[s.Parent]; ok {
		return p.End
	}
	return t.Start
}

// Chain returns the segment IDs from the root down to the link's drop.
func (t *LinkTree) Chain(link string) ([]string, error) {
	drop, ok := t.Drops[link]
	if !ok {
		return nil, fmt.Errorf("%s: %w", link, ErrUnknownLink)
	}
	var chain []string
	seen := make(map[string]bool)
	for id := drop; id != ""; {
		if seen[id] {
			return nil, fmt.Errorf("segment cycle at %s", id)
		}
		seen[id] = true
		chain = append(chain, id)
		s, ok := t.Segments[id]
		if !ok {
			return nil, fmt.Errorf("missing segment %s", id)
		}
		id = s.Parent
	}
	slices.Reverse(chain)
	return chain, nil
}

// Path returns the link's polyline: Start followed by the End of every
// segment from the root to the drop. Zero-length segments are kept so
// indices line up with Chain.
func (t *LinkTree) Path(link string) ([]geom.Point, error) {
	chain, err := t.Chain(link)
	if err != nil {
		return nil, err
	}
	pts := make([]geom.Point, 0, len(chain)+1)
	pts = append(pts, t.Start)
	for _, id := range chain {
		pts = append(pts, t.Segments[id].End)
	}
	return pts, nil
}

// Children returns the IDs of segments whose parent is id, sorted. Use ""
// for segments attached to Start.
func (t *LinkTree) Children(id string) []string {
	var out []string
	for sid, s := range t.Segments {
		if s.Parent == id {
			out = append(out, sid)
		}
	}
	slices.Sort(out)
	return out
}

// Users returns the links whose chain passes through segment id, sorted.
func (t *LinkTree) Users(id string) []string {
	var out []string
	for _, link := range t.Links() {
		chain, err := t.Chain(link)
		if err != nil {
			continue
		}
		if slices.Contains(chain, id) {
			out = append(out, link)
		}
	}
	return out
}

// Run is the geometry of one segment.
type Run struct {
	Segment  string
	From, To geom.Point
}

// Runs returns the geometry of every segment, sorted by segment ID.
func (t *LinkTree) Runs() []Run {
	out := make([]Run, 0, len(t.Segments))
	for _, id := range slices.Sorted(maps.Keys(t.Segments)) {
		out = append(out, Run{Segment: id, From: t.SegmentStart(id), To: t.Segments[id].End})
	}
	return out
}

// Corners returns every interior vertex of the tree: segment ends that are
// not landing points. Sorted by segment ID.
func (t *LinkTree) Corners() []geom.Point {
	drops := make(map[string]bool, len(t.Drops))
	for _, d := range t.Drops {
		drops[d] = true
	}
	var out []geom.Point
	for _, id := range slices.Sorted(maps.Keys(t.Segments)) {
		if !drops[id] {
			out = append(out, t.Segments[id].End)
		}
	}
	return out
}

// Locate finds the segment carrying p. It returns the segment ID and the
// fraction along it; seg is "" with ok true when p is Start.
func (t *LinkTree) Locate(p geom.Point) (seg string, fraction float64, ok bool) {
	if p.Eq(t.Start) {
		return "", 0, true
	}
	for _, id := range slices.Sorted(maps.Keys(t.Segments)) {
		if f, on := geom.OnSegment(p, t.SegmentStart(id), t.Segments[id].End); on {
			return id, f, true
		}
	}
	return "", 0, false
}

// Contains reports whether p lies on the tree's geometry.
func (t *LinkTree) Contains(p geom.Point) bool {
	_, _, ok := t.Locate(p)
	return ok
}

func (t *LinkTree) newID() string {
	for {
		t.next++
		id := "s" + strconv.Itoa(t.next)
		if _, taken := t.Segments[id]; !taken {
			return id
		}
	}
}

// split cuts segment id at p and returns the ID of the new upper half,
// which ends at p. Splitting at an existing end returns that segment.
func (t *LinkTree) split(id string, p geom.Point) string {
	s := t.Segments[id]
	if p.Eq(s.End) {
		return id
	}
	if p.Eq(t.SegmentStart(id)) {
		return s.Parent
	}
	upper := &Segment{ID: t.newID(), Parent: s.Parent, End: p}
	t.Segments[upper.ID] = upper
	s.Parent = upper.ID
	return upper.ID
}

// Graft attaches a new path for link. pts[0] must lie on the tree (Start,
// a segment end or a segment interior); the remaining points become a new
// private branch ending in the link's drop. An existing path for the link
// is removed first.
func (t *LinkTree) Graft(link string, pts []geom.Point) error {
	if len(pts) == 0 {
		return fmt.Errorf("graft %s: empty path", link)
	}
	if t.HasLink(link) {
		t.Remove(link)
	}
	seg, _, ok := t.Locate(pts[0])
	if !ok {
		return fmt.Errorf("graft %s at %v: %w", link, pts[0], ErrDetached)
	}
	parent := ""
	if seg != "" {
		parent = t.split(seg, pts[0])
	}
	rest := simplify(pts)[1:]
	if len(rest) == 0 {
		// Landing on the attach point itself: keep a zero-length drop so
		// the link still owns a segment.
		rest = []geom.Point{pts[0]}
	}
	for _, p := range rest {
		s := &Segment{ID: t.newID(), Parent: parent, End: p}
		t.Segments[s.ID] = s
		parent = s.ID
	}
	t.Drops[link] = parent
	return nil
}

// SetPath replaces the link's geometry with pts, which must begin at Start.
// The longest prefix of pts already on the tree is reused so siblings keep
// sharing their bus.
func (t *LinkTree) SetPath(link string, pts []geom.Point) error {
	if len(pts) == 0 {
		return fmt.Errorf("set path %s: empty path", link)
	}
	t.Remove(link)
	if t.Empty() {
		t.Segments = make(map[string]*Segment)
	}
	k := 0
	for i := 1; i < len(pts); i++ {
		if !t.Contains(pts[i]) {
			break
		}
		k = i
	}
	// A path entirely on existing geometry grafts as a single point, which
	// yields a zero-length drop at the landing point.
	return t.Graft(link, pts[k:])
}

// Remove deletes the link's drop and prunes segments no remaining link uses.
func (t *LinkTree) Remove(link string) {
	if _, ok := t.Drops[link]; !ok {
		return
	}
	delete(t.Drops, link)
	t.prune()
}

// prune removes unreachable segments and merges straight pass-through
// vertices created by earlier splits.
func (t *LinkTree) prune() {
	used := make(map[string]bool)
	for _, drop := range t.Drops {
		for id := drop; id != "" && !used[id]; {
			used[id] = true
			s, ok := t.Segments[id]
			if !ok {
				break
			}
			id = s.Parent
		}
	}
	for id := range t.Segments {
		if !used[id] {
			delete(t.Segments, id)
		}
	}
	t.mergeStraight()
}

// mergeStraight collapses a non-drop segment with a single child when the
// two are collinear, so splits left behind by removed branches disappear.
func (t *LinkTree) mergeStraight() {
	drops := make(map[string]bool, len(t.Drops))
	for _, d := range t.Drops {
		drops[d] = true
	}
	for changed := true; changed; {
		changed = false
		for _, id := range slices.Sorted(maps.Keys(t.Segments)) {
			if drops[id] {
				continue
			}
			kids := t.Children(id)
			if len(kids) != 1 {
				continue
			}
			s := t.Segments[id]
			child := t.Segments[kids[0]]
			from := t.SegmentStart(id)
			if !collinear(from, s.End, child.End) {
				continue
			}
			child.Parent = s.Parent
			delete(t.Segments, id)
			changed = true
			break
		}
	}
}

// Translate moves every point of the tree by v.
func (t *LinkTree) Translate(v geom.Vector) {
	t.Start = t.Start.Add(v)
	for _, s := range t.Segments {
		s.End = s.End.Add(v)
	}
}

// Clone returns a deep copy.
func (t *LinkTree) Clone() *LinkTree {
	out := &LinkTree{
		Source:   t.Source,
		Start:    t.Start,
		Color:    t.Color,
		Segments: make(map[string]*Segment, len(t.Segments)),
		Drops:    maps.Clone(t.Drops),
		next:     t.next,
	}
	if out.Drops == nil {
		out.Drops = make(map[string]string)
	}
	for id, s := range t.Segments {
		c := *s
		out.Segments[id] = &c
	}
	return out
}

// Subtree returns a copy holding only the given links.
func (t *LinkTree) Subtree(links []string) *LinkTree {
	out := t.Clone()
	keep := make(map[string]bool, len(links))
	for _, l := range links {
		keep[l] = true
	}
	for l := range out.Drops {
		if !keep[l] {
			delete(out.Drops, l)
		}
	}
	out.prune()
	return out
}

// Validate checks that every drop resolves to a chain reaching the root.
func (t *LinkTree) Validate() error {
	for _, link := range t.Links() {
		if _, err := t.Chain(link); err != nil {
			return fmt.Errorf("tree %s link %s: %w", t.Source, link, err)
		}
	}
	return nil
}

// simplify drops consecutive duplicates and interior points that continue
// straight on, keeping the first and last points.
func simplify(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].Eq(p) {
			continue
		}
		if len(out) >= 2 && collinear(out[len(out)-2], out[len(out)-1], p) {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// Simplify is the exported form of simplify for routers building paths.
func Simplify(pts []geom.Point) []geom.Point { return simplify(pts) }

// collinear reports whether b lies on the straight, same-direction
// continuation from a to c.
func collinear(a, b, c geom.Point) bool {
	d1, ok1 := geom.Heading(a, b)
	d2, ok2 := geom.Heading(b, c)
	return ok1 && ok2 && d1 == d2
}

// Bends counts direction changes along pts.
func Bends(pts []geom.Point) int {
	pts = simplify(pts)
	if len(pts) < 3 {
		return 0
	}
	return len(pts) - 2
}
