// Package result defines RoutingResult, the outcome of every layout
// operation.
//
// A result has two independent axes. The layout axis records links that could
// not be routed without a collision (those links keep crude geometry). The
// color axis records at most one pair of sources whose links remain visually
// ambiguous. Neither axis is an error: operations always complete and report
// both.
//
// Results from sub-steps are combined with [Merge], which is associative and
// commutative on both axes, so callers may fold partial results in any order.
package result

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// LayoutStatus is the layout axis of a result.
type LayoutStatus int

const (
	LayoutOK LayoutStatus = iota
	LayoutProblem
)

func (s LayoutStatus) String() string {
	if s == LayoutProblem {
		return "problem"
	}
	return "ok"
}

// ColorStatus is the color axis of a result.
type ColorStatus int

const (
	ColorOK ColorStatus = iota
	ColorCollision
)

func (s ColorStatus) String() string {
	if s == ColorCollision {
		return "collision"
	}
	return "ok"
}

// Pair is an unordered pair of source node IDs, stored with A <= B.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair builds a normalized pair.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Less orders pairs lexicographically.
func (p Pair) Less(q Pair) bool {
	if p.A != q.A {
		return p.A < q.A
	}
	return p.B < q.B
}

func (p Pair) String() string { return "(" + p.A + "," + p.B + ")" }

// RoutingResult is the two-axis outcome of a layout operation. The zero value
// is a clean result.
type RoutingResult struct {
	Layout    LayoutStatus
	Failed    map[string]bool // links that kept crude geometry
	PadFailed map[string]bool // subset of Failed blocked at the target pad
	Color     ColorStatus
	Collision *Pair
}

// OK returns a clean result.
func OK() RoutingResult { return RoutingResult{} }

// Failed returns a layout problem for the given links.
func Failed(links ...string) RoutingResult {
	r := RoutingResult{Layout: LayoutProblem, Failed: make(map[string]bool, len(links))}
	for _, l := range links {
		r.Failed[l] = true
	}
	return r
}

// PadCollision returns a layout problem for links that could not land
// because another link already holds their target pad.
func PadCollision(links ...string) RoutingResult {
	r := Failed(links...)
	r.PadFailed = maps.Clone(r.Failed)
	return r
}

// Collided returns a color collision between two sources.
func Collided(a, b string) RoutingResult {
	p := NewPair(a, b)
	return RoutingResult{Color: ColorCollision, Collision: &p}
}

// HasLayoutProblem reports whether any link failed to route cleanly.
func (r RoutingResult) HasLayoutProblem() bool { return r.Layout == LayoutProblem }

// HasColorCollision reports whether an ambiguous crossing remains.
func (r RoutingResult) HasColorCollision() bool { return r.Color == ColorCollision }

// Clean reports whether both axes are OK.
func (r RoutingResult) Clean() bool { return !r.HasLayoutProblem() && !r.HasColorCollision() }

// FailedLinks returns the failed link IDs, sorted.
func (r RoutingResult) FailedLinks() []string { return slices.Sorted(maps.Keys(r.Failed)) }

// PadFailedLinks returns the links failed by pad collisions, sorted.
func (r RoutingResult) PadFailedLinks() []string { return slices.Sorted(maps.Keys(r.PadFailed)) }

// OnlyPadCollisions reports whether the result has a layout problem and every
// failed link failed at its target pad. More space cannot fix such a result.
func (r RoutingResult) OnlyPadCollisions() bool {
	if !r.HasLayoutProblem() || len(r.Failed) == 0 {
		return false
	}
	for l := range r.Failed {
		if !r.PadFailed[l] {
			return false
		}
	}
	return true
}

// Merge combines two results: layout problems and failed sets are unioned,
// color collisions are kept, and when both sides carry a collision pair the
// lexicographically smaller one wins.
func Merge(a, b RoutingResult) RoutingResult {
	out := RoutingResult{
		Layout: max(a.Layout, b.Layout),
		Color:  max(a.Color, b.Color),
	}
	out.Failed = union(a.Failed, b.Failed)
	out.PadFailed = union(a.PadFailed, b.PadFailed)
	if len(out.Failed) > 0 {
		out.Layout = LayoutProblem
	}
	switch {
	case a.Collision == nil && b.Collision == nil:
	case a.Collision == nil:
		p := *b.Collision
		out.Collision = &p
	case b.Collision == nil || a.Collision.Less(*b.Collision) || *a.Collision == *b.Collision:
		p := *a.Collision
		out.Collision = &p
	default:
		p := *b.Collision
		out.Collision = &p
	}
	if out.Collision != nil {
		out.Color = ColorCollision
	}
	return out
}

// MergeAll folds results with [Merge].
func MergeAll(rs ...RoutingResult) RoutingResult {
	out := OK()
	for _, r := range rs {
		out = Merge(out, r)
	}
	return out
}

// Equal reports whether two results agree on both axes.
func (r RoutingResult) Equal(o RoutingResult) bool {
	if r.Layout != o.Layout || r.Color != o.Color {
		return false
	}
	if !slices.Equal(r.FailedLinks(), o.FailedLinks()) || !slices.Equal(r.PadFailedLinks(), o.PadFailedLinks()) {
		return false
	}
	switch {
	case r.Collision == nil && o.Collision == nil:
		return true
	case r.Collision == nil || o.Collision == nil:
		return false
	}
	return *r.Collision == *o.Collision
}

// Worse reports whether r is strictly worse than o for retry selection:
// layout problems outrank color collisions, and more failed links outrank
// fewer.
func (r RoutingResult) Worse(o RoutingResult) bool {
	if r.HasLayoutProblem() != o.HasLayoutProblem() {
		return r.HasLayoutProblem()
	}
	if len(r.Failed) != len(o.Failed) {
		return len(r.Failed) > len(o.Failed)
	}
	return r.HasColorCollision() && !o.HasColorCollision()
}

func (r RoutingResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "layout=%s", r.Layout)
	if len(r.Failed) > 0 {
		fmt.Fprintf(&b, " failed=[%s]", strings.Join(r.FailedLinks(), ","))
	}
	fmt.Fprintf(&b, " color=%s", r.Color)
	if r.Collision != nil {
		fmt.Fprintf(&b, " pair=%s", r.Collision)
	}
	return b.String()
}

func union(a, b map[string]bool) map[string]bool {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]bool, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}
