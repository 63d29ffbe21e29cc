package route

import (
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

const (
	// channelMargin is how far, in grid units, detours may leave the box
	// spanned by the two endpoints.
	channelMargin = 3

	// maxChannels caps the intermediate rows and columns tried per axis.
	maxChannels = 14

	// bendCost is the length penalty of one corner.
	bendCost = 2 * geom.GridUnit
)

// candidate is one orthogonal path with its cost.
type candidate struct {
	pts   []geom.Point
	cost  float64
	bends int
}

// shapes returns orthogonal paths from a to q with at most three bends,
// cheapest first. Every path has the form a, (x1,a.y), (x1,y1), (q.x,y1), q,
// which covers the straight run, both L shapes, Z shapes and U detours.
func shapes(a, q geom.Point) []candidate {
	a, q = a.Snap(), q.Snap()
	xs := channels(a.X, q.X)
	ys := channels(a.Y, q.Y)
	seen := make(map[string]bool)
	var out []candidate
	for _, x1 := range xs {
		for _, y1 := range ys {
			pts := layout.Simplify([]geom.Point{a, geom.Pt(x1, a.Y), geom.Pt(x1, y1), geom.Pt(q.X, y1), q})
			if reverses(pts) {
				continue
			}
			key := pathKey(pts)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, newCandidate(pts))
		}
	}
	sortCandidates(out)
	return out
}

func newCandidate(pts []geom.Point) candidate {
	b := layout.Bends(pts)
	return candidate{pts: pts, bends: b, cost: length(pts) + float64(b)*bendCost}
}

func sortCandidates(cs []candidate) {
	slices.SortStableFunc(cs, func(a, b candidate) int {
		switch {
		case a.cost < b.cost:
			return -1
		case a.cost > b.cost:
			return 1
		}
		return strings.Compare(pathKey(a.pts), pathKey(b.pts))
	})
}

// channels returns grid coordinates between lo and hi extended by the
// channel margin, keeping the ones closest to either end when there are too
// many.
func channels(a, b float64) []float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	var vals []float64
	for v := lo - channelMargin*geom.GridUnit; v <= hi+channelMargin*geom.GridUnit+1e-9; v += geom.GridUnit {
		vals = append(vals, geom.SnapValue(v))
	}
	if len(vals) > maxChannels {
		dist := func(v float64) float64 { return math.Min(math.Abs(v-a), math.Abs(v-b)) }
		slices.SortStableFunc(vals, func(x, y float64) int {
			dx, dy := dist(x), dist(y)
			switch {
			case dx < dy:
				return -1
			case dx > dy:
				return 1
			}
			return 0
		})
		vals = vals[:maxChannels]
		slices.Sort(vals)
	}
	return vals
}

// reverses reports whether the path doubles back on itself anywhere.
func reverses(pts []geom.Point) bool {
	for i := 2; i < len(pts); i++ {
		d1, ok1 := geom.Heading(pts[i-2], pts[i-1])
		d2, ok2 := geom.Heading(pts[i-1], pts[i])
		if ok1 && ok2 && (d1+2)%4 == d2 {
			return true
		}
	}
	return false
}

func length(pts []geom.Point) float64 {
	var s float64
	for i := 1; i < len(pts); i++ {
		s += pts[i-1].Manhattan(pts[i])
	}
	return s
}

func pathKey(pts []geom.Point) string {
	var b strings.Builder
	for _, p := range pts {
		b.WriteString(p.Key())
		b.WriteByte(';')
	}
	return b.String()
}

// approach returns the point one grid unit outside the node side carrying
// pad. The final run into a pad always arrives perpendicular to its side.
func approach(r geom.Rect, pad geom.Point) geom.Point {
	r = r.Snap()
	switch {
	case math.Abs(pad.X-r.Min.X) < 1e-6:
		return pad.Add(geom.Vector{DX: -geom.GridUnit})
	case math.Abs(pad.X-r.Max.X) < 1e-6:
		return pad.Add(geom.Vector{DX: geom.GridUnit})
	case math.Abs(pad.Y-r.Min.Y) < 1e-6:
		return pad.Add(geom.Vector{DY: -geom.GridUnit})
	default:
		return pad.Add(geom.Vector{DY: geom.GridUnit})
	}
}

// exit returns the first point outside the source node on a tree's launch
// run.
func exit(start geom.Point) geom.Point { return start.Add(geom.Vector{DX: geom.GridUnit}) }

// join concatenates path pieces, dropping duplicated joints.
func join(parts ...[]geom.Point) []geom.Point {
	var out []geom.Point
	for _, p := range parts {
		out = append(out, p...)
	}
	return layout.Simplify(out)
}
