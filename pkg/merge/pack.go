package merge

import (
	"cmp"
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/region"
)

// PackParams describes one packing problem.
type PackParams struct {
	// Fixed regions keep their rectangles.
	Fixed map[string]geom.Rect

	// Floating regions need a position; only their sizes matter.
	Floating map[string]geom.Vector

	CrossLinks []region.CrossLink

	// Border is the minimum gap between any two rectangles, in layout
	// units.
	Border float64

	// Ordering, when set, places floating regions column by column.
	Ordering *Ordering
}

// Pack places every floating region and returns the rectangles of all
// regions, fixed ones unchanged.
//
// Floating regions are placed one at a time (by ordering column, then ID).
// Candidate top-left corners are the origin and every combination of
// placed left edges, placed right edges plus the border, placed top edges
// and placed bottom edges plus the border. The winning candidate keeps the
// border to every placed rectangle and minimizes the summed Manhattan
// distance between its center and the centers of the placed regions it
// shares links with; ties go to the smallest y, then the smallest x.
func Pack(p PackParams) map[string]geom.Rect {
	placed := maps.Clone(p.Fixed)
	if placed == nil {
		placed = make(map[string]geom.Rect)
	}
	weights := linkWeights(p.CrossLinks)

	order := slices.Sorted(maps.Keys(p.Floating))
	if p.Ordering != nil {
		slices.SortStableFunc(order, func(a, b string) int {
			return cmp.Compare(p.Ordering.Column[a], p.Ordering.Column[b])
		})
	}

	for _, id := range order {
		size := p.Floating[id]
		var (
			best     geom.Rect
			bestCost = math.Inf(1)
			found    bool
		)
		for _, c := range candidates(placed, p.Border) {
			r := geom.Rect{Min: c, Max: c.Add(size)}
			if collides(r, placed, p.Border) {
				continue
			}
			cost := 0.0
			for other, w := range weights[id] {
				if q, ok := placed[other]; ok {
					cost += float64(w) * r.Center().Manhattan(q.Center())
				}
			}
			if !found || cost < bestCost-1e-9 || (math.Abs(cost-bestCost) <= 1e-9 && lessYX(r.Min, best.Min)) {
				best, bestCost, found = r, cost, true
			}
		}
		placed[id] = best
	}
	return placed
}

func lessYX(a, b geom.Point) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// candidates returns grid-snapped top-left corners worth trying.
func candidates(placed map[string]geom.Rect, border float64) []geom.Point {
	xs := []float64{0}
	ys := []float64{0}
	for _, r := range placed {
		xs = append(xs, r.Min.X, r.Max.X+border)
		ys = append(ys, r.Min.Y, r.Max.Y+border)
	}
	snapUp := func(v float64) float64 { return math.Ceil(v/geom.GridUnit-1e-9) * geom.GridUnit }
	for i := range xs {
		xs[i] = snapUp(xs[i])
	}
	for i := range ys {
		ys[i] = snapUp(ys[i])
	}
	slices.Sort(xs)
	slices.Sort(ys)
	xs, ys = slices.Compact(xs), slices.Compact(ys)

	out := make([]geom.Point, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			out = append(out, geom.Pt(x, y))
		}
	}
	return out
}

// collides reports whether r comes closer than border to any placed
// rectangle.
func collides(r geom.Rect, placed map[string]geom.Rect, border float64) bool {
	grown := r.Inset(border - 1e-6)
	for _, q := range placed {
		if grown.Overlaps(q) {
			return true
		}
	}
	return false
}

// linkWeights counts cross-region links per unordered region pair.
func linkWeights(cross []region.CrossLink) map[string]map[string]int {
	out := make(map[string]map[string]int)
	add := func(a, b string) {
		if out[a] == nil {
			out[a] = make(map[string]int)
		}
		out[a][b]++
	}
	for _, cl := range cross {
		if cl.SourceRegion != cl.TargetRegion {
			add(cl.SourceRegion, cl.TargetRegion)
			add(cl.TargetRegion, cl.SourceRegion)
		}
	}
	return out
}
