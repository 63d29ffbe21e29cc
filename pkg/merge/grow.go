package merge

import (
	"cmp"
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
)

// Padding controls GrowToFit.
type Padding struct {
	// Pad is added on both sides of every axis that needs to grow.
	Pad float64

	// Expand is extra growth applied to every region on both axes,
	// regardless of demand. It is how retry passes buy more room.
	Expand float64
}

// slab is a band of inserted space: everything past At moves by Width.
type slab struct {
	At, Width float64
}

// GrowToFit computes, per region, the translation that places its new
// content (want) centered in a grown version of its old extent (old), so
// that every region has room for its new content and no two regions that
// were apart end up overlapping.
//
// Growth is inserted per axis as slabs at region centers, largest demand
// first. A region whose demand is already covered by slabs inserted inside
// its own extent adds nothing, so only as much space as necessary is added.
// Deltas are snapped to the grid. When nothing needs to grow and want
// equals old, every delta is zero.
func GrowToFit(old, want map[string]geom.Rect, pad Padding) map[string]geom.Vector {
	ids := slices.Sorted(maps.Keys(want))
	out := make(map[string]geom.Vector, len(ids))

	for _, ax := range []geom.Axis{geom.AxisX, geom.AxisY} {
		lo := func(r geom.Rect) float64 { return r.Min.Get(ax) }
		hi := func(r geom.Rect) float64 { return r.Max.Get(ax) }
		size := func(r geom.Rect) float64 { return hi(r) - lo(r) }

		demand := make(map[string]float64, len(ids))
		for _, id := range ids {
			o, ok := old[id]
			if !ok {
				continue
			}
			d := size(want[id]) - size(o)
			if d > 1e-9 {
				d += 2 * pad.Pad
			} else {
				d = 0
			}
			d += 2 * pad.Expand
			demand[id] = snapUp(d)
		}

		byDemand := slices.Clone(ids)
		slices.SortStableFunc(byDemand, func(a, b string) int { return cmp.Compare(demand[b], demand[a]) })

		var slabs []slab
		for _, id := range byDemand {
			d := demand[id]
			if d <= 0 {
				continue
			}
			o := old[id]
			covered := 0.0
			for _, s := range slabs {
				if s.At > lo(o) && s.At < hi(o) {
					covered += s.Width
				}
			}
			if extra := d - covered; extra > 1e-9 {
				c := (lo(o) + hi(o)) / 2
				slabs = append(slabs, slab{At: c, Width: extra})
			}
		}

		shift := func(v float64) float64 {
			s := 0.0
			for _, sl := range slabs {
				if sl.At < v {
					s += sl.Width
				}
			}
			return s
		}

		for _, id := range ids {
			o, ok := old[id]
			if !ok {
				o = want[id]
			}
			grownLo := lo(o) + shift(lo(o))
			grownHi := hi(o) + shift(hi(o))
			n := want[id]
			d := geom.SnapValue((grownLo+grownHi)/2 - (lo(n)+hi(n))/2)
			v := out[id]
			if ax == geom.AxisX {
				v.DX = d
			} else {
				v.DY = d
			}
			out[id] = v
		}
	}
	return out
}

func snapUp(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Ceil(v/geom.GridUnit-1e-9) * geom.GridUnit
}
