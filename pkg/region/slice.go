package region

import (
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

// Piece is one rectangle of an overlay module after slicing.
type Piece struct {
	Overlay string
	Module  string
	Rect    geom.Rect
}

// Claim is a module rectangle spanning two or more regions, reconciled into
// one representative rectangle per claiming region.
type Claim struct {
	Piece
	Regions         []string
	Representatives map[string]geom.Rect
}

// ModuleSliceInfo classifies overlay module shapes against region bounds.
type ModuleSliceInfo struct {
	// Owned holds, per region, the pieces that move with it. Representatives
	// of multi-claimed rectangles are included.
	Owned map[string][]Piece

	// Unclaimed holds pieces outside every region. They never move.
	Unclaimed []Piece

	// MultiClaimed records the rectangles that spanned region boundaries.
	MultiClaimed []Claim
}

// Empty reports whether nothing was sliced.
func (m ModuleSliceInfo) Empty() bool {
	return len(m.Owned) == 0 && len(m.Unclaimed) == 0
}

// Slice cuts every module shape of overlays at the region bounds.
func Slice(overlays map[string]*layout.Overlay, order []string, bounds map[string]geom.Rect) ModuleSliceInfo {
	info := ModuleSliceInfo{Owned: make(map[string][]Piece)}
	for _, oid := range slices.Sorted(maps.Keys(overlays)) {
		o := overlays[oid]
		for _, mid := range slices.Sorted(maps.Keys(o.Modules)) {
			for _, s := range o.Modules[mid].Shapes {
				sliceShape(&info, Piece{Overlay: oid, Module: mid, Rect: s}, order, bounds)
			}
		}
	}
	return info
}

func sliceShape(info *ModuleSliceInfo, p Piece, order []string, bounds map[string]geom.Rect) {
	var claimers []string
	reps := make(map[string]geom.Rect)
	for _, r := range order {
		if in, ok := p.Rect.Intersect(bounds[r]); ok {
			claimers = append(claimers, r)
			reps[r] = in
		}
	}

	rest := []geom.Rect{p.Rect}
	for _, r := range claimers {
		var next []geom.Rect
		for _, x := range rest {
			next = append(next, x.Subtract(bounds[r])...)
		}
		rest = next
	}
	for _, x := range rest {
		if !x.Empty() {
			info.Unclaimed = append(info.Unclaimed, Piece{Overlay: p.Overlay, Module: p.Module, Rect: x})
		}
	}

	for _, r := range claimers {
		info.Owned[r] = append(info.Owned[r], Piece{Overlay: p.Overlay, Module: p.Module, Rect: reps[r]})
	}
	if len(claimers) >= 2 {
		info.MultiClaimed = append(info.MultiClaimed, Claim{Piece: p, Regions: claimers, Representatives: reps})
	}
}

// Rebuild reassembles overlay modules from sliced pieces. Owned pieces move
// by their region's delta, unclaimed pieces stay, and adjacent rectangles
// with equal spans are coalesced.
func Rebuild(info ModuleSliceInfo, deltas map[string]geom.Vector) map[string]*layout.Overlay {
	shapes := make(map[[2]string][]geom.Rect)
	for r, pieces := range info.Owned {
		for _, p := range pieces {
			k := [2]string{p.Overlay, p.Module}
			shapes[k] = append(shapes[k], p.Rect.Translate(deltas[r]))
		}
	}
	for _, p := range info.Unclaimed {
		k := [2]string{p.Overlay, p.Module}
		shapes[k] = append(shapes[k], p.Rect)
	}

	out := make(map[string]*layout.Overlay)
	for k, rs := range shapes {
		o, ok := out[k[0]]
		if !ok {
			o = &layout.Overlay{ID: k[0], Modules: make(map[string]*layout.Module)}
			out[k[0]] = o
		}
		o.Modules[k[1]] = &layout.Module{ID: k[1], Shapes: Coalesce(rs)}
	}
	return out
}

// Coalesce merges rectangles that share a full edge until no pair does, and
// returns them sorted top to bottom, left to right.
func Coalesce(rs []geom.Rect) []geom.Rect {
	out := slices.Clone(rs)
	for merged := true; merged; {
		merged = false
	scan:
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if u, ok := join(out[i], out[j]); ok {
					out[i] = u
					out = slices.Delete(out, j, j+1)
					merged = true
					break scan
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b geom.Rect) int {
		switch {
		case a.Min.Y != b.Min.Y:
			return cmpFloat(a.Min.Y, b.Min.Y)
		default:
			return cmpFloat(a.Min.X, b.Min.X)
		}
	})
	return out
}

// join returns the union of a and b when they are adjacent or identical
// along one axis with equal spans on the other.
func join(a, b geom.Rect) (geom.Rect, bool) {
	sameY := a.Min.Y == b.Min.Y && a.Max.Y == b.Max.Y
	sameX := a.Min.X == b.Min.X && a.Max.X == b.Max.X
	switch {
	case sameY && a.Max.X >= b.Min.X && b.Max.X >= a.Min.X:
		return a.Union(b), true
	case sameX && a.Max.Y >= b.Min.Y && b.Max.Y >= a.Min.Y:
		return a.Union(b), true
	}
	return geom.Rect{}, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
