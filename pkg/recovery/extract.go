package recovery

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/region"
)

// ExtractParams describes the geometry to record.
type ExtractParams struct {
	// Old is the layout holding the current cross-region geometry.
	Old *layout.Layout

	// Bounds are the region bounds the geometry was drawn against.
	Bounds map[string]geom.Rect

	CrossLinks []region.CrossLink

	// Intact lists sources whose trees survive the sync unchanged. Corners
	// on their geometry are recorded as fixed points.
	Intact []string

	// Exemptions lists links whose interior corners move rigidly with the
	// source node instead of being classified.
	Exemptions map[string]bool
}

// Extract records every cross-region link of p.Old as recovery points.
// Links without geometry in p.Old are skipped; they need routing.
func Extract(p ExtractParams) (Trees, error) {
	out := make(Trees)
	intact := make([]string, 0, len(p.Intact))
	for _, src := range p.Intact {
		if _, ok := p.Old.Trees[src]; ok {
			intact = append(intact, src)
		}
	}
	slices.Sort(intact)

	for _, cl := range p.CrossLinks {
		t, ok := p.Old.TreeOf(cl.ID)
		if !ok {
			continue
		}
		path, err := t.Path(cl.ID)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", cl.ID, err)
		}
		rec := &LinkRecovery{
			Link:         cl.ID,
			Target:       cl.Target,
			SourceRegion: cl.SourceRegion,
			TargetRegion: cl.TargetRegion,
			LastInside:   lastInside(path, p.Bounds[cl.SourceRegion]),
		}
		for i, pt := range path {
			rec.Points = append(rec.Points, classify(p, intact, cl, path, i, pt))
		}

		tree, ok := out[t.Source]
		if !ok {
			tree = &Tree{Source: t.Source, Links: make(map[string]*LinkRecovery)}
			out[t.Source] = tree
		}
		tree.Links[cl.ID] = rec
	}
	return out, nil
}

func classify(p ExtractParams, intact []string, cl region.CrossLink, path []geom.Point, i int, pt geom.Point) Point {
	last := len(path) - 1
	anchor := func(node string) Point {
		n := p.Old.Nodes[node]
		var off geom.Vector
		if n != nil {
			off = pt.Sub(n.Location)
		}
		return Point{Mode: ModeNodeAnchored, Anchor: &NodeAnchor{Node: node, Offset: off}, Original: pt}
	}

	switch {
	case i == 0:
		return anchor(cl.Source)
	case i == last:
		return anchor(cl.Target)
	case p.Exemptions[cl.ID]:
		return anchor(cl.Source)
	}

	var out Point
	if ref, ok := fixedRef(p.Old, intact, cl.Source, pt); ok {
		out = Point{Mode: ModeFixed, Fixed: ref, Original: pt}
	} else if node, ok := nearNode(p.Old, pt, cl.Source, cl.Target); ok {
		out = anchor(node)
	} else {
		reg := NearestRegion(pt, p.Bounds, cl.SourceRegion, cl.TargetRegion)
		side, frac, off := p.Bounds[reg].Project(pt)
		out = Point{
			Mode:     ModeRegionRelative,
			Region:   &RegionRef{Region: reg, Side: side, Fraction: frac, Offset: off, Approx: approxAxis(path[i-1], pt)},
			Original: pt,
		}
	}
	out.Synthetic = pt.Eq(path[i-1])
	return out
}

// approxAxis returns the axis shared by the run prev-pt.
func approxAxis(prev, pt geom.Point) geom.Axis {
	d, ok := geom.Heading(prev, pt)
	if !ok {
		return geom.AxisNone
	}
	return d.Axis().Other()
}

func fixedRef(old *layout.Layout, intact []string, source string, pt geom.Point) (*FixedRef, bool) {
	for _, src := range intact {
		if src == source {
			continue
		}
		t := old.Trees[src]
		for _, link := range t.Links() {
			path, err := t.Path(link)
			if err != nil {
				continue
			}
			for j := 0; j+1 < len(path); j++ {
				if f, on := geom.OnSegment(pt, path[j], path[j+1]); on {
					return &FixedRef{Source: src, Link: link, Segment: j, Fraction: f}, true
				}
			}
		}
	}
	return nil, false
}

func nearNode(old *layout.Layout, pt geom.Point, nodes ...string) (string, bool) {
	for _, id := range nodes {
		if n, ok := old.Nodes[id]; ok && n.Rect().Distance(pt) <= AnchorRadius {
			return id, true
		}
	}
	return "", false
}

// NearestRegion returns the region whose bounds contain pt, or else the one
// nearest to it. Ties go to the preferred regions in order, then to the
// smallest region ID.
func NearestRegion(pt geom.Point, bounds map[string]geom.Rect, prefer ...string) string {
	best, bestD := "", 0.0
	better := func(id string, d float64) bool {
		if best == "" || d < bestD {
			return true
		}
		if d > bestD {
			return false
		}
		for _, p := range prefer {
			if best == p {
				return false
			}
			if id == p {
				return true
			}
		}
		return id < best
	}
	for _, id := range slices.Sorted(maps.Keys(bounds)) {
		d := bounds[id].Distance(pt)
		if better(id, d) {
			best, bestD = id, d
		}
	}
	return best
}

// LastInside returns the last point of the leading run of the link's path
// that lies inside bounds, where a rebuilt source region hands over to
// recovered geometry. ok is false when the path starts outside.
func LastInside(t *layout.LinkTree, link string, bounds geom.Rect) (pt geom.Point, index int, ok bool) {
	path, err := t.Path(link)
	if err != nil {
		return geom.Point{}, -1, false
	}
	i := lastInside(path, bounds)
	if i < 0 {
		return geom.Point{}, -1, false
	}
	return path[i], i, true
}

func lastInside(path []geom.Point, bounds geom.Rect) int {
	i := -1
	for j, p := range path {
		if !bounds.Contains(p) {
			break
		}
		i = j
	}
	return i
}
