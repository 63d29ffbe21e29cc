package recovery

import (
	"fmt"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

// Frame is the geometry recovery points are resolved against.
type Frame struct {
	// Bounds holds the new bounds of every live region. A region missing
	// here has vanished.
	Bounds map[string]geom.Rect

	// Layout supplies new node locations and the geometry of intact trees.
	Layout *layout.Layout
}

// Reprojection holds resolved point locations. Every recorded point appears
// in exactly one of Points and Absent.
type Reprojection struct {
	Points map[Key]geom.Point
	Absent map[Key]error
}

// Path returns the resolved points of a link in path order. It fails with
// the first absent point's error.
func (r *Reprojection) Path(rec *LinkRecovery) ([]geom.Point, error) {
	out := make([]geom.Point, 0, len(rec.Points))
	for i := range rec.Points {
		k := Key{Link: rec.Link, Index: i}
		if err, ok := r.Absent[k]; ok {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out = append(out, r.Points[k])
	}
	return out, nil
}

// Reproject resolves every recorded point against f. Fixed points follow
// their referenced link, node-anchored points keep their node offset, and
// region-relative points keep their side fraction and normal offset, copy
// their approximate axis from the previous point and snap to the grid.
// Points that cannot be resolved are reported in Absent rather than failing
// the whole run.
func Reproject(trees Trees, f Frame) *Reprojection {
	out := &Reprojection{
		Points: make(map[Key]geom.Point),
		Absent: make(map[Key]error),
	}
	for _, src := range trees.Sources() {
		t := trees[src]
		for _, id := range t.LinkIDs() {
			rec := t.Links[id]
			var prev geom.Point
			prevOK := false
			for i, p := range rec.Points {
				k := Key{Link: id, Index: i}
				q, err := resolve(p, f, prev, prevOK)
				if err != nil {
					out.Absent[k] = err
					prevOK = false
					continue
				}
				out.Points[k] = q
				prev, prevOK = q, true
			}
		}
	}
	return out
}

func resolve(p Point, f Frame, prev geom.Point, prevOK bool) (geom.Point, error) {
	if p.Synthetic && prevOK {
		return prev, nil
	}
	switch p.Mode {
	case ModeFixed:
		ref := p.Fixed
		t, ok := f.Layout.Trees[ref.Source]
		if !ok {
			return geom.Point{}, fmt.Errorf("%s: %w", ref.Link, ErrReferenceLost)
		}
		path, err := t.Path(ref.Link)
		if err != nil || ref.Segment+1 >= len(path) {
			return geom.Point{}, fmt.Errorf("%s: %w", ref.Link, ErrReferenceLost)
		}
		return geom.Lerp(path[ref.Segment], path[ref.Segment+1], ref.Fraction).Snap(), nil

	case ModeNodeAnchored:
		n, ok := f.Layout.Nodes[p.Anchor.Node]
		if !ok {
			return geom.Point{}, fmt.Errorf("%s: %w", p.Anchor.Node, ErrNodeMissing)
		}
		return n.Location.Add(p.Anchor.Offset).Snap(), nil

	case ModeRegionRelative:
		ref := p.Region
		b, ok := f.Bounds[ref.Region]
		if !ok {
			return geom.Point{}, fmt.Errorf("%s: %w", ref.Region, ErrRegionVanished)
		}
		q := b.Unproject(ref.Side, ref.Fraction, ref.Offset)
		if ref.Approx != geom.AxisNone && prevOK {
			q = q.With(ref.Approx, prev.Get(ref.Approx))
		}
		return q.Snap(), nil
	}
	return geom.Point{}, fmt.Errorf("recovery point at %v: unknown mode %d", p.Original, p.Mode)
}
