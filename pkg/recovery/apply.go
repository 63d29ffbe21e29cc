package recovery

import (
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

// Apply installs reprojected link paths in l. Existing geometry for each
// recorded link is replaced. Links with an absent point, or whose path no
// longer attaches to its tree, are left without geometry and returned so
// the caller can route them.
func Apply(l *layout.Layout, trees Trees, rep *Reprojection) (unrouted []string) {
	for _, src := range trees.Sources() {
		rt := trees[src]
		for _, id := range rt.LinkIDs() {
			l.RemoveLink(id)
			path, err := rep.Path(rt.Links[id])
			if err != nil || len(path) < 2 {
				unrouted = append(unrouted, id)
				continue
			}
			t := l.Tree(src)
			if t.Empty() {
				t.Start = path[0]
			} else if !path[0].Eq(t.Start) {
				path = append([]geom.Point{t.Start}, path...)
			}
			path = Orthogonalize(path)
			if err := t.SetPath(id, path); err != nil {
				l.RemoveLink(id)
				unrouted = append(unrouted, id)
			}
		}
	}
	l.DropEmptyTrees()
	return unrouted
}

// Orthogonalize inserts an elbow into every diagonal run so the final leg
// of each run is horizontal, then drops redundant points.
func Orthogonalize(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(pts))
	for i, p := range pts {
		if i > 0 {
			a := out[len(out)-1]
			if !geom.Orthogonal(a, p) {
				out = append(out, geom.Pt(a.X, p.Y))
			}
		}
		out = append(out, p)
	}
	return layout.Simplify(out)
}
