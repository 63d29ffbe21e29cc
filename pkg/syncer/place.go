package syncer

import (
	"math"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

// maxNudge bounds the grid steps place tries before giving up.
const maxNudge = 1000

// place moves p right in grid steps until its footprint, with one grid unit
// of clearance, overlaps no other node of l.
func place(l *layout.Layout, p layout.NodeProps) layout.NodeProps {
	for range maxNudge {
		if !blocked(l, p) {
			return p
		}
		p.Location = p.Location.Add(geom.Vector{DX: geom.GridUnit})
	}
	return p
}

func blocked(l *layout.Layout, p layout.NodeProps) bool {
	r := p.Rect().Inset(geom.GridUnit)
	for id, n := range l.Nodes {
		if id != p.ID && r.Overlaps(n.Rect()) {
			return true
		}
	}
	return false
}

// offset returns how far the target has moved the neighborhood of a new
// node: the displacement of the existing node nearest to it in the source,
// among nodes of the same region. Ties go to the smallest ID. The zero
// vector is returned when no such node exists.
func (j *job) offset(l *layout.Layout, id string) geom.Vector {
	sp, ok := j.req.Source.Nodes[j.m.nodes[id]]
	if !ok {
		return geom.Vector{}
	}
	reg := j.regionOf(id)
	var (
		best  geom.Vector
		bestD = math.Inf(1)
	)
	for _, other := range l.NodeIDs() {
		if other == id || j.regionOf(other) != reg {
			continue
		}
		op, ok := j.req.Source.Nodes[j.m.nodes[other]]
		if !ok {
			continue
		}
		if d := op.Location.Manhattan(sp.Location); d < bestD {
			best, bestD = l.Nodes[other].Location.Sub(op.Location), d
		}
	}
	return best.Snap()
}

// regionOf returns the region of a target node, "" when the target has no
// regions.
func (j *job) regionOf(id string) string {
	if j.req.Direction == Up {
		return ""
	}
	return j.req.Instance.RegionOf(id)
}

// attached reports whether the geometry of a link still meets its
// endpoints: the tree starts at the launch pad of the source and the path
// ends on the footprint of the target.
func (j *job) attached(l *layout.Layout, id string) bool {
	lk, ok := j.m.net.Link(id)
	if !ok {
		return false
	}
	src, ok1 := l.Nodes[lk.Source]
	tgt, ok2 := l.Nodes[lk.Target]
	t, ok3 := l.TreeOf(id)
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	if !t.Start.Eq(src.LaunchPad()) {
		return false
	}
	path, err := t.Path(id)
	if err != nil || len(path) < 2 {
		return false
	}
	return tgt.Rect().Snap().Distance(path[len(path)-1]) == 0
}
