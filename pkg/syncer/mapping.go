package syncer

import (
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
)

// mapping relates target layout IDs to source layout IDs for one direction.
type mapping struct {
	// net is the network keyed like the target layout. Routing and
	// decomposition run against it.
	net *network.Network

	nodes map[string]string // target node -> source node
	links map[string]string // target link -> source link

	// regions partitions the target nodes. Empty for upward
	// synchronization, where the root carries no regions.
	regions []*network.Region
}

func newMapping(dir Direction, in *network.Instance) mapping {
	m := mapping{nodes: make(map[string]string), links: make(map[string]string)}
	if dir == Down {
		m.net = in.View()
		for _, id := range in.NodeIDs() {
			n, _ := in.Node(id)
			m.nodes[id] = n.Backing
		}
		for _, id := range in.LinkIDs() {
			l, _ := in.Link(id)
			m.links[id] = l.Backing
		}
		for _, r := range in.Regions() {
			if !r.IsVirtualSubset() {
				m.regions = append(m.regions, r)
			}
		}
		return m
	}

	m.net = in.Root()
	for _, id := range m.net.NodeIDs() {
		if occ := in.Occurrences(id); len(occ) > 0 {
			m.nodes[id] = occ[0]
		}
	}
	// A root link takes its geometry from the occurrence joining the
	// occurrences its endpoints map to. Without one it stays in scope with
	// no source geometry.
	ids := in.LinkIDs()
	slices.Sort(ids)
	for _, id := range ids {
		l, _ := in.Link(id)
		if _, ok := m.links[l.Backing]; !ok {
			m.links[l.Backing] = ""
		}
		if m.links[l.Backing] != "" {
			continue
		}
		if rl, ok := m.net.Link(l.Backing); ok && m.nodes[rl.Source] == l.Source && m.nodes[rl.Target] == l.Target {
			m.links[l.Backing] = id
		}
	}
	return m
}

// targetNodes returns the mapped target node IDs, sorted.
func (m mapping) targetNodes() []string {
	return slices.Sorted(maps.Keys(m.nodes))
}

// seedNode copies the source properties of a target node, moved by v. ok is
// false when the source has no properties for it.
func (m mapping) seedNode(src *layout.Layout, id string, v geom.Vector) (layout.NodeProps, bool) {
	p, ok := src.Nodes[m.nodes[id]]
	if !ok {
		return layout.NodeProps{}, false
	}
	c := *p
	c.ID = id
	c.Location = c.Location.Add(v)
	return c, true
}

// seedLink copies the source path of a target link into dst, moved by v.
// It reports whether the link now has geometry. The path is copied only
// when both endpoints sit in dst exactly where their source counterparts
// sit moved by v, and the path starts at the existing tree start of its
// source.
func (m mapping) seedLink(src, dst *layout.Layout, id string, v geom.Vector) bool {
	lk, ok := m.net.Link(id)
	if !ok {
		return false
	}
	for _, n := range []string{lk.Source, lk.Target} {
		sp, ok := src.Nodes[m.nodes[n]]
		if !ok {
			return false
		}
		if dp, ok := dst.Nodes[n]; !ok || !dp.Location.Eq(sp.Location.Add(v)) {
			return false
		}
	}
	from := m.links[id]
	if from == "" {
		return false
	}
	path, err := src.LinkPath(from)
	if err != nil || len(path) == 0 {
		return false
	}
	for i := range path {
		path[i] = path[i].Add(v)
	}
	// Work on a copy of the tree so a rejected path leaves dst as it was.
	var t *layout.LinkTree
	if cur, ok := dst.Trees[lk.Source]; ok {
		t = cur.Clone()
		t.Remove(id)
		if t.Empty() {
			color := t.Color
			t = layout.NewTree(lk.Source, path[0])
			t.Color = color
		}
	} else {
		t = layout.NewTree(lk.Source, path[0])
	}
	if !t.Start.Eq(path[0]) {
		return false
	}
	if err := t.SetPath(id, path); err != nil {
		return false
	}
	if other, ok := dst.TreeOf(id); ok && other.Source != lk.Source {
		dst.RemoveLink(id)
	}
	dst.Trees[lk.Source] = t
	if st, ok := src.Trees[m.nodes[lk.Source]]; ok && t.Color == "" {
		t.Color = st.Color
	}
	return true
}

// prune drops from l every node and link the target network no longer has.
func (m mapping) prune(l *layout.Layout) {
	for _, id := range l.NodeIDs() {
		if !m.net.HasNode(id) {
			delete(l.Nodes, id)
		}
	}
	for _, id := range l.Links() {
		if _, ok := m.net.Link(id); !ok {
			l.RemoveLink(id)
		}
	}
	for _, src := range l.Sources() {
		if !m.net.HasNode(src) {
			for _, id := range l.Trees[src].Links() {
				l.RemoveLink(id)
			}
		}
	}
}
