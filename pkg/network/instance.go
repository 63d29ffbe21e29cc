package network

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrUnknownBacking is returned when an instance node or link refers to a
	// root element that does not exist.
	ErrUnknownBacking = errors.New("unknown backing element")

	// ErrRegionOverlap is returned by [Instance.Validate] when a node is a
	// member of two sibling regions.
	ErrRegionOverlap = errors.New("node belongs to more than one region")

	// ErrUnknownRegion is returned when a region ID is not defined.
	ErrUnknownRegion = errors.New("unknown region")
)

// Region is a named set of nodes within one instance. Sibling regions at the
// same hierarchy level never share nodes.
//
// A region with SubsetOf set is a virtual subset: a view of part of another
// region rather than a partition in its own right. The layout core never
// decomposes virtual subsets.
type Region struct {
	ID       string
	Name     string
	SubsetOf string
	Members  map[string]bool
}

// NewRegion builds a region from member node IDs.
func NewRegion(id string, members ...string) *Region {
	r := &Region{ID: id, Members: make(map[string]bool, len(members))}
	for _, m := range members {
		r.Members[m] = true
	}
	return r
}

// Has reports whether the node is a member.
func (r *Region) Has(node string) bool { return r.Members[node] }

// IsVirtualSubset reports whether the region is defined as a subset of
// another region.
func (r *Region) IsVirtualSubset() bool { return r.SubsetOf != "" }

// MemberIDs returns the member node IDs in sorted order.
func (r *Region) MemberIDs() []string { return slices.Sorted(maps.Keys(r.Members)) }

// Clone returns an independent copy.
func (r *Region) Clone() *Region {
	out := *r
	out.Members = maps.Clone(r.Members)
	return &out
}

// InstanceNode is one occurrence of a root node inside an instance.
type InstanceNode struct {
	ID      string `json:"id"`
	Backing string `json:"backing"` // root node ID
	Region  string `json:"region"`
}

// InstanceLink is one occurrence of a root link inside an instance.
type InstanceLink struct {
	ID      string `json:"id"`
	Backing string `json:"backing"` // root link ID
	Source  string `json:"source"`  // instance node ID
	Target  string `json:"target"`  // instance node ID
}

// Instance is a derived view of the root network. Its nodes are occurrences
// of root nodes, partitioned into regions; a root node may occur several
// times in one instance, in the same or different regions.
type Instance struct {
	ID     string
	Parent string // parent instance ID, "" for children of the root

	nodes   map[string]InstanceNode
	links   map[string]InstanceLink
	order   []string
	regions map[string]*Region
	root    *Network
}

// NewInstance creates an empty instance of root.
func NewInstance(id string, root *Network) *Instance {
	return &Instance{
		ID:      id,
		nodes:   make(map[string]InstanceNode),
		links:   make(map[string]InstanceLink),
		regions: make(map[string]*Region),
		root:    root,
	}
}

// Root returns the backing root network.
func (in *Instance) Root() *Network { return in.root }

// AddRegion registers a region. Members are filled in by AddNode.
func (in *Instance) AddRegion(r *Region) error {
	if r.ID == "" {
		return fmt.Errorf("add region: %w", ErrInvalidNodeID)
	}
	if _, ok := in.regions[r.ID]; ok {
		return fmt.Errorf("add region %s: duplicate", r.ID)
	}
	if r.Members == nil {
		r.Members = make(map[string]bool)
	}
	in.regions[r.ID] = r
	return nil
}

// AddNode adds an occurrence of a root node to a region.
func (in *Instance) AddNode(n InstanceNode) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := in.nodes[n.ID]; ok {
		return ErrDuplicateNodeID
	}
	if !in.root.HasNode(n.Backing) {
		return fmt.Errorf("node %s backing %s: %w", n.ID, n.Backing, ErrUnknownBacking)
	}
	r, ok := in.regions[n.Region]
	if !ok {
		return fmt.Errorf("node %s region %s: %w", n.ID, n.Region, ErrUnknownRegion)
	}
	in.nodes[n.ID] = n
	r.Members[n.ID] = true
	return nil
}

// AddLink adds an occurrence of a root link between two instance nodes.
func (in *Instance) AddLink(l InstanceLink) error {
	if l.ID == "" {
		return ErrInvalidLinkID
	}
	if _, ok := in.links[l.ID]; ok {
		return ErrDuplicateLinkID
	}
	if _, ok := in.root.Link(l.Backing); !ok {
		return fmt.Errorf("link %s backing %s: %w", l.ID, l.Backing, ErrUnknownBacking)
	}
	if _, ok := in.nodes[l.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := in.nodes[l.Target]; !ok {
		return ErrUnknownTargetNode
	}
	in.links[l.ID] = l
	in.order = append(in.order, l.ID)
	return nil
}

// Node returns the instance node with the given ID.
func (in *Instance) Node(id string) (InstanceNode, bool) {
	n, ok := in.nodes[id]
	return n, ok
}

// Link returns the instance link with the given ID.
func (in *Instance) Link(id string) (InstanceLink, bool) {
	l, ok := in.links[id]
	return l, ok
}

// NodeIDs returns instance node IDs in sorted order.
func (in *Instance) NodeIDs() []string { return slices.Sorted(maps.Keys(in.nodes)) }

// LinkIDs returns instance link IDs in insertion order.
func (in *Instance) LinkIDs() []string { return slices.Clone(in.order) }

// Region returns the region with the given ID.
func (in *Instance) Region(id string) (*Region, bool) {
	r, ok := in.regions[id]
	return r, ok
}

// Regions returns all regions sorted by ID.
func (in *Instance) Regions() []*Region {
	out := make([]*Region, 0, len(in.regions))
	for _, id := range slices.Sorted(maps.Keys(in.regions)) {
		out = append(out, in.regions[id])
	}
	return out
}

// RegionOf returns the region holding the instance node.
func (in *Instance) RegionOf(node string) string { return in.nodes[node].Region }

// Occurrences returns the instance node IDs backed by the root node, sorted.
func (in *Instance) Occurrences(rootNode string) []string {
	var out []string
	for id, n := range in.nodes {
		if n.Backing == rootNode {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// SingleOccurrence reports whether every region holds at most one occurrence
// of each backing root node. Only then is a pure property copy between the
// root and the instance well defined.
func (in *Instance) SingleOccurrence() bool {
	seen := make(map[[2]string]bool, len(in.nodes))
	for _, n := range in.nodes {
		key := [2]string{n.Region, n.Backing}
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// View returns the instance as a Network keyed by instance IDs. The layout
// core operates on views so it never needs to know about backing.
func (in *Instance) View() *Network {
	g := New(Metadata{"instance": in.ID})
	for _, id := range in.NodeIDs() {
		n := in.nodes[id]
		name := n.Backing
		if rn, ok := in.root.Node(n.Backing); ok {
			name = rn.DisplayName()
		}
		_ = g.AddNode(Node{ID: id, Name: name, Meta: Metadata{"backing": n.Backing, "region": n.Region}})
	}
	for _, id := range in.order {
		l := in.links[id]
		_ = g.AddLink(Link{ID: id, Source: l.Source, Target: l.Target, Meta: Metadata{"backing": l.Backing}})
	}
	return g
}

// Validate checks that regions are disjoint and that every node and link
// resolves against the root network.
func (in *Instance) Validate() error {
	owner := make(map[string]string)
	for _, r := range in.Regions() {
		if r.IsVirtualSubset() {
			if _, ok := in.regions[r.SubsetOf]; !ok {
				return fmt.Errorf("region %s subset of %s: %w", r.ID, r.SubsetOf, ErrUnknownRegion)
			}
			continue
		}
		for m := range r.Members {
			if prev, ok := owner[m]; ok {
				return fmt.Errorf("node %s in %s and %s: %w", m, prev, r.ID, ErrRegionOverlap)
			}
			owner[m] = r.ID
		}
	}
	for id, n := range in.nodes {
		if !in.root.HasNode(n.Backing) {
			return fmt.Errorf("node %s: %w", id, ErrUnknownBacking)
		}
	}
	for _, id := range in.order {
		l := in.links[id]
		if _, ok := in.root.Link(l.Backing); !ok {
			return fmt.Errorf("link %s: %w", id, ErrUnknownBacking)
		}
	}
	return nil
}

// Model is the full hierarchy: the root network and its instances.
type Model struct {
	Root      *Network
	Instances map[string]*Instance
}

// Instance returns the instance with the given ID.
func (m *Model) Instance(id string) (*Instance, bool) {
	in, ok := m.Instances[id]
	return in, ok
}

// Parent returns the parent instance, or nil for top-level instances.
func (m *Model) Parent(in *Instance) *Instance {
	if in.Parent == "" {
		return nil
	}
	return m.Instances[in.Parent]
}
