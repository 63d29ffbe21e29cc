package network

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Network.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Network.AddNode] when a node with
	// the same ID already exists in the network.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidLinkID is returned by [Network.AddLink] when the link ID is empty.
	ErrInvalidLinkID = errors.New("link ID must not be empty")

	// ErrDuplicateLinkID is returned by [Network.AddLink] when a link with the
	// same ID already exists.
	ErrDuplicateLinkID = errors.New("duplicate link ID")

	// ErrUnknownSourceNode is returned by [Network.AddLink] when the Source
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Network.AddLink] when the Target
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidLinkEndpoint is returned by [Network.Validate] when a link
	// references a node that doesn't exist.
	ErrInvalidLinkEndpoint = errors.New("invalid link endpoint")
)

// Metadata stores arbitrary key-value pairs attached to nodes, links or the
// network. Metadata maps are never nil after insertion.
type Metadata map[string]any

// Node is a vertex of the network diagram. Only identity and a display name
// are needed by the layout core; everything else lives in Meta.
type Node struct {
	ID   string   // Unique identifier
	Name string   // Display name (defaults to ID)
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// DisplayName returns Name if set, otherwise the ID.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Link is a directed connection from Source to Target. Self links are
// allowed; the network is a general digraph, cycles included.
type Link struct {
	ID     string   // Unique identifier
	Source string   // Source node ID
	Target string   // Target node ID
	Meta   Metadata // Arbitrary key-value metadata (never nil after AddLink)
}

// Network is the read-only graph the layout core consults: nodes and the
// links between them. It is built once by the caller and never mutated by
// the core.
//
// The zero value is not usable - use New to create a valid Network instance.
// Network is not safe for concurrent mutation; concurrent reads are fine.
type Network struct {
	nodes    map[string]*Node
	links    map[string]*Link
	order    []string            // link IDs in insertion order
	outgoing map[string][]string // nodeID -> outbound link IDs
	incoming map[string][]string // nodeID -> inbound link IDs
	meta     Metadata
}

// New creates an empty network with optional network-level metadata.
func New(meta Metadata) *Network {
	if meta == nil {
		meta = Metadata{}
	}
	return &Network{
		nodes:    make(map[string]*Node),
		links:    make(map[string]*Link),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the network-level metadata map.
func (g *Network) Meta() Metadata { return g.meta }

// AddNode adds a node. Returns ErrInvalidNodeID if the ID is empty, or
// ErrDuplicateNodeID if a node with the same ID already exists.
func (g *Network) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	return nil
}

// AddLink adds a directed link between two existing nodes.
func (g *Network) AddLink(l Link) error {
	if l.ID == "" {
		return ErrInvalidLinkID
	}
	if _, exists := g.links[l.ID]; exists {
		return ErrDuplicateLinkID
	}
	if _, ok := g.nodes[l.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[l.Target]; !ok {
		return ErrUnknownTargetNode
	}
	if l.Meta == nil {
		l.Meta = Metadata{}
	}
	link := &l
	g.links[l.ID] = link
	g.order = append(g.order, l.ID)
	g.outgoing[l.Source] = append(g.outgoing[l.Source], l.ID)
	g.incoming[l.Target] = append(g.incoming[l.Target], l.ID)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Network) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Link returns the link with the given ID and true, or nil and false.
func (g *Network) Link(id string) (*Link, bool) {
	l, ok := g.links[id]
	return l, ok
}

// HasNode reports whether the node exists.
func (g *Network) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeIDs returns all node IDs in sorted order.
func (g *Network) NodeIDs() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Links returns all links in insertion order. The returned pointers refer to
// the network's own links and must be treated as read-only.
func (g *Network) Links() []*Link {
	out := make([]*Link, len(g.order))
	for i, id := range g.order {
		out[i] = g.links[id]
	}
	return out
}

// LinkIDs returns all link IDs in insertion order.
func (g *Network) LinkIDs() []string { return slices.Clone(g.order) }

// NodeCount returns the number of nodes.
func (g *Network) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links.
func (g *Network) LinkCount() int { return len(g.links) }

// Outbound returns the IDs of links leaving the node. The slice must not be
// modified.
func (g *Network) Outbound(id string) []string { return g.outgoing[id] }

// Inbound returns the IDs of links entering the node. The slice must not be
// modified.
func (g *Network) Inbound(id string) []string { return g.incoming[id] }

// Sources returns the IDs of nodes that launch at least one link, sorted.
// Every such node owns exactly one link tree in a layout.
func (g *Network) Sources() []string {
	var out []string
	for id, links := range g.outgoing {
		if len(links) > 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Validate checks that every link references existing nodes.
func (g *Network) Validate() error {
	for _, id := range g.order {
		l := g.links[id]
		if _, ok := g.nodes[l.Source]; !ok {
			return ErrInvalidLinkEndpoint
		}
		if _, ok := g.nodes[l.Target]; !ok {
			return ErrInvalidLinkEndpoint
		}
	}
	return nil
}

// Clone returns a deep copy of the network structure. Metadata maps are
// copied shallowly.
func (g *Network) Clone() *Network {
	out := New(maps.Clone(g.meta))
	for _, id := range g.NodeIDs() {
		n := *g.nodes[id]
		n.Meta = maps.Clone(n.Meta)
		_ = out.AddNode(n)
	}
	for _, id := range g.order {
		l := *g.links[id]
		l.Meta = maps.Clone(l.Meta)
		_ = out.AddLink(l)
	}
	return out
}
