package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
)

// RootLayout is the Layouts key of the root network's layout.
const RootLayout = "root"

// =============================================================================
// Document - Project Serialization
// =============================================================================

// Document is the canonical serialization format for a project.
// Used for files, API requests, and cache keys.
type Document struct {
	Network   Network                   `json:"network"`
	Instances []Instance                `json:"instances,omitempty"`
	Layouts   map[string]*layout.Layout `json:"layouts,omitempty"`
}

// Network is the node-link form of the root network.
type Network struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is a root network node.
type Node struct {
	ID   string         `json:"id"`
	Name string         `json:"name,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Link is a directed root network link.
type Link struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Instance is a derived view of the root network. Region membership is
// carried by the nodes.
type Instance struct {
	ID      string                 `json:"id"`
	Parent  string                 `json:"parent,omitempty"`
	Regions []Region               `json:"regions"`
	Nodes   []network.InstanceNode `json:"nodes"`
	Links   []network.InstanceLink `json:"links"`
}

// Region is an instance region. Members are listed only for virtual
// subsets; partition regions take their members from the nodes.
type Region struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	SubsetOf string   `json:"subset_of,omitempty"`
	Members  []string `json:"members,omitempty"`
}

// Layout returns the layout stored under id.
func (d *Document) Layout(id string) (*layout.Layout, bool) {
	l, ok := d.Layouts[id]
	return l, ok && l != nil
}

// SetLayout stores l under id, creating the map on first use.
func (d *Document) SetLayout(id string, l *layout.Layout) {
	if d.Layouts == nil {
		d.Layouts = make(map[string]*layout.Layout)
	}
	d.Layouts[id] = l
}

// =============================================================================
// Model ↔ Document Conversion
// =============================================================================

// Validate checks that the network and instances build a model and that
// every layout is present and well formed.
func (d *Document) Validate() error {
	if _, err := d.Model(); err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(d.Layouts)) {
		l := d.Layouts[id]
		if l == nil {
			return fmt.Errorf("layout %s: empty", id)
		}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("layout %s: %w", id, err)
		}
	}
	return nil
}

// FromModel converts a model and its layouts to a document.
// Nodes, instances and regions are sorted by ID for deterministic output;
// links keep insertion order.
func FromModel(m *network.Model, layouts map[string]*layout.Layout) Document {
	out := Document{Layouts: maps.Clone(layouts)}
	if m.Root != nil {
		for _, id := range m.Root.NodeIDs() {
			n, _ := m.Root.Node(id)
			out.Network.Nodes = append(out.Network.Nodes, Node{ID: n.ID, Name: n.Name, Meta: copyMeta(n.Meta)})
		}
		for _, l := range m.Root.Links() {
			out.Network.Links = append(out.Network.Links, Link{ID: l.ID, Source: l.Source, Target: l.Target, Meta: copyMeta(l.Meta)})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(m.Instances)) {
		out.Instances = append(out.Instances, instanceFromModel(m.Instances[id]))
	}
	return out
}

// Model builds the root network and instances. Returns an error when an ID
// is duplicated or a reference is dangling.
func (d *Document) Model() (*network.Model, error) {
	root := network.New(nil)
	for _, n := range d.Network.Nodes {
		if err := root.AddNode(network.Node{ID: n.ID, Name: n.Name, Meta: copyMeta(n.Meta)}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, l := range d.Network.Links {
		if err := root.AddLink(network.Link{ID: l.ID, Source: l.Source, Target: l.Target, Meta: copyMeta(l.Meta)}); err != nil {
			return nil, fmt.Errorf("add link %s (%s→%s): %w", l.ID, l.Source, l.Target, err)
		}
	}

	m := &network.Model{Root: root, Instances: make(map[string]*network.Instance, len(d.Instances))}
	for _, ij := range d.Instances {
		if _, dup := m.Instances[ij.ID]; dup || ij.ID == "" || ij.ID == RootLayout {
			return nil, fmt.Errorf("instance %q: invalid or duplicate id", ij.ID)
		}
		in, err := instanceToModel(ij, root)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", ij.ID, err)
		}
		m.Instances[in.ID] = in
	}
	for _, in := range m.Instances {
		if in.Parent != "" && m.Instances[in.Parent] == nil {
			return nil, fmt.Errorf("instance %s: unknown parent %s", in.ID, in.Parent)
		}
	}
	return m, nil
}

func instanceFromModel(in *network.Instance) Instance {
	out := Instance{ID: in.ID, Parent: in.Parent}
	for _, r := range in.Regions() {
		rj := Region{ID: r.ID, Name: r.Name, SubsetOf: r.SubsetOf}
		if r.IsVirtualSubset() {
			rj.Members = r.MemberIDs()
		}
		out.Regions = append(out.Regions, rj)
	}
	for _, id := range in.NodeIDs() {
		n, _ := in.Node(id)
		out.Nodes = append(out.Nodes, n)
	}
	for _, id := range in.LinkIDs() {
		l, _ := in.Link(id)
		out.Links = append(out.Links, l)
	}
	return out
}

func instanceToModel(ij Instance, root *network.Network) (*network.Instance, error) {
	in := network.NewInstance(ij.ID, root)
	in.Parent = ij.Parent
	for _, r := range ij.Regions {
		var reg *network.Region
		if r.SubsetOf != "" {
			reg = network.NewRegion(r.ID, r.Members...)
		} else {
			reg = network.NewRegion(r.ID)
		}
		reg.Name = r.Name
		reg.SubsetOf = r.SubsetOf
		if err := in.AddRegion(reg); err != nil {
			return nil, err
		}
	}
	for _, n := range ij.Nodes {
		if err := in.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, l := range ij.Links {
		if err := in.AddLink(l); err != nil {
			return nil, fmt.Errorf("add link %s: %w", l.ID, err)
		}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}
