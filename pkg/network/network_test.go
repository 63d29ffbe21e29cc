package network

import (
	"errors"
	"slices"
	"testing"
)

func buildChain(t *testing.T) *Network {
	t.Helper()
	g := New(nil)
	for _, id := range []string{"a", "b", "c"} {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s) error = %v", id, err)
		}
	}
	if err := g.AddLink(Link{ID: "ab", Source: "a", Target: "b"}); err != nil {
		t.Fatalf("AddLink(ab) error = %v", err)
	}
	if err := g.AddLink(Link{ID: "ac", Source: "a", Target: "c"}); err != nil {
		t.Fatalf("AddLink(ac) error = %v", err)
	}
	if err := g.AddLink(Link{ID: "ca", Source: "c", Target: "a"}); err != nil {
		t.Fatalf("AddLink(ca) error = %v", err)
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) error = %v, want %v", err, ErrInvalidNodeID)
	}
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) error = %v, want %v", err, ErrDuplicateNodeID)
	}
	if n, _ := g.Node("a"); n.Meta == nil {
		t.Error("AddNode() left Meta nil")
	}
}

func TestAddLinkErrors(t *testing.T) {
	g := buildChain(t)
	tests := []struct {
		name string
		link Link
		want error
	}{
		{"empty id", Link{Source: "a", Target: "b"}, ErrInvalidLinkID},
		{"duplicate", Link{ID: "ab", Source: "a", Target: "b"}, ErrDuplicateLinkID},
		{"unknown source", Link{ID: "x", Source: "zz", Target: "b"}, ErrUnknownSourceNode},
		{"unknown target", Link{ID: "y", Source: "a", Target: "zz"}, ErrUnknownTargetNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddLink(tt.link); !errors.Is(err, tt.want) {
				t.Errorf("AddLink() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAdjacency(t *testing.T) {
	g := buildChain(t)
	if got := g.Outbound("a"); !slices.Equal(got, []string{"ab", "ac"}) {
		t.Errorf("Outbound(a) = %v, want [ab ac]", got)
	}
	if got := g.Inbound("a"); !slices.Equal(got, []string{"ca"}) {
		t.Errorf("Inbound(a) = %v, want [ca]", got)
	}
	if got := g.Sources(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("Sources() = %v, want [a c]", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestClone(t *testing.T) {
	g := buildChain(t)
	c := g.Clone()
	if c.NodeCount() != 3 || c.LinkCount() != 3 {
		t.Fatalf("Clone() = %d nodes %d links, want 3/3", c.NodeCount(), c.LinkCount())
	}
	_ = c.AddNode(Node{ID: "d"})
	if g.HasNode("d") {
		t.Error("Clone() shares node storage with the original")
	}
	if !slices.Equal(c.LinkIDs(), g.LinkIDs()) {
		t.Errorf("Clone() link order = %v, want %v", c.LinkIDs(), g.LinkIDs())
	}
}
