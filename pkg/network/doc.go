// Package network models the read-only facts the layout core needs about a
// hierarchical network diagram: nodes, directed links, and instances that
// partition occurrences of root nodes into named regions.
//
// # Overview
//
// A [Network] is a plain directed graph. Links may form cycles and a node may
// link to itself; the layout core only cares about which node launches a
// link (its source, which owns the link tree) and where it lands.
//
// An [Instance] is a derived view of the root network. Each instance node is
// an occurrence of a root node (its backing node) and belongs to exactly one
// [Region]. Use [Instance.View] to obtain a [Network] keyed by instance IDs;
// the layout core works on such views and never consults backing directly.
//
// # Regions
//
// Sibling regions never share nodes; [Instance.Validate] enforces this. A
// region defined as a subset of another region ([Region.IsVirtualSubset]) is
// a presentation device and is skipped by validation and by decomposition.
//
// # Concurrency
//
// Networks and instances are built by the caller and then only read by the
// core. Concurrent reads are safe; concurrent mutation is not.
package network
