// Package layout holds the geometric state of a network diagram: where nodes
// sit, how links are drawn, and the visual properties of regions and overlay
// modules.
//
// # Link Trees
//
// All links launched by one source node share a single [LinkTree]. The tree
// starts at the source's launch pad and is made of straight [Segment] runs;
// each segment starts where its parent ends. A link owns exactly one drop
// segment, and its path is the chain of segments from the root down to that
// drop:
//
//	t := layout.NewTree("n1", geom.Pt(20, 0))
//	t.Graft("l1", []geom.Point{geom.Pt(20, 0), geom.Pt(60, 0), geom.Pt(60, 40)})
//	t.Graft("l2", []geom.Point{geom.Pt(60, 0), geom.Pt(100, 0)})
//
// Grafting at an interior point splits the carrying segment, so siblings
// share their common bus. [LinkTree.Remove] prunes segments no remaining link
// uses and merges the straight pass-through vertices left behind.
//
// # Layouts
//
// A [Layout] maps node IDs to [NodeProps], source IDs to link trees, region
// IDs to [GroupProps] and overlay IDs to module shapes. Every link belongs to
// exactly one tree; [Layout.Validate] checks it.
//
// Layouts handed to the core by a caller are treated as owned values: work
// happens on [Layout.Clone] copies, and results are published only through
// [Layout.ReplaceContents] or [Layout.MergeRegion].
package layout
