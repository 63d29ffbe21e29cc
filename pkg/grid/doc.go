// Package grid implements the placement grid: a discretized occupancy map of
// node footprints and link geometry on multiples of [geom.GridUnit].
//
// Each grid point records the node covering it and, per source, which of its
// four arms that source's link tree uses. From the arms the grid can tell a
// straight pass-through from a corner or a path end, which is all the router
// and the color assigner need:
//
//   - two sources may share a grid point only when both pass straight
//     through on perpendicular axes
//   - link geometry may touch a node footprint only at the link's own pads
//   - a landing pad belongs to a single source
//
// [Grid.Check] evaluates a candidate path against these rules without
// changing the grid; [Grid.SetTree] records a tree's current geometry after
// it has been mutated. [Grid.BadRuns] lists conflicts already present, and
// [Grid.EmptyRows] and [Grid.EmptyColumns] find lines that can be removed to
// compress a layout.
package grid
