// Package region splits a layout into independent per-region parts.
//
// [Decompose] copies each region's member node properties, prunes link trees
// to the links whose endpoints both lie in the region, and records the
// region's grid-snapped bounds. Links between regions are returned as
// [CrossLink] values for the recovery and merge stages.
//
// # Overlay Modules
//
// With [config.OverlayRelayout], module shapes are cut at region bounds:
//
//   - a piece inside one region is owned by it and moves with it
//   - a piece outside every region is unclaimed and stays put
//   - a shape spanning several regions is multi-claimed; each claiming
//     region owns the part of the shape inside its bounds
//
// [Rebuild] reassembles modules after the regions have moved and coalesces
// adjacent pieces back into larger rectangles.
package region
