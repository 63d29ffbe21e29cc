// Package recovery captures cross-region link geometry in a form that
// survives regions moving and resizing, and replays it afterwards.
//
// [Extract] walks every cross-region link path and records each corner as a
// recovery [Point] in one of three modes:
//
//   - fixed: the corner lies on a link of another source whose tree stays
//     intact, and follows that link
//   - node-anchored: the corner is the launch or landing point, or lies
//     within [AnchorRadius] of the source or target node, and keeps its
//     offset from that node
//   - region-relative: the corner keeps its fractional position along the
//     nearest side of the region containing it (or the nearest region)
//
// [Reproject] resolves the points against new region bounds and node
// locations, and [Apply] rebuilds the link trees from them. A point whose
// region vanished is reported in [Reprojection.Absent]; its link is left for
// the router instead of being drawn with a guessed position.
package recovery
