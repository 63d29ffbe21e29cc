// Package geom provides the small amount of planar geometry the layout core
// needs: points, vectors, axis-aligned rectangles and the layout grid.
//
// All layout coordinates are float64 values in layout space with Y growing
// downward. Committed geometry lives on multiples of [GridUnit]; use
// [Point.Snap] and [Rect.Snap] after any fractional arithmetic.
//
// [Rect.Project] and [Rect.Unproject] convert between absolute points and
// boundary-relative coordinates (side, fraction along the side, outward
// offset). Cross-region link recovery relies on the pair being exact
// inverses for unchanged rectangles.
package geom
