package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle. Min is the top-left corner, Max the
// bottom-right; Y grows downward.
type Rect struct {
	Min Point `json:"min" bson:"min"`
	Max Point `json:"max" bson:"max"`
}

// R builds a rectangle from its corner coordinates, normalizing the order.
func R(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Min: Point{X: math.Min(x0, x1), Y: math.Min(y0, y1)},
		Max: Point{X: math.Max(x0, x1), Y: math.Max(y0, y1)},
	}
}

// RectAround returns the zero-size rectangle at p.
func RectAround(p Point) Rect { return Rect{Min: p, Max: p} }

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Size returns the extent as a vector.
func (r Rect) Size() Vector { return Vector{DX: r.Width(), DY: r.Height()} }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width() <= eps || r.Height() <= eps }

// Contains reports whether p lies inside r or on its boundary.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X-eps && p.X <= r.Max.X+eps &&
		p.Y >= r.Min.Y-eps && p.Y <= r.Max.Y+eps
}

// Union returns the smallest rectangle covering r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, s.Min.X), Y: math.Min(r.Min.Y, s.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, s.Max.X), Y: math.Max(r.Max.Y, s.Max.Y)},
	}
}

// Extend grows r to cover p.
func (r Rect) Extend(p Point) Rect { return r.Union(RectAround(p)) }

// Intersect returns the overlap of r and s; ok is false when they do not
// share any area.
func (r Rect) Intersect(s Rect) (Rect, bool) {
	out := Rect{
		Min: Point{X: math.Max(r.Min.X, s.Min.X), Y: math.Max(r.Min.Y, s.Min.Y)},
		Max: Point{X: math.Min(r.Max.X, s.Max.X), Y: math.Min(r.Max.Y, s.Max.Y)},
	}
	if out.Empty() {
		return Rect{}, false
	}
	return out, true
}

// Overlaps reports whether r and s share area.
func (r Rect) Overlaps(s Rect) bool {
	_, ok := r.Intersect(s)
	return ok
}

// Inset grows r by d on every side (shrinks for negative d).
func (r Rect) Inset(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

// Translate moves r by v.
func (r Rect) Translate(v Vector) Rect { return Rect{Min: r.Min.Add(v), Max: r.Max.Add(v)} }

// Snap rounds the corners outward to the grid so the snapped rectangle still
// covers r.
func (r Rect) Snap() Rect {
	return Rect{
		Min: Point{X: math.Floor(r.Min.X/GridUnit+eps) * GridUnit, Y: math.Floor(r.Min.Y/GridUnit+eps) * GridUnit},
		Max: Point{X: math.Ceil(r.Max.X/GridUnit-eps) * GridUnit, Y: math.Ceil(r.Max.Y/GridUnit-eps) * GridUnit},
	}
}

// Subtract returns the parts of r not covered by s, as at most four
// rectangles (top, bottom, left, right bands).
func (r Rect) Subtract(s Rect) []Rect {
	in, ok := r.Intersect(s)
	if !ok {
		return []Rect{r}
	}
	var out []Rect
	if in.Min.Y > r.Min.Y+eps {
		out = append(out, Rect{Min: r.Min, Max: Point{X: r.Max.X, Y: in.Min.Y}})
	}
	if in.Max.Y < r.Max.Y-eps {
		out = append(out, Rect{Min: Point{X: r.Min.X, Y: in.Max.Y}, Max: r.Max})
	}
	if in.Min.X > r.Min.X+eps {
		out = append(out, Rect{Min: Point{X: r.Min.X, Y: in.Min.Y}, Max: Point{X: in.Min.X, Y: in.Max.Y}})
	}
	if in.Max.X < r.Max.X-eps {
		out = append(out, Rect{Min: Point{X: in.Max.X, Y: in.Min.Y}, Max: Point{X: r.Max.X, Y: in.Max.Y}})
	}
	return out
}

// Distance returns the L1 distance from p to the nearest point of r, zero
// when p is inside.
func (r Rect) Distance(p Point) float64 {
	dx := math.Max(0, math.Max(r.Min.X-p.X, p.X-r.Max.X))
	dy := math.Max(0, math.Max(r.Min.Y-p.Y, p.Y-r.Max.Y))
	return dx + dy
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.Min.X, r.Min.Y, r.Width(), r.Height())
}

// Side names one edge of a rectangle.
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	}
	return "unknown"
}

// Origin returns the starting corner of side s; fractions along the side are
// measured from here.
func (r Rect) Origin(s Side) Point {
	switch s {
	case Right:
		return Point{X: r.Max.X, Y: r.Min.Y}
	case Bottom:
		return Point{X: r.Min.X, Y: r.Max.Y}
	default:
		return r.Min
	}
}

// Span returns the direction and length of side s, as (width,0) or (0,height).
func (r Rect) Span(s Side) Vector {
	if s == Top || s == Bottom {
		return Vector{DX: r.Width()}
	}
	return Vector{DY: r.Height()}
}

// Normal returns the outward unit normal of side s.
func (s Side) Normal() Vector {
	switch s {
	case Top:
		return Vector{DY: -1}
	case Right:
		return Vector{DX: 1}
	case Bottom:
		return Vector{DY: 1}
	default:
		return Vector{DX: -1}
	}
}

// Project finds the side of r nearest p and returns the fractional position
// of p along it together with the signed outward offset. Ties between sides
// resolve in Top, Right, Bottom, Left order.
func (r Rect) Project(p Point) (side Side, fraction, offset float64) {
	best := math.Inf(1)
	for _, s := range []Side{Top, Right, Bottom, Left} {
		var d float64
		switch s {
		case Top:
			d = p.Y - r.Min.Y
		case Bottom:
			d = r.Max.Y - p.Y
		case Left:
			d = p.X - r.Min.X
		case Right:
			d = r.Max.X - p.X
		}
		// Outside points are nearest to the side they are beyond.
		if d < 0 {
			d = -d - 1e9
		}
		if d < best-eps {
			best, side = d, s
		}
	}
	origin := r.Origin(side)
	span := r.Span(side)
	n := side.Normal()
	rel := p.Sub(origin)
	switch side {
	case Top, Bottom:
		if span.DX > eps {
			fraction = rel.DX / span.DX
		}
		offset = rel.DY * n.DY
	default:
		if span.DY > eps {
			fraction = rel.DY / span.DY
		}
		offset = rel.DX * n.DX
	}
	return side, fraction, offset
}

// Unproject is the inverse of Project.
func (r Rect) Unproject(side Side, fraction, offset float64) Point {
	return r.Origin(side).Add(r.Span(side).Scale(fraction)).Add(side.Normal().Scale(offset))
}
