package geom

import (
	"fmt"
	"math"
)

// GridUnit is the spacing of the layout grid. Node locations, link corners and
// region bounds all live on multiples of GridUnit after snapping.
const GridUnit = 10.0

// eps is the tolerance used when comparing coordinates that went through
// fractional arithmetic.
const eps = 1e-6

// Point is a location in layout space.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by v.
func (p Point) Add(v Vector) Point { return Point{X: p.X + v.DX, Y: p.Y + v.DY} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vector { return Vector{DX: p.X - q.X, DY: p.Y - q.Y} }

// Eq reports whether p and q coincide within floating point tolerance.
func (p Point) Eq(q Point) bool {
	return math.Abs(p.X-q.X) < eps && math.Abs(p.Y-q.Y) < eps
}

// Manhattan returns the L1 distance between p and q.
func (p Point) Manhattan(q Point) float64 {
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

// Snap rounds p to the nearest grid point.
func (p Point) Snap() Point { return Point{X: SnapValue(p.X), Y: SnapValue(p.Y)} }

// Cell returns the grid cell containing p after snapping.
func (p Point) Cell() Cell {
	s := p.Snap()
	return Cell{Col: int(math.Round(s.X / GridUnit)), Row: int(math.Round(s.Y / GridUnit))}
}

// Get returns the coordinate along axis a.
func (p Point) Get(a Axis) float64 {
	if a == AxisX {
		return p.X
	}
	return p.Y
}

// With returns p with the coordinate along axis a replaced by v.
func (p Point) With(a Axis, v float64) Point {
	if a == AxisX {
		p.X = v
	} else {
		p.Y = v
	}
	return p
}

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Key returns a stable map key for a snapped point.
func (p Point) Key() string {
	c := p.Cell()
	return fmt.Sprintf("%d:%d", c.Col, c.Row)
}

// Vector is a displacement in layout space.
type Vector struct {
	DX float64 `json:"dx" bson:"dx"`
	DY float64 `json:"dy" bson:"dy"`
}

// Add returns the sum of v and w.
func (v Vector) Add(w Vector) Vector { return Vector{DX: v.DX + w.DX, DY: v.DY + w.DY} }

// Scale multiplies v by f.
func (v Vector) Scale(f float64) Vector { return Vector{DX: v.DX * f, DY: v.DY * f} }

// IsZero reports whether v has no displacement.
func (v Vector) IsZero() bool { return math.Abs(v.DX) < eps && math.Abs(v.DY) < eps }

// Snap rounds both components to the grid.
func (v Vector) Snap() Vector { return Vector{DX: SnapValue(v.DX), DY: SnapValue(v.DY)} }

// Len returns the Euclidean length of v.
func (v Vector) Len() float64 { return math.Hypot(v.DX, v.DY) }

// SnapValue rounds v to the nearest multiple of GridUnit.
func SnapValue(v float64) float64 {
	s := math.Round(v/GridUnit) * GridUnit
	if s == 0 {
		return 0 // normalize -0
	}
	return s
}

// Cell addresses one square of the layout grid.
type Cell struct {
	Col, Row int
}

// Point returns the layout-space location of the cell.
func (c Cell) Point() Point {
	return Point{X: float64(c.Col) * GridUnit, Y: float64(c.Row) * GridUnit}
}

// Step returns the neighboring cell in direction d.
func (c Cell) Step(d Direction) Cell {
	switch d {
	case North:
		return Cell{c.Col, c.Row - 1}
	case South:
		return Cell{c.Col, c.Row + 1}
	case East:
		return Cell{c.Col + 1, c.Row}
	case West:
		return Cell{c.Col - 1, c.Row}
	}
	return c
}

// Axis names one of the two coordinate axes.
type Axis int

const (
	AxisNone Axis = iota
	AxisX
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "none"
	}
}

// Other returns the perpendicular axis.
func (a Axis) Other() Axis {
	switch a {
	case AxisX:
		return AxisY
	case AxisY:
		return AxisX
	}
	return AxisNone
}

// Direction is a cardinal travel direction on the grid.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Axis returns the axis the direction travels along.
func (d Direction) Axis() Axis {
	if d == East || d == West {
		return AxisX
	}
	return AxisY
}

// Heading returns the direction from a to b when the two points are axis
// aligned. ok is false for coincident or diagonal pairs.
func Heading(a, b Point) (d Direction, ok bool) {
	switch {
	case a.Eq(b):
		return North, false
	case math.Abs(a.X-b.X) < eps:
		if b.Y > a.Y {
			return South, true
		}
		return North, true
	case math.Abs(a.Y-b.Y) < eps:
		if b.X > a.X {
			return East, true
		}
		return West, true
	}
	return North, false
}

// Orthogonal reports whether the segment a-b is horizontal or vertical.
func Orthogonal(a, b Point) bool {
	return math.Abs(a.X-b.X) < eps || math.Abs(a.Y-b.Y) < eps
}

// Lerp returns the point at fraction t along a-b.
func Lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// OnSegment reports whether p lies on the orthogonal segment a-b and returns
// its fractional position along it.
func OnSegment(p, a, b Point) (float64, bool) {
	if a.Eq(b) {
		if p.Eq(a) {
			return 0, true
		}
		return 0, false
	}
	minX, maxX := math.Min(a.X, b.X)-eps, math.Max(a.X, b.X)+eps
	minY, maxY := math.Min(a.Y, b.Y)-eps, math.Max(a.Y, b.Y)+eps
	if p.X < minX || p.X > maxX || p.Y < minY || p.Y > maxY {
		return 0, false
	}
	if !Orthogonal(a, b) {
		return 0, false
	}
	l := a.Manhattan(b)
	return a.Manhattan(p) / l, true
}

// PointSet is a set of grid points keyed by [Point.Key].
type PointSet map[string]bool

// NewPointSet builds a set from pts.
func NewPointSet(pts ...Point) PointSet {
	s := make(PointSet, len(pts))
	for _, p := range pts {
		s.Add(p)
	}
	return s
}

// Add inserts p.
func (s PointSet) Add(p Point) { s[p.Key()] = true }

// Has reports whether p is in the set. A nil set is empty.
func (s PointSet) Has(p Point) bool { return s[p.Key()] }
