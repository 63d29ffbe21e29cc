package recovery

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
)

var (
	// ErrRegionVanished marks a region-relative point whose region has no
	// bounds in the new frame.
	ErrRegionVanished = errors.New("referenced region vanished")

	// ErrNodeMissing marks a node-anchored point whose node has no
	// properties in the new layout.
	ErrNodeMissing = errors.New("anchor node missing")

	// ErrReferenceLost marks a fixed point whose referenced link is gone or
	// shorter than recorded.
	ErrReferenceLost = errors.New("referenced link geometry lost")
)

// AnchorRadius is how close, in layout units, a corner must be to its
// source or target node footprint to move with that node.
const AnchorRadius = 2 * geom.GridUnit

// Mode selects how a recovery point is re-resolved.
type Mode int

const (
	// ModeFixed points sit on another source's intact link and follow it.
	ModeFixed Mode = iota
	// ModeNodeAnchored points keep their offset from a node.
	ModeNodeAnchored
	// ModeRegionRelative points keep their fractional position along a
	// side of a region's bounds.
	ModeRegionRelative
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeNodeAnchored:
		return "node"
	case ModeRegionRelative:
		return "region"
	}
	return "unknown"
}

// FixedRef locates a point on another link's path.
type FixedRef struct {
	Source   string
	Link     string
	Segment  int     // index of the path run, from path[Segment] to path[Segment+1]
	Fraction float64 // position along that run
}

// NodeAnchor locates a point relative to a node's center.
type NodeAnchor struct {
	Node   string
	Offset geom.Vector
}

// RegionRef locates a point relative to one side of a region's bounds.
type RegionRef struct {
	Region   string
	Side     geom.Side
	Fraction float64
	Offset   float64 // along the side's outward normal

	// Approx is the axis whose coordinate is copied from the previous point
	// of the path after projection, keeping the run toward the root
	// straight. AxisNone when the run was not axis aligned.
	Approx geom.Axis
}

// Point is one corner of a recovered link path. Exactly one of Fixed,
// Anchor and Region is set, matching Mode.
type Point struct {
	Mode     Mode
	Fixed    *FixedRef
	Anchor   *NodeAnchor
	Region   *RegionRef
	Original geom.Point

	// Synthetic points stand in for the end of a zero-length run. They
	// resolve to wherever the previous point resolves.
	Synthetic bool
}

// Validate checks that exactly the field matching Mode is set.
func (p Point) Validate() error {
	set := 0
	for _, ok := range []bool{p.Fixed != nil, p.Anchor != nil, p.Region != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("recovery point at %v: %d modes set", p.Original, set)
	}
	switch {
	case p.Mode == ModeFixed && p.Fixed == nil,
		p.Mode == ModeNodeAnchored && p.Anchor == nil,
		p.Mode == ModeRegionRelative && p.Region == nil:
		return fmt.Errorf("recovery point at %v: mode %s without data", p.Original, p.Mode)
	}
	return nil
}

// LinkRecovery is the recorded geometry of one cross-region link.
type LinkRecovery struct {
	Link         string
	Target       string
	SourceRegion string
	TargetRegion string

	// Points follow the link's path from the tree start to the landing pad.
	Points []Point

	// LastInside is the index of the last point of the leading run of
	// points inside the source region, or -1 when the path starts outside.
	LastInside int
}

// Tree holds the recovery records of all cross-region links of one source.
type Tree struct {
	Source string
	Links  map[string]*LinkRecovery
}

// LinkIDs returns the recorded links, sorted.
func (t *Tree) LinkIDs() []string { return slices.Sorted(maps.Keys(t.Links)) }

// Trees maps source node IDs to recovery trees.
type Trees map[string]*Tree

// Sources returns the source IDs, sorted.
func (ts Trees) Sources() []string { return slices.Sorted(maps.Keys(ts)) }

// Key addresses one recovery point.
type Key struct {
	Link  string
	Index int
}

func (k Key) String() string { return fmt.Sprintf("%s#%d", k.Link, k.Index) }
