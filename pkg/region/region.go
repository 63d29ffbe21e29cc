package region

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
)

// FallbackSpacing is the horizontal spacing, in grid units, between the
// fallback centers of empty regions without a location hint.
const FallbackSpacing = 8

// CrossLink is a link whose endpoints lie in two different regions.
type CrossLink struct {
	ID           string
	Source       string
	Target       string
	SourceRegion string
	TargetRegion string
}

// Decomposition is a layout split into independent per-region parts.
type Decomposition struct {
	// Order lists region IDs in the order they were given.
	Order []string

	// Layouts holds one sub-layout per region: member node properties,
	// link trees pruned to links with both ends in the region, and the
	// region's group properties.
	Layouts map[string]*layout.Layout

	// Bounds holds the grid-snapped extent of each region's nodes and
	// internal links. Empty regions have zero-size bounds.
	Bounds map[string]geom.Rect

	// Slices is filled only for [config.OverlayRelayout].
	Slices ModuleSliceInfo

	// CrossLinks lists every cross-region link, sorted by ID.
	CrossLinks []CrossLink
}

// Membership maps every member node to its region. A node claimed by two
// regions is an error.
func Membership(regions []*network.Region) (map[string]string, error) {
	out := make(map[string]string)
	for _, r := range regions {
		for _, id := range r.MemberIDs() {
			if prev, ok := out[id]; ok && prev != r.ID {
				return nil, fmt.Errorf("node %s in %s and %s: %w", id, prev, r.ID, network.ErrRegionOverlap)
			}
			out[id] = r.ID
		}
	}
	return out, nil
}

// CrossLinks returns every link of net whose endpoints fall in two different
// regions, sorted by link ID. Links with an endpoint outside all regions are
// not cross-region links.
func CrossLinks(net *network.Network, regions []*network.Region) ([]CrossLink, error) {
	member, err := Membership(regions)
	if err != nil {
		return nil, err
	}
	var out []CrossLink
	for _, lk := range net.Links() {
		sr, ok1 := member[lk.Source]
		tr, ok2 := member[lk.Target]
		if !ok1 || !ok2 || sr == tr {
			continue
		}
		out = append(out, CrossLink{ID: lk.ID, Source: lk.Source, Target: lk.Target, SourceRegion: sr, TargetRegion: tr})
	}
	slices.SortFunc(out, func(a, b CrossLink) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Decomposer splits layouts into regions.
type Decomposer struct {
	Logger *log.Logger
}

// NewDecomposer creates a decomposer. A nil logger discards output.
func NewDecomposer(logger *log.Logger) *Decomposer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Decomposer{Logger: logger}
}

// Decompose splits l into one sub-layout per region. The input layout is
// not modified. Decomposing a virtual subset region is a contract
// violation and panics.
func Decompose(net *network.Network, l *layout.Layout, regions []*network.Region, opts config.LayoutOptions) (*Decomposition, error) {
	return NewDecomposer(nil).Decompose(net, l, regions, opts)
}

// Decompose is the logging form of the package-level [Decompose].
func (d *Decomposer) Decompose(net *network.Network, l *layout.Layout, regions []*network.Region, opts config.LayoutOptions) (*Decomposition, error) {
	for _, r := range regions {
		if r.IsVirtualSubset() {
			errors.Contract("decompose virtual subset region %s of %s", r.ID, r.SubsetOf)
		}
	}
	member, err := Membership(regions)
	if err != nil {
		return nil, err
	}
	cross, err := CrossLinks(net, regions)
	if err != nil {
		return nil, err
	}

	dec := &Decomposition{
		Layouts:    make(map[string]*layout.Layout, len(regions)),
		Bounds:     make(map[string]geom.Rect, len(regions)),
		CrossLinks: cross,
	}

	// Internal links grouped by source node.
	internal := make(map[string][]string)
	for _, lk := range net.Links() {
		if r, ok := member[lk.Source]; ok && member[lk.Target] == r {
			internal[lk.Source] = append(internal[lk.Source], lk.ID)
		}
	}

	for i, r := range regions {
		dec.Order = append(dec.Order, r.ID)
		part := layout.New(r.ID)
		for _, id := range r.MemberIDs() {
			if n, ok := l.Nodes[id]; ok {
				c := *n
				part.Nodes[id] = &c
			}
			t, ok := l.Trees[id]
			if !ok {
				continue
			}
			var keep []string
			for _, link := range internal[id] {
				if t.HasLink(link) {
					keep = append(keep, link)
				}
			}
			if len(keep) > 0 {
				part.Trees[id] = t.Subtree(keep)
			}
		}
		if g, ok := l.Groups[r.ID]; ok {
			c := *g
			if g.Hint != nil {
				h := *g.Hint
				c.Hint = &h
			}
			part.Groups[r.ID] = &c
		}
		dec.Layouts[r.ID] = part
		dec.Bounds[r.ID] = bounds(part, r.ID, i)
		d.Logger.Debug("region extracted", "region", r.ID, "nodes", len(part.Nodes), "trees", len(part.Trees), "bounds", dec.Bounds[r.ID])
	}

	if opts.Overlay == config.OverlayRelayout {
		dec.Slices = Slice(l.Overlays, dec.Order, dec.Bounds)
	}
	return dec, nil
}

// bounds returns the snapped extent of part, or a zero-size rect at the
// group hint or fallback center when the region is empty.
func bounds(part *layout.Layout, region string, index int) geom.Rect {
	if b, ok := part.Bounds(); ok {
		return b.Snap()
	}
	if g, ok := part.Groups[region]; ok && g.Hint != nil {
		return geom.RectAround(g.Hint.Snap())
	}
	return geom.RectAround(geom.Pt(float64(index*FallbackSpacing)*geom.GridUnit, 0))
}
