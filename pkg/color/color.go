// Package color assigns link tree colors so that every junction shared by
// differently-sourced links can be read by color alone.
//
// Two sources sharing a grid cell are told apart by geometry only when both
// pass straight through on perpendicular axes. Any other sharing (a corner,
// a collinear overlap or a common end point) is ambiguous unless the two
// trees carry different colors.
package color

import (
	"slices"
	"strings"

	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/grid"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/result"
)

// CollisionInfo describes the first ambiguous junction found.
type CollisionInfo struct {
	At   geom.Point
	Pair result.Pair // source node IDs
}

// Request controls AssignColors.
type Request struct {
	// Explicit maps source node IDs to colors chosen by the caller. These
	// are applied before any palette color.
	Explicit map[string]string

	// KeepExisting leaves every color untouched; ambiguity is still reported.
	KeepExisting bool

	// Need lists the sources to color. When nil, sources without a color and
	// sources involved in an ambiguous junction are colored.
	Need []string

	// Palette is cycled for sources without an explicit color. Defaults to
	// config.DefaultPalette.
	Palette []string
}

// Issues is the color outcome of AssignColors.
type Issues struct {
	Status    result.ColorStatus
	Collision *result.Pair
}

// Result converts the issues to a routing result carrying only the color
// axis.
func (i Issues) Result() result.RoutingResult {
	if i.Collision == nil {
		return result.OK()
	}
	return result.Collided(i.Collision.A, i.Collision.B)
}

// Ambiguous reports whether two usages of one cell cannot be told apart
// without color.
func Ambiguous(a, b grid.Arms) bool {
	sa, sb := a.Straight(), b.Straight()
	return sa == geom.AxisNone || sb == geom.AxisNone || sa == sb
}

func sameColor(a, b string) bool { return strings.EqualFold(a, b) }

func colorOf(l *layout.Layout, source string) string {
	if t, ok := l.Trees[source]; ok {
		return t.Color
	}
	return ""
}

// HasAmbiguousCrossing scans g in row-major order for a cell shared by two
// sources of equal color whose usages are ambiguous. Within a cell the
// lexicographically smallest pair is reported.
func HasAmbiguousCrossing(l *layout.Layout, g *grid.Grid) (CollisionInfo, bool) {
	for _, c := range g.SharedCells() {
		us := g.Usages(c)
		var best *result.Pair
		for i := 0; i < len(us); i++ {
			for j := i + 1; j < len(us); j++ {
				a, b := us[i], us[j]
				if !sameColor(colorOf(l, a.Source), colorOf(l, b.Source)) || !Ambiguous(a.Arms, b.Arms) {
					continue
				}
				p := result.NewPair(a.Source, b.Source)
				if best == nil || p.Less(*best) {
					best = &p
				}
			}
		}
		if best != nil {
			return CollisionInfo{At: c.Point(), Pair: *best}, true
		}
	}
	return CollisionInfo{}, false
}

// conflicts returns, per source, the sources it shares an ambiguous cell
// with regardless of color.
func conflicts(g *grid.Grid) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	link := func(a, b string) {
		if out[a] == nil {
			out[a] = make(map[string]bool)
		}
		out[a][b] = true
	}
	for _, c := range g.SharedCells() {
		us := g.Usages(c)
		for i := 0; i < len(us); i++ {
			for j := i + 1; j < len(us); j++ {
				if Ambiguous(us[i].Arms, us[j].Arms) {
					link(us[i].Source, us[j].Source)
					link(us[j].Source, us[i].Source)
				}
			}
		}
	}
	return out
}

// AssignColors colors the trees of l and reports any ambiguity left
// afterwards. Explicit colors win; other sources cycle the palette,
// skipping colors already used by sources they conflict with. When every
// palette color is taken the cycled color is used anyway and the collision
// is reported.
func AssignColors(l *layout.Layout, g *grid.Grid, req Request) Issues {
	if !req.KeepExisting {
		palette := req.Palette
		if len(palette) == 0 {
			palette = config.DefaultPalette
		}
		nb := conflicts(g)
		next := 0
		for _, src := range needed(l, nb, req) {
			t, ok := l.Trees[src]
			if !ok {
				continue
			}
			if c, ok := req.Explicit[src]; ok {
				t.Color = c
				continue
			}
			t.Color = pick(l, palette, next, nb[src])
			next++
		}
	}

	if info, ok := HasAmbiguousCrossing(l, g); ok {
		p := info.Pair
		return Issues{Status: result.ColorCollision, Collision: &p}
	}
	return Issues{Status: result.ColorOK}
}

func needed(l *layout.Layout, nb map[string]map[string]bool, req Request) []string {
	if req.Need != nil {
		out := slices.Clone(req.Need)
		slices.Sort(out)
		return slices.Compact(out)
	}
	var out []string
	for _, src := range l.Sources() {
		if l.Trees[src].Color == "" {
			out = append(out, src)
			continue
		}
		if _, ok := req.Explicit[src]; ok {
			out = append(out, src)
			continue
		}
		for other := range nb[src] {
			if sameColor(l.Trees[src].Color, colorOf(l, other)) {
				out = append(out, src)
				break
			}
		}
	}
	return out
}

func pick(l *layout.Layout, palette []string, start int, neighbors map[string]bool) string {
	taken := func(c string) bool {
		for other := range neighbors {
			if sameColor(colorOf(l, other), c) {
				return true
			}
		}
		return false
	}
	for k := range palette {
		c := palette[(start+k)%len(palette)]
		if !taken(c) {
			return c
		}
	}
	return palette[start%len(palette)]
}
