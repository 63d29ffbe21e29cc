package route

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/grid"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/observability"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/result"
)

// maxAttach is the number of attach points tried per link, nearest first.
const maxAttach = 6

// Request describes one multi-pass routing run.
type Request struct {
	// Links to route. Links already carried by a tree keep their geometry
	// and only take part in optimization.
	Links []string

	// Net resolves link endpoints.
	Net *network.Network

	// Layout is mutated in place; pass a scratch clone.
	Layout *layout.Layout

	// Grid mirrors Layout. Built from Layout when nil.
	Grid *grid.Grid

	Options config.LayoutOptions

	// Exemptions lists links allowed to break placement rules. Their
	// geometry is never optimized and never reported as failed.
	Exemptions map[string]bool

	// Frozen points must not move during optimization.
	Frozen geom.PointSet
}

// Router routes links on the placement grid.
type Router struct {
	Logger *log.Logger
}

// New creates a router. A nil logger discards output.
func New(logger *log.Logger) *Router {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Router{Logger: logger}
}

// run holds the state of one routing call.
type run struct {
	*Router
	net    *network.Network
	l      *layout.Layout
	g      *grid.Grid
	opts   config.LayoutOptions
	exempt map[string]bool
	frozen geom.PointSet
	attach map[string][]layout.Run // per-source run cache
	crude  map[string]bool
}

func (r *Router) newRun(req Request) *run {
	g := req.Grid
	if g == nil {
		g = grid.FromLayout(req.Layout)
	}
	return &run{
		Router: r,
		net:    req.Net,
		l:      req.Layout,
		g:      g,
		opts:   req.Options,
		exempt: req.Exemptions,
		frozen: req.Frozen,
		attach: make(map[string][]layout.Run),
		crude:  make(map[string]bool),
	}
}

// MultiPassLayout routes every requested link lacking geometry, then runs
// the configured number of optimization passes over all requested links.
// Links that cannot be routed legally keep a crude path and are reported in
// the result; the run never aborts for them. The only error is cancellation,
// checked per link and per pass.
func (r *Router) MultiPassLayout(ctx context.Context, req Request) (result.RoutingResult, error) {
	start := time.Now()
	observability.Route().OnRouteStart(ctx, len(req.Links))
	x := r.newRun(req)

	links := slices.Clone(req.Links)
	slices.SortFunc(links, x.bySource)

	routed := 0
	for _, id := range links {
		if err := progress.Check(ctx); err != nil {
			return result.OK(), err
		}
		if x.l.HasLink(id) {
			continue
		}
		if x.routeLink(id) {
			routed++
		}
	}

	for pass := 0; pass < x.opts.OptimizationPasses; pass++ {
		if err := progress.Check(ctx); err != nil {
			return result.OK(), err
		}
		if _, err := x.optimize(ctx, links); err != nil {
			return result.OK(), err
		}
	}

	res := x.audit(links)
	r.Logger.Debug("routing complete", "links", len(links), "routed", routed, "failed", len(res.Failed))
	observability.Route().OnRouteComplete(ctx, routed, len(res.Failed), time.Since(start))
	return res, nil
}

func (x *run) bySource(a, b string) int {
	la, _ := x.net.Link(a)
	lb, _ := x.net.Link(b)
	var sa, sb string
	if la != nil {
		sa = la.Source
	}
	if lb != nil {
		sb = lb.Source
	}
	if sa != sb {
		if sa < sb {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// endpoints resolves the source and target properties of a link.
func (x *run) endpoints(id string) (*network.Link, *layout.NodeProps, *layout.NodeProps, bool) {
	link, ok := x.net.Link(id)
	if !ok {
		return nil, nil, nil, false
	}
	src, ok1 := x.l.Nodes[link.Source]
	tgt, ok2 := x.l.Nodes[link.Target]
	return link, src, tgt, ok1 && ok2
}

// attachPoints returns where a new branch of source may leave the tree,
// nearest to q first. The tree start is represented by its exit point.
func (x *run) attachPoints(t *layout.LinkTree, q geom.Point) []geom.Point {
	runs, ok := x.attach[t.Source]
	if !ok {
		runs = t.Runs()
		drops := make(map[string]bool, len(t.Drops))
		for _, d := range t.Drops {
			drops[d] = true
		}
		runs = slices.DeleteFunc(runs, func(r layout.Run) bool { return drops[r.Segment] })
		x.attach[t.Source] = runs
	}
	pts := []geom.Point{exit(t.Start)}
	seen := geom.NewPointSet(pts...)
	add := func(p geom.Point) {
		p = p.Snap()
		if !seen.Has(p) {
			seen.Add(p)
			pts = append(pts, p)
		}
	}
	for _, r := range runs {
		add(r.To)
		add(project(q, r.From, r.To))
	}
	slices.SortStableFunc(pts, func(a, b geom.Point) int {
		da, db := a.Manhattan(q), b.Manhattan(q)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
	if len(pts) > maxAttach {
		pts = pts[:maxAttach]
	}
	return pts
}

// project returns the point of the orthogonal run a-b closest to q.
func project(q, a, b geom.Point) geom.Point {
	clamp := func(v, lo, hi float64) float64 { return min(max(v, min(lo, hi)), max(lo, hi)) }
	return geom.Pt(clamp(q.X, a.X, b.X), clamp(q.Y, a.Y, b.Y))
}

// plan finds the cheapest legal branch for link from the source tree to one
// of the target's pads. It returns the path to graft (starting on the tree)
// and whether it is legal. When no legal path exists the cheapest path to
// the preferred pad is returned with legal false, and padBlocked reports
// whether every candidate pad is held by another source.
func (x *run) plan(link *network.Link, t *layout.LinkTree, tgt *layout.NodeProps) (pts []geom.Point, legal, padBlocked bool) {
	pads := tgt.LandingPads()
	if !x.opts.SwitchPads {
		pads = pads[:1]
	}
	rect := tgt.Rect()
	startCell := t.Start.Cell()
	exempt := x.exempt[link.ID]

	var fallback []geom.Point
	padBlocked = true
	for _, pad := range pads {
		if !x.g.PadFree(link.Source, pad) && !exempt {
			continue
		}
		padBlocked = false
		q := approach(rect, pad)
		var best *candidate
		for _, a := range x.attachPoints(t, q) {
			prefix := []geom.Point{a}
			if a.Eq(exit(t.Start)) && !t.Contains(a) {
				prefix = []geom.Point{t.Start, a}
			}
			for _, c := range shapes(a, q) {
				full := join(prefix, c.pts, []geom.Point{pad})
				if reverses(full) {
					continue
				}
				cand := newCandidate(full)
				if fallback == nil {
					fallback = full
				}
				if best != nil && cand.cost >= best.cost {
					continue
				}
				if !exempt && !x.g.Legal(link.Source, full, startCell, pad.Cell()) {
					continue
				}
				best = &cand
			}
		}
		if best != nil {
			return best.pts, true, false
		}
	}
	if fallback == nil {
		fallback = x.crudePath(t, tgt)
	}
	return fallback, false, padBlocked
}

// crudePath is the straight-then-turn path from the tree start to the
// preferred pad, used when nothing better exists.
func (x *run) crudePath(t *layout.LinkTree, tgt *layout.NodeProps) []geom.Point {
	pad := tgt.LandingPads()[0]
	q := approach(tgt.Rect(), pad)
	e := exit(t.Start)
	return join([]geom.Point{t.Start, e, geom.Pt(q.X, e.Y), q, pad})
}

// routeLink installs geometry for one link and reports whether the
// geometry is legal.
func (x *run) routeLink(id string) bool {
	link, _, tgt, ok := x.endpoints(id)
	if !ok {
		x.Logger.Warn("cannot route link without endpoint geometry", "link", id)
		x.crude[id] = true
		return false
	}
	t := x.l.Tree(link.Source)
	pts, legal, padBlocked := x.plan(link, t, tgt)

	var err error
	if legal || t.Contains(pts[0]) {
		err = t.Graft(id, pts)
	} else {
		err = t.SetPath(id, pts)
	}
	if err != nil {
		// The path could not attach; fall back to a fresh branch from start.
		err = t.SetPath(id, x.crudePath(t, tgt))
	}
	delete(x.attach, link.Source)
	x.g.SetTree(t)
	if err != nil {
		x.Logger.Warn("link left unrouted", "link", id, "err", err)
		x.crude[id] = true
		return false
	}
	if !legal {
		x.crude[id] = true
		x.Logger.Debug("crude path installed", "link", id, "pad_blocked", padBlocked)
		return false
	}
	x.Logger.Debug("routed", "link", id, "bends", layout.Bends(pts))
	return true
}

// audit checks every requested link's full path against the grid.
func (x *run) audit(links []string) result.RoutingResult {
	res := result.OK()
	for _, id := range links {
		if x.exempt[id] {
			continue
		}
		link, _, tgt, ok := x.endpoints(id)
		if !ok {
			res = result.Merge(res, result.Failed(id))
			continue
		}
		t, ok := x.l.TreeOf(id)
		if !ok {
			res = result.Merge(res, result.Failed(id))
			continue
		}
		path, err := t.Path(id)
		if err != nil {
			res = result.Merge(res, result.Failed(id))
			continue
		}
		landing := path[len(path)-1]
		if !tgt.Rect().Snap().Contains(landing) {
			res = result.Merge(res, result.Failed(id))
			continue
		}
		conflicts := x.g.Check(link.Source, path, t.Start.Cell(), landing.Cell())
		if len(conflicts) == 0 {
			continue
		}
		pad := false
		for _, c := range conflicts {
			if c.Reason == grid.ReasonPad {
				pad = true
			}
		}
		if pad {
			res = result.Merge(res, result.PadCollision(id))
		} else {
			res = result.Merge(res, result.Failed(id))
		}
	}
	return res
}
