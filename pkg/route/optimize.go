package route

import (
	"context"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/result"
)

// OptimizeLinks runs one corner-reduction pass over req.Links. Each link's
// private tail, the part after its last shared or frozen vertex, is rerouted
// when a legal path with lower cost exists, or any legal path when the
// current one is illegal. Frozen points never move and exempt links are left
// alone. The result audits the links after the pass.
func (r *Router) OptimizeLinks(ctx context.Context, req Request) (result.RoutingResult, error) {
	x := r.newRun(req)
	links := slices.Clone(req.Links)
	slices.SortFunc(links, x.bySource)
	return x.optimize(ctx, links)
}

// Audit checks req.Links on req.Layout without changing it. It reports the
// links whose geometry misses its target or breaks placement rules.
func (r *Router) Audit(req Request) result.RoutingResult {
	return r.newRun(req).audit(req.Links)
}

func (x *run) optimize(ctx context.Context, links []string) (result.RoutingResult, error) {
	for _, id := range links {
		if err := progress.Check(ctx); err != nil {
			return result.OK(), err
		}
		x.optimizeLink(id)
	}
	return x.audit(links), nil
}

func (x *run) optimizeLink(id string) {
	if x.exempt[id] {
		return
	}
	link, _, tgt, ok := x.endpoints(id)
	if !ok {
		return
	}
	t, ok := x.l.TreeOf(id)
	if !ok {
		return
	}
	path, err := t.Path(id)
	if err != nil || len(path) < 2 {
		return
	}
	chain, _ := t.Chain(id)

	// k is the last vertex that must stay: shared with a sibling or frozen.
	k := 0
	for i := 1; i < len(path)-1; i++ {
		if x.frozen.Has(path[i]) || len(t.Users(chain[i-1])) > 1 {
			k = i
		}
	}
	pad := path[len(path)-1]
	if !tgt.Rect().Snap().Contains(pad) {
		pad = tgt.LandingPads()[0]
	}

	t.Remove(id)
	x.g.SetTree(t)
	delete(x.attach, link.Source)

	startCell := t.Start.Cell()
	current := newCandidate(path)
	currentLegal := x.g.Legal(link.Source, path, startCell, pad.Cell())

	head := path[:k+1]
	from := path[k]
	if k == 0 {
		from = exit(t.Start)
		head = []geom.Point{t.Start}
	}
	q := approach(tgt.Rect(), pad)

	var best *candidate
	for _, c := range shapes(from, q) {
		full := join(head, c.pts, []geom.Point{pad})
		if reverses(full) {
			continue
		}
		cand := newCandidate(full)
		if currentLegal && cand.cost >= current.cost {
			continue
		}
		if best != nil && cand.cost >= best.cost {
			continue
		}
		if !x.g.Legal(link.Source, full, startCell, pad.Cell()) {
			continue
		}
		best = &cand
	}

	next := path
	if best != nil {
		next = best.pts
	}
	if err := t.SetPath(id, next); err != nil {
		_ = t.SetPath(id, path)
	}
	x.g.SetTree(t)
	if best != nil {
		delete(x.crude, id)
		x.Logger.Debug("optimized", "link", id, "bends", best.bends, "was", current.bends)
	}
}
