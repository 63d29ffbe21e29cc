package syncer

import (
	"context"

	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/grid"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/merge"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/region"
	"github.com/matzehuels/regionsync/pkg/result"
	"github.com/matzehuels/regionsync/pkg/route"
)

// seed builds a layout holding the target nodes at their source locations.
// Repeated occurrences are nudged apart. Links keep source geometry when
// both endpoints landed exactly where the source has them.
func (j *job) seed(ctx context.Context) (*layout.Layout, error) {
	l := layout.New(j.req.Target.ID)
	for id, g := range j.req.Target.Groups {
		c := *g
		if g.Hint != nil {
			h := *g.Hint
			c.Hint = &h
		}
		l.Groups[id] = &c
	}
	for _, id := range j.m.targetNodes() {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		if p, ok := j.m.seedNode(j.req.Source, id, geom.Vector{}); ok {
			l.SetNode(place(l, p))
		}
	}
	for _, id := range j.mappedLinks() {
		j.m.seedLink(j.req.Source, l, id, geom.Vector{})
	}
	if j.req.Options.Overlay != config.OverlayNone {
		for id, o := range j.req.Source.Overlays {
			l.Overlays[id] = o.Clone()
		}
	}
	return l, nil
}

// freshLayout lays the regions out from the source, packs them in
// topological order of their cross links and routes everything that has no
// geometry. Placement is retried with growing borders.
func (j *job) freshLayout(ctx context.Context) (*layout.Layout, error) {
	if err := j.enter("decompose"); err != nil {
		return nil, err
	}
	seed, err := j.seed(ctx)
	if err != nil {
		return nil, err
	}
	dec, err := j.decomposer.Decompose(j.m.net, seed, j.m.regions, j.req.Options)
	if err != nil {
		return nil, err
	}
	member, err := region.Membership(j.m.regions)
	if err != nil {
		return nil, err
	}
	j.advance(ctx, Prepared)

	if err := j.enter("merge"); err != nil {
		return nil, err
	}
	ordering := merge.OrderRegions(dec.Order, dec.CrossLinks)
	for _, e := range ordering.Excluded {
		j.Logger.Debug("cross link cycle broken", "from", e.From, "to", e.To, "weight", e.Weight)
	}
	links := j.m.net.LinkIDs()
	engine := merge.NewEngine(j.Logger, j.req.Options)
	total := len(engine.Passes())

	attempt := func(ctx context.Context, p merge.Pass) (*layout.Layout, result.RoutingResult, error) {
		grow := float64(p.Multiplier) * geom.GridUnit
		sizes := make(map[string]geom.Vector, len(dec.Bounds))
		for id, b := range dec.Bounds {
			sizes[id] = b.Size().Add(geom.Vector{DX: 2 * grow, DY: 2 * grow})
		}
		placed := merge.Pack(merge.PackParams{
			Floating:   sizes,
			CrossLinks: dec.CrossLinks,
			Border:     float64(p.Border) * geom.GridUnit,
			Ordering:   &ordering,
		})
		deltas := make(map[string]geom.Vector, len(placed))
		for id, r := range placed {
			deltas[id] = r.Min.Sub(dec.Bounds[id].Min).Add(geom.Vector{DX: grow, DY: grow}).Snap()
		}

		// Nodes outside every region stay where the seed put them.
		master := layout.New(seed.ID)
		for id, n := range seed.Nodes {
			if _, ok := member[id]; !ok {
				master.Nodes[id] = n
			}
		}
		for id, o := range seed.Overlays {
			master.Overlays[id] = o
		}
		l, err := merge.MergeAll(master, dec.Layouts, deltas, &dec.Slices)
		if err != nil {
			return nil, result.OK(), err
		}
		// Later passes place again after Routed; the state stays there.
		if j.state() < Placed {
			j.advance(ctx, Placed)
		}

		res, err := j.routeLinks(ctx, l, links, nil)
		if err != nil {
			return nil, result.OK(), err
		}
		j.advance(ctx, Routed)
		if err := j.tracker.Step(float64(p.Multiplier+1) / float64(total)); err != nil {
			return nil, result.OK(), err
		}
		return l, res, nil
	}

	outcome, err := engine.Run(ctx, attempt)
	if err != nil {
		return nil, err
	}
	j.out.Passes = outcome.Attempts
	best, res := outcome.Layout, outcome.Result

	if err := j.enter("squash"); err != nil {
		return nil, err
	}
	if j.req.Options.InheritanceSquash {
		sq, removed := merge.Squash(best, j.req.Options.BorderSize)
		if removed > 0 {
			sqRes := j.router.Audit(route.Request{
				Links:      links,
				Net:        j.m.net,
				Layout:     sq,
				Options:    j.req.Options,
				Exemptions: j.exempt,
			})
			if !sqRes.Worse(res) && len(grid.FromLayout(sq).BadRuns()) <= len(grid.FromLayout(best).BadRuns()) {
				j.Logger.Debug("squashed", "lines", removed)
				best, res = sq, sqRes
			}
		}
	}

	if err := j.enter("finalize"); err != nil {
		return nil, err
	}
	j.out.Result = result.Merge(res, j.colorLinks(best))
	j.advance(ctx, Colored)
	return best, nil
}
