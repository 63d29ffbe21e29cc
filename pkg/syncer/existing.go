package syncer

import (
	"context"
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/merge"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/recovery"
	"github.com/matzehuels/regionsync/pkg/region"
	"github.com/matzehuels/regionsync/pkg/result"
)

// syncToExisting rebuilds the target regions from the source and keeps
// every other region's content, moving regions apart only as far as the
// rebuilt ones need. Cross-region links are recovered parametrically; what
// cannot be recovered is routed.
func (j *job) syncToExisting(ctx context.Context) (*layout.Layout, error) {
	if err := j.enter("decompose"); err != nil {
		return nil, err
	}
	cur := j.req.Target.Clone()
	j.m.prune(cur)
	dec, err := j.decomposer.Decompose(j.m.net, cur, j.m.regions, j.req.Options)
	if err != nil {
		return nil, err
	}
	member, err := region.Membership(j.m.regions)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]bool, len(j.req.TargetRegions))
	for _, id := range j.req.TargetRegions {
		targets[id] = true
	}
	j.advance(ctx, Prepared)

	if err := j.enter("recover"); err != nil {
		return nil, err
	}
	var intact []string
	for _, src := range cur.Sources() {
		if r, ok := member[src]; ok && !targets[r] {
			intact = append(intact, src)
		}
	}
	trees, err := recovery.Extract(recovery.ExtractParams{
		Old:        cur,
		Bounds:     dec.Bounds,
		CrossLinks: dec.CrossLinks,
		Intact:     intact,
		Exemptions: j.exempt,
	})
	if err != nil {
		return nil, err
	}

	parts := make(map[string]*layout.Layout, len(dec.Layouts))
	want := make(map[string]geom.Rect, len(dec.Bounds))
	for id, part := range dec.Layouts {
		parts[id], want[id] = part, dec.Bounds[id]
	}
	for _, id := range slices.Sorted(maps.Keys(targets)) {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		r, _ := j.req.Instance.Region(id)
		parts[id], want[id] = j.rebuild(r, dec.Layouts[id], dec.Bounds[id])
	}

	// The master keeps everything outside the rebuilt regions. Cross links
	// come back through recovery.
	master := cur.Clone()
	for _, lk := range j.m.net.Links() {
		if targets[member[lk.Source]] || targets[member[lk.Target]] || member[lk.Source] != member[lk.Target] {
			master.RemoveLink(lk.ID)
		}
	}
	for id, r := range member {
		if targets[r] {
			delete(master.Nodes, id)
		}
	}
	j.advance(ctx, Placed)

	if err := j.enter("merge"); err != nil {
		return nil, err
	}
	links := j.m.net.LinkIDs()
	engine := merge.NewEngine(j.Logger, j.req.Options)
	total := len(engine.Passes())

	attempt := func(ctx context.Context, p merge.Pass) (*layout.Layout, result.RoutingResult, error) {
		deltas := merge.GrowToFit(dec.Bounds, want, merge.Padding{
			Pad:    float64(p.Border) * geom.GridUnit,
			Expand: float64(p.Multiplier) * geom.GridUnit,
		})
		l, err := merge.MergeAll(master, parts, deltas, &dec.Slices)
		if err != nil {
			return nil, result.OK(), err
		}
		moved := make(map[string]geom.Rect, len(want))
		for id, b := range want {
			moved[id] = b.Translate(deltas[id])
		}
		rep := recovery.Reproject(trees, recovery.Frame{Bounds: moved, Layout: l})
		unrouted := recovery.Apply(l, trees, rep)
		if len(unrouted) > 0 {
			j.Logger.Debug("cross links left for routing", "links", unrouted)
		}

		res, err := j.routeLinks(ctx, l, missing(l, links), nil)
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

	if err := j.enter("finalize"); err != nil {
		return nil, err
	}
	j.out.Result = result.Merge(outcome.Result, j.colorLinks(outcome.Layout))
	j.advance(ctx, Colored)
	return outcome.Layout, nil
}

// rebuild lays out a region afresh from the source, centered on its current
// bounds. It returns the new content and its bounds. A region whose members
// have no source geometry keeps its current content.
func (j *job) rebuild(r *network.Region, cur *layout.Layout, old geom.Rect) (*layout.Layout, geom.Rect) {
	members := r.MemberIDs()
	var src []string
	for _, id := range members {
		src = append(src, j.m.nodes[id])
	}
	if len(src) == 0 {
		return cur, old
	}
	sb, ok := j.req.Source.NodeBounds(src...)
	if !ok {
		return cur, old
	}
	v := old.Center().Sub(sb.Center()).Snap()

	part := layout.New(cur.ID)
	for id, g := range cur.Groups {
		c := *g
		part.Groups[id] = &c
	}
	for _, id := range members {
		if p, ok := j.m.seedNode(j.req.Source, id, v); ok {
			part.SetNode(place(part, p))
		}
	}
	for _, lk := range j.m.net.Links() {
		if r.Has(lk.Source) && r.Has(lk.Target) {
			j.m.seedLink(j.req.Source, part, lk.ID, v)
		}
	}
	b, ok := part.Bounds()
	if !ok {
		return part, old
	}
	return part, b.Snap()
}
