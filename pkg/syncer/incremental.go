package syncer

import (
	"context"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/merge"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/recovery"
	"github.com/matzehuels/regionsync/pkg/region"
	"github.com/matzehuels/regionsync/pkg/result"
)

// incremental keeps the target's geometry and places only what is new.
// New nodes follow the displacement of their nearest existing neighbor,
// new links reuse source geometry when their endpoints allow it, and links
// whose geometry no longer meets its endpoints are rerouted. When new nodes
// enlarge a region, the regions are grown apart and cross-region links are
// recovered.
func (j *job) incremental(ctx context.Context) (*layout.Layout, error) {
	if err := j.enter("prepare"); err != nil {
		return nil, err
	}
	out := j.req.Target.Clone()
	j.m.prune(out)

	var before *region.Decomposition
	if len(j.m.regions) > 0 {
		var err error
		if before, err = j.decomposer.Decompose(j.m.net, out, j.m.regions, j.req.Options); err != nil {
			return nil, err
		}
	}
	var stale []string
	for _, id := range out.Links() {
		if _, ok := j.m.links[id]; ok && !j.exempt[id] && !j.attached(out, id) {
			out.RemoveLink(id)
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		j.Logger.Debug("detached links dropped", "links", stale)
	}
	j.advance(ctx, Prepared)

	if err := j.enter("place"); err != nil {
		return nil, err
	}
	ids := j.m.targetNodes()
	var added []string
	for i, id := range ids {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		if err := j.tracker.Step(float64(i+1) / float64(len(ids))); err != nil {
			return nil, err
		}
		if _, ok := out.Nodes[id]; ok {
			continue
		}
		if p, ok := j.m.seedNode(j.req.Source, id, j.offset(out, id)); ok {
			out.SetNode(place(out, p))
			added = append(added, id)
		}
	}
	for _, id := range missing(out, j.mappedLinks()) {
		lk, _ := j.m.net.Link(id)
		if sp, ok := j.req.Source.Nodes[j.m.nodes[lk.Source]]; ok {
			if n, ok := out.Nodes[lk.Source]; ok {
				j.m.seedLink(j.req.Source, out, id, n.Location.Sub(sp.Location))
			}
		}
	}
	if before != nil && len(added) > 0 {
		grown, err := j.growRegions(ctx, out, before)
		if err != nil {
			return nil, err
		}
		out = grown
	}
	j.advance(ctx, Placed)

	if err := j.enter("route"); err != nil {
		return nil, err
	}
	res, err := j.routeLinks(ctx, out, missing(out, j.mappedLinks()), nil)
	if err != nil {
		return nil, err
	}
	j.advance(ctx, Routed)

	if err := j.enter("finalize"); err != nil {
		return nil, err
	}
	j.out.Result = result.Merge(res, j.colorLinks(out))
	j.advance(ctx, Colored)
	return out, nil
}

// growRegions makes room for regions whose content outgrew their previous
// bounds into another region. Regions move apart as needed, and
// cross-region link geometry is recovered against the moved regions.
func (j *job) growRegions(ctx context.Context, l *layout.Layout, before *region.Decomposition) (*layout.Layout, error) {
	after, err := j.decomposer.Decompose(j.m.net, l, j.m.regions, j.req.Options)
	if err != nil {
		return nil, err
	}
	pad := float64(j.req.Options.BorderSize) * geom.GridUnit
	if !crowded(before.Bounds, after.Bounds, pad) {
		return l, nil
	}
	deltas := merge.GrowToFit(before.Bounds, after.Bounds, merge.Padding{Pad: pad})
	moving := false
	for _, v := range deltas {
		if !v.IsZero() {
			moving = true
			break
		}
	}
	if !moving {
		return l, nil
	}
	if err := progress.Check(ctx); err != nil {
		return nil, err
	}

	trees, err := recovery.Extract(recovery.ExtractParams{
		Old:        l,
		Bounds:     after.Bounds,
		CrossLinks: after.CrossLinks,
		Exemptions: j.exempt,
	})
	if err != nil {
		return nil, err
	}
	merged, err := merge.MergeAll(l, after.Layouts, deltas, &after.Slices)
	if err != nil {
		return nil, err
	}
	moved := make(map[string]geom.Rect, len(after.Bounds))
	for id, b := range after.Bounds {
		moved[id] = b.Translate(deltas[id])
	}
	rep := recovery.Reproject(trees, recovery.Frame{Bounds: moved, Layout: merged})
	if unrouted := recovery.Apply(merged, trees, rep); len(unrouted) > 0 {
		j.Logger.Debug("cross links left for routing", "links", unrouted)
	}
	j.Logger.Debug("regions grown", "deltas", len(deltas))
	return merged, nil
}

// crowded reports whether a region that grew now comes closer than pad to
// another region.
func crowded(before, after map[string]geom.Rect, pad float64) bool {
	for id, b := range after {
		if b == before[id] || b.Empty() {
			continue
		}
		grown := b.Inset(pad)
		for other, o := range after {
			if other != id && !o.Empty() && grown.Overlaps(o) {
				return true
			}
		}
	}
	return false
}
