package syncer

import (
	"context"

	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/result"
)

// directCopy copies node properties and link geometry verbatim. Nothing is
// routed; mapped links without source geometry keep the target geometry
// they had while it still meets its endpoints, and are reported as failed
// otherwise.
func (j *job) directCopy(ctx context.Context) (*layout.Layout, error) {
	if err := j.enter("copy"); err != nil {
		return nil, err
	}
	out := j.req.Target.Clone()
	j.m.prune(out)
	j.advance(ctx, Prepared)

	ids := j.m.targetNodes()
	for i, id := range ids {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		if p, ok := j.m.seedNode(j.req.Source, id, geom.Vector{}); ok {
			out.SetNode(p)
		}
		if err := j.tracker.Step(0.5 * float64(i+1) / float64(len(ids))); err != nil {
			return nil, err
		}
	}

	// Geometry left behind by moved nodes is dropped before copying.
	for _, id := range out.Links() {
		if _, ok := j.m.links[id]; ok && !j.exempt[id] && !j.attached(out, id) {
			out.RemoveLink(id)
		}
	}
	links := j.mappedLinks()
	var failed []string
	for i, id := range links {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		if !j.m.seedLink(j.req.Source, out, id, geom.Vector{}) && !out.HasLink(id) && !j.exempt[id] {
			failed = append(failed, id)
		}
		if err := j.tracker.Step(0.5 + 0.5*float64(i+1)/float64(len(links))); err != nil {
			return nil, err
		}
	}
	if j.req.Direction == Down && j.req.Options.Overlay != config.OverlayNone {
		for id, o := range j.req.Source.Overlays {
			out.Overlays[id] = o.Clone()
		}
	}
	j.advance(ctx, Placed)

	if len(failed) > 0 {
		j.out.Result = result.Failed(failed...)
		j.Logger.Debug("direct copy left links without geometry", "links", failed)
	}
	return out, nil
}
