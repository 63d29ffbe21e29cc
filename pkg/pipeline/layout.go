package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/cache"
	"github.com/matzehuels/regionsync/pkg/color"
	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/grid"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/merge"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/region"
	"github.com/matzehuels/regionsync/pkg/render/nodelink"
	"github.com/matzehuels/regionsync/pkg/route"
)

// RouteOptions configures [Runner.Route].
type RouteOptions struct {
	Layout     config.LayoutOptions `json:"layout"`
	Exemptions []string             `json:"exemptions,omitempty"`
	Refresh    bool                 `json:"refresh,omitempty"`

	Logger  *log.Logger      `json:"-"`
	Monitor progress.Monitor `json:"-"`
}

// ColorOptions configures [Runner.Colors].
type ColorOptions struct {
	Palette      []string          `json:"palette,omitempty"`
	Explicit     map[string]string `json:"explicit,omitempty"`
	KeepExisting bool              `json:"keep_existing,omitempty"`
	Refresh      bool              `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Route routes every link of the network drawn by the layout that no tree
// carries yet, then runs the configured optimization passes. Routing
// failures are reported, not returned.
func (r *Runner) Route(ctx context.Context, doc graph.Document, layoutID string, opts RouteOptions) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.Layout.SetDefaults()
	if err := opts.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	net, l, docHash, err := r.resolve(doc, layoutID)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.RouteKey(docHash, cache.RouteKeyOpts{
		Layout:  layoutID,
		Options: struct {
			Layout     config.LayoutOptions
			Exemptions []string
		}{opts.Layout, sortedCopy(opts.Exemptions)},
	})
	res := &Result{DocumentHash: docHash, Target: layoutID}
	if r.lookup(ctx, key, opts.Refresh, doc, res, start) {
		return res, nil
	}

	if opts.Monitor != nil {
		ctx = progress.WithMonitor(ctx, opts.Monitor)
	}
	work := l.Clone()
	rr, err := route.New(opts.Logger).MultiPassLayout(ctx, route.Request{
		Links:      net.LinkIDs(),
		Net:        net,
		Layout:     work,
		Options:    opts.Layout,
		Exemptions: set(opts.Exemptions),
	})
	if err != nil {
		if progress.Stopped(err) {
			return nil, errors.Cancelled("route")
		}
		return nil, err
	}

	fresh := entry{Layout: work, Report: NewReport(rr)}
	r.store(ctx, key, fresh, cache.TTLRoute)
	res.finish(doc, fresh, false, start)
	opts.Logger.Info("routed",
		"layout", layoutID,
		"links", net.LinkCount(),
		"failed", len(fresh.Report.FailedLinks),
		"duration", res.Stats.Duration)
	return res, nil
}

// Colors assigns link colors in the layout. Sources without a color and
// sources involved in an ambiguous junction are colored from the palette.
func (r *Runner) Colors(ctx context.Context, doc graph.Document, layoutID string, opts ColorOptions) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if len(opts.Palette) == 0 {
		opts.Palette = slices.Clone(config.DefaultPalette)
	}
	start := time.Now()

	_, l, docHash, err := r.resolve(doc, layoutID)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.ColorKey(docHash, cache.ColorKeyOpts{
		Layout:       layoutID,
		Palette:      opts.Palette,
		KeepExisting: opts.KeepExisting,
		Explicit:     opts.Explicit,
	})
	res := &Result{DocumentHash: docHash, Target: layoutID}
	if r.lookup(ctx, key, opts.Refresh, doc, res, start) {
		return res, nil
	}

	work := l.Clone()
	issues := color.AssignColors(work, grid.FromLayout(work), color.Request{
		Explicit:     opts.Explicit,
		KeepExisting: opts.KeepExisting,
		Palette:      opts.Palette,
	})

	fresh := entry{Layout: work, Report: NewReport(issues.Result())}
	r.store(ctx, key, fresh, cache.TTLColor)
	res.finish(doc, fresh, false, start)
	opts.Logger.Info("colored", "layout", layoutID, "status", issues.Status, "duration", res.Stats.Duration)
	return res, nil
}

// Regions orders the partition regions of an instance by the cross-region
// links between them. Virtual subset regions are left out.
func (r *Runner) Regions(doc graph.Document, instanceID string) (merge.Ordering, error) {
	m, err := doc.Model()
	if err != nil {
		return merge.Ordering{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "build model")
	}
	in, ok := m.Instance(instanceID)
	if !ok {
		return merge.Ordering{}, errors.New(errors.ErrCodeNotFound, "instance %s not found", instanceID)
	}
	var regions []*network.Region
	var ids []string
	for _, reg := range in.Regions() {
		if !reg.IsVirtualSubset() {
			regions = append(regions, reg)
			ids = append(ids, reg.ID)
		}
	}
	cross, err := region.CrossLinks(in.View(), regions)
	if err != nil {
		return merge.Ordering{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "instance %s", instanceID)
	}
	o := merge.OrderRegions(ids, cross)
	if len(o.Excluded) > 0 {
		r.Logger.Debug("ordering cycle broken", "instance", instanceID, "excluded", len(o.Excluded))
	}
	return o, nil
}

// WriteRegions writes the region ordering of an instance in the given
// format: json, Graphviz dot, or svg rendered from the dot source.
func (r *Runner) WriteRegions(ctx context.Context, w io.Writer, doc graph.Document, instanceID, format string, opts nodelink.Options) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}
	o, err := r.Regions(doc, instanceID)
	if err != nil {
		return err
	}
	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(o, "", "  ")
	case FormatDOT:
		data = []byte(nodelink.ToDOT(o, opts))
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(o, opts))
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

// resolve builds the model, finds the network and layout for layoutID, and
// hashes the document.
func (r *Runner) resolve(doc graph.Document, layoutID string) (*network.Network, *layout.Layout, string, error) {
	m, err := doc.Model()
	if err != nil {
		return nil, nil, "", errors.Wrap(errors.ErrCodeInvalidDocument, err, "build model")
	}
	net, err := netFor(m, layoutID)
	if err != nil {
		return nil, nil, "", err
	}
	l, ok := doc.Layout(layoutID)
	if !ok {
		return nil, nil, "", errors.New(errors.ErrCodeNotFound, "layout %s not found", layoutID)
	}
	docHash, err := hashDocument(doc)
	if err != nil {
		return nil, nil, "", err
	}
	return net, l, docHash, nil
}

// lookup fills res from the cache and reports whether it hit.
func (r *Runner) lookup(ctx context.Context, key string, refresh bool, doc graph.Document, res *Result, start time.Time) bool {
	if refresh {
		return false
	}
	var cached entry
	if err := cache.GetJSON(ctx, r.Cache, key, &cached); err != nil || cached.Layout == nil {
		return false
	}
	res.finish(doc, cached, true, start)
	return true
}

func set(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
