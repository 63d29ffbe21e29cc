// Package pipeline runs layout operations on project documents for the CLI
// and the API.
//
// This package wires the layout core to documents, caching and logging. By
// centralizing this logic, every entry point behaves the same way.
//
// # Operations
//
//   - Sync: synchronize an instance layout with the root layout, in either
//     direction, through [syncer.Syncer]
//   - Route: route every unrouted link of one layout
//   - Colors: assign link colors of one layout
//   - Regions: order the regions of an instance and draw the region graph
//
// Sync, Route and Colors are cached by a hash of the document and the
// options that influence their result.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Sync(ctx, doc, pipeline.Options{
//	    Instance: "I1",
//	    Strategy: "incremental",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph.WriteDocumentFile(res.Document, "out.json")
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/cache"
	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/syncer"
)

// Format constants for region graph output.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported region graph formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// =============================================================================
// Options - Sync Configuration
// =============================================================================

// Options contains the configuration of one synchronization.
// This struct supports JSON serialization for API requests.
type Options struct {
	Instance  string `json:"instance"`
	Direction string `json:"direction,omitempty"` // "down" (default) or "up"
	Strategy  string `json:"strategy,omitempty"`  // "auto" (default) or a strategy name

	Regions    []string          `json:"regions,omitempty"`    // rebuilt by sync-to-existing
	Exemptions []string          `json:"exemptions,omitempty"` // links kept as they are
	Colors     map[string]string `json:"colors,omitempty"`     // explicit source colors
	KeepColors bool              `json:"keep_colors,omitempty"`

	Layout config.LayoutOptions `json:"layout"`

	// Refresh skips the cache lookup; the fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger      `json:"-"`
	Monitor progress.Monitor `json:"-"`

	direction syncer.Direction
	strategy  syncer.Strategy
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Instance == "" {
		return errors.New(errors.ErrCodeInvalidInput, "instance is required")
	}
	d, err := syncer.ParseDirection(o.Direction)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOptions, err, "direction")
	}
	s, err := syncer.ParseStrategy(defaultString(o.Strategy, syncer.Auto.String()))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOptions, err, "strategy")
	}
	o.Direction, o.Strategy = d.String(), s.String()
	o.direction, o.strategy = d, s

	o.Layout.SetDefaults()
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SyncKeyOpts returns cache key options for synchronization.
func (o *Options) SyncKeyOpts() cache.SyncKeyOpts {
	return cache.SyncKeyOpts{
		Instance:   o.Instance,
		Direction:  o.Direction,
		Strategy:   o.Strategy,
		Regions:    sortedCopy(o.Regions),
		Exemptions: sortedCopy(o.Exemptions),
		Colors:     o.Colors,
		KeepColors: o.KeepColors,
		Options:    o.Layout,
	}
}

// sourceTarget returns the layout keys read and written by the sync.
func (o *Options) sourceTarget() (src, dst string) {
	if o.direction == syncer.Up {
		return o.Instance, graph.RootLayout
	}
	return graph.RootLayout, o.Instance
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a synchronization.
type Result struct {
	// Document is the input document with the target layout replaced.
	Document graph.Document

	// DocumentHash is the content hash of the input document.
	DocumentHash string

	// Target is the key of the layout that was written.
	Target string

	Report Report
	Stats  Stats

	// CacheHit reports whether the result came from the cache.
	CacheHit bool
}

// Stats contains execution statistics.
type Stats struct {
	Nodes    int
	Links    int
	Duration time.Duration
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func sortedCopy(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
