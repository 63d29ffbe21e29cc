// Package config defines LayoutOptions, the named toggles every layout
// component consults, and loads them from TOML files.
//
// Options are immutable for the duration of one operation: components take
// them by value and never write back.
//
// # Usage
//
//	opts := config.Defaults()
//	opts.SwitchPads = true
//	if err := opts.Validate(); err != nil {
//	    return err
//	}
//
// Or from a file, where missing keys keep their default values:
//
//	opts, err := config.Load("regionsync.toml")
package config

import (
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/regionsync/pkg/errors"
)

// OverlayOption selects how overlay module shapes are treated during a sync.
type OverlayOption string

const (
	// OverlayNone drops overlay modules from the synchronized layout.
	OverlayNone OverlayOption = "none"
	// OverlayRelayout slices modules at region bounds and rebuilds them
	// around the merged regions.
	OverlayRelayout OverlayOption = "relayout"
	// OverlayPreserve copies module shapes unchanged.
	OverlayPreserve OverlayOption = "preserve"
)

const (
	// DefaultOptimizationPasses is the number of corner-reduction passes run
	// after routing.
	DefaultOptimizationPasses = 2

	// DefaultBorderSize is the base padding, in grid units, kept between
	// packed regions.
	DefaultBorderSize = 1

	// MaxExpansionCap bounds the number of expansion passes a merge may
	// attempt after the zero-expansion pass.
	MaxExpansionCap = 3
)

// DefaultPalette is the link color palette cycled by color assignment.
var DefaultPalette = []string{
	"#1f77b4", "#d62728", "#2ca02c", "#9467bd",
	"#ff7f0e", "#17becf", "#8c564b", "#e377c2",
	"#7f7f7f", "#bcbd22",
}

// LayoutOptions holds the configuration consulted by every layout component.
type LayoutOptions struct {
	// InheritanceSquash tries to compress packed regions after a fresh
	// layout, keeping the squashed result only when it routes cleanly.
	InheritanceSquash bool `toml:"inheritance_squash" json:"inheritance_squash"`

	// Overlay selects how overlay modules are handled.
	Overlay OverlayOption `toml:"overlay" json:"overlay"`

	// OptimizationPasses is the number of OptimizeLinks passes after routing.
	// Zero disables optimization.
	OptimizationPasses int `toml:"optimization_passes" json:"optimization_passes"`

	// SwitchPads lets the router move a link to another free landing pad.
	SwitchPads bool `toml:"switch_pads" json:"switch_pads"`

	// BorderSize is the base padding between regions in grid units.
	BorderSize int `toml:"border_size" json:"border_size"`

	// MaxExpansion caps the expansion passes of the placement engine.
	MaxExpansion int `toml:"max_expansion" json:"max_expansion"`

	// Palette lists the link colors in assignment order.
	Palette []string `toml:"palette" json:"palette,omitempty"`
}

// Defaults returns the default options.
func Defaults() LayoutOptions {
	return LayoutOptions{
		Overlay:            OverlayRelayout,
		OptimizationPasses: DefaultOptimizationPasses,
		BorderSize:         DefaultBorderSize,
		MaxExpansion:       MaxExpansionCap,
		Palette:            slices.Clone(DefaultPalette),
	}
}

// SetDefaults fills fields whose zero value is not meaningful. Zero
// OptimizationPasses and MaxExpansion are legal and left alone.
func (o *LayoutOptions) SetDefaults() {
	if o.Overlay == "" {
		o.Overlay = OverlayRelayout
	}
	if o.BorderSize == 0 {
		o.BorderSize = DefaultBorderSize
	}
	if len(o.Palette) == 0 {
		o.Palette = slices.Clone(DefaultPalette)
	}
}

// Validate checks option ranges.
func (o LayoutOptions) Validate() error {
	switch o.Overlay {
	case OverlayNone, OverlayRelayout, OverlayPreserve:
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "invalid overlay option: %q (must be one of: none, relayout, preserve)", o.Overlay)
	}
	if o.OptimizationPasses < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "optimization_passes must be >= 0, got %d", o.OptimizationPasses)
	}
	if o.BorderSize < 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "border_size must be >= 1, got %d", o.BorderSize)
	}
	if o.MaxExpansion < 0 || o.MaxExpansion > MaxExpansionCap {
		return errors.New(errors.ErrCodeInvalidOptions, "max_expansion must be in [0,%d], got %d", MaxExpansionCap, o.MaxExpansion)
	}
	if len(o.Palette) == 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "palette must not be empty")
	}
	seen := make(map[string]bool, len(o.Palette))
	for _, c := range o.Palette {
		key := strings.ToLower(c)
		if seen[key] {
			return errors.New(errors.ErrCodeInvalidOptions, "duplicate palette color %q", c)
		}
		seen[key] = true
	}
	return nil
}

// Load reads options from a TOML file on top of [Defaults]. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(path string) (LayoutOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LayoutOptions{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
		}
		return LayoutOptions{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML options on top of [Defaults].
func Parse(data []byte) (LayoutOptions, error) {
	opts := Defaults()
	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return LayoutOptions{}, errors.Wrap(errors.ErrCodeInvalidOptions, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return LayoutOptions{}, errors.New(errors.ErrCodeInvalidOptions, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := opts.Validate(); err != nil {
		return LayoutOptions{}, err
	}
	return opts, nil
}
