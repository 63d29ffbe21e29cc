package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/regionsync/pkg/layout"
)

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout converts a layout to indented JSON bytes.
func MarshalLayout(l *layout.Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// WriteLayoutFile writes a single layout to a JSON file.
func WriteLayoutFile(l *layout.Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(l, f)
}

// ReadLayoutFile reads a single layout from a JSON file.
func ReadLayoutFile(path string) (*layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// ReadLayout decodes and validates a single layout.
func ReadLayout(r io.Reader) (*layout.Layout, error) {
	var l layout.Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", l.ID, err)
	}
	return &l, nil
}
