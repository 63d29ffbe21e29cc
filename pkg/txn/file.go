package txn

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// FileJournal is a file-based delta journal for CLI usage. Deltas are
// stored as JSON files, one directory per layout.
type FileJournal struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileJournal creates a journal rooted at baseDir.
// If baseDir is empty, defaults to ~/.config/regionsync/journal/
func NewFileJournal(baseDir string) (*FileJournal, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "regionsync", "journal")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &FileJournal{baseDir: baseDir}, nil
}

func (j *FileJournal) layoutDir(layoutID string) string {
	return filepath.Join(j.baseDir, filepath.Base(layoutID))
}

func (j *FileJournal) Append(ctx context.Context, d Delta) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal delta: %w", err)
	}
	dir := j.layoutDir(d.LayoutID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	name := d.Finished.UTC().Format("20060102T150405.000000000Z") + "_" + d.ID + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
		return fmt.Errorf("write delta file: %w", err)
	}
	return nil
}

// List returns the journaled deltas of a layout, oldest first. Unreadable
// files are skipped.
func (j *FileJournal) List(ctx context.Context, layoutID string) ([]Delta, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries, err := os.ReadDir(j.layoutDir(layoutID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal dir: %w", err)
	}

	var out []Delta
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(j.layoutDir(layoutID), entry.Name()))
		if err != nil {
			continue
		}
		var d Delta
		if err := json.Unmarshal(data, &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Delta) int {
		if c := a.Finished.Compare(b.Finished); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Path returns the base directory for journal files.
func (j *FileJournal) Path() string {
	return j.baseDir
}

var _ Journal = (*FileJournal)(nil)
