// Package cache stores synchronization, routing and coloring results keyed
// by the content they were computed from.
//
// # Backends
//
//   - [NullCache] never stores anything
//   - [FileCache] keeps entries as JSON files for CLI usage
//   - [RedisCache] shares entries between API instances
//
// # Keys
//
// A [Keyer] derives keys from a hash of the input document and the options
// that influence the result, so a changed option never hits a stale entry.
// [ScopedKeyer] prefixes every key for per-tenant isolation.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/regionsync/pkg/observability"
)

// Entry lifetimes per result kind.
const (
	TTLSync  = 24 * time.Hour
	TTLRoute = 24 * time.Hour
	TTLColor = 7 * 24 * time.Hour
)

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the entry stored under key into v. A missing or
// undecodable entry returns ErrCacheMiss.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
		return ErrCacheMiss
	}
	observability.Cache().OnCacheHit(ctx, keyType(key))
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

// keyType returns the operation of a key built by a [Keyer]: the segment
// before the hash, past any scope prefix.
func keyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return ""
	}
	key = key[:i]
	return key[strings.LastIndexByte(key, ':')+1:]
}

// SyncKeyOpts are the sync inputs besides the document that affect the
// result.
type SyncKeyOpts struct {
	Instance   string   `json:"instance"`
	Direction  string   `json:"direction"`
	Strategy   string   `json:"strategy"`
	Regions    []string `json:"regions,omitempty"`
	Exemptions []string `json:"exemptions,omitempty"`
	Colors     any      `json:"colors,omitempty"`
	KeepColors bool     `json:"keep_colors,omitempty"`
	Options    any      `json:"options"`
}

// RouteKeyOpts are the routing inputs besides the layout.
type RouteKeyOpts struct {
	Layout  string `json:"layout"`
	Options any    `json:"options"`
}

// ColorKeyOpts are the coloring inputs besides the layout.
type ColorKeyOpts struct {
	Layout       string   `json:"layout"`
	Palette      []string `json:"palette,omitempty"`
	KeepExisting bool     `json:"keep_existing,omitempty"`
	Explicit     any      `json:"explicit,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	SyncKey(docHash string, opts SyncKeyOpts) string
	RouteKey(docHash string, opts RouteKeyOpts) string
	ColorKey(docHash string, opts ColorKeyOpts) string
}

// DefaultKeyer hashes the document hash and options into
// "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) SyncKey(docHash string, opts SyncKeyOpts) string {
	return hashKey("sync", docHash, opts)
}

func (DefaultKeyer) RouteKey(docHash string, opts RouteKeyOpts) string {
	return hashKey("route", docHash, opts)
}

func (DefaultKeyer) ColorKey(docHash string, opts ColorKeyOpts) string {
	return hashKey("color", docHash, opts)
}
