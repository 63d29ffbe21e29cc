package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/regionsync/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	s1 := k.SyncKey("doc", SyncKeyOpts{Instance: "I1", Direction: "down", Options: map[string]int{"border_size": 1}})
	s2 := k.SyncKey("doc", SyncKeyOpts{Instance: "I1", Direction: "down", Options: map[string]int{"border_size": 2}})
	if s1 == s2 {
		t.Error("different SyncKeyOpts produced the same key")
	}
	if !strings.HasPrefix(s1, "sync:") || len(s1) != len("sync:")+64 {
		t.Errorf("SyncKey() = %s, want sync:<sha256>", s1)
	}
	if again := k.SyncKey("doc", SyncKeyOpts{Instance: "I1", Direction: "down", Options: map[string]int{"border_size": 1}}); again != s1 {
		t.Errorf("SyncKey() not deterministic: %s != %s", again, s1)
	}

	r1 := k.RouteKey("doc", RouteKeyOpts{Layout: "root"})
	r2 := k.RouteKey("other", RouteKeyOpts{Layout: "root"})
	if r1 == r2 {
		t.Error("different documents produced the same route key")
	}

	c1 := k.ColorKey("doc", ColorKeyOpts{Layout: "I1", KeepExisting: true})
	c2 := k.ColorKey("doc", ColorKeyOpts{Layout: "I1"})
	if c1 == c2 {
		t.Error("different ColorKeyOpts produced the same key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "ws:123:")
	tests := []struct {
		name string
		key  string
	}{
		{"sync", scoped.SyncKey("doc", SyncKeyOpts{})},
		{"route", scoped.RouteKey("doc", RouteKeyOpts{})},
		{"color", scoped.ColorKey("doc", ColorKeyOpts{})},
	}
	for _, tt := range tests {
		if !strings.HasPrefix(tt.key, "ws:123:"+tt.name+":") {
			t.Errorf("%s key = %s, want ws:123:%s: prefix", tt.name, tt.key, tt.name)
		}
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().RouteKey("doc", RouteKeyOpts{Layout: "L"})
	if got := scoped.RouteKey("doc", RouteKeyOpts{Layout: "L"}); got != want {
		t.Errorf("RouteKey() = %s, want %s", got, want)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v; want v, true, nil", data, hit, err)
	}

	if err := c.Set(ctx, "old", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry returned")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry returned")
	}
	if err := c.Delete(ctx, "never"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cc, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	c := cc.(*FileCache)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "fresh", []byte("1"), time.Hour)
	_ = c.Set(ctx, "stale", []byte("2"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("3"), 0)
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(10 * time.Minute)
	removed, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() = %d, want 2 (stale and junk)", removed)
	}
	for key, want := range map[string]bool{"fresh": true, "stale": false, "forever": true} {
		if _, hit, _ := c.Get(ctx, key); hit != want {
			t.Errorf("Get(%s) hit = %v, want %v", key, hit, want)
		}
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	type entry struct {
		Links []string `json:"links"`
	}

	var got entry
	if err := GetJSON(ctx, c, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(missing) error = %v, want ErrCacheMiss", err)
	}
	if err := SetJSON(ctx, c, "k", entry{Links: []string{"ab"}}, 0); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := GetJSON(ctx, c, "k", &got); err != nil || len(got.Links) != 1 || got.Links[0] != "ab" {
		t.Errorf("GetJSON() = %+v, %v", got, err)
	}

	_ = c.Set(ctx, "bad", []byte("{"), 0)
	if err := GetJSON(ctx, c, "bad", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(corrupt) error = %v, want ErrCacheMiss", err)
	}
}

func TestKeyType(t *testing.T) {
	scoped := NewScopedKeyer(nil, "ws1:")
	tests := []struct {
		key  string
		want string
	}{
		{NewDefaultKeyer().SyncKey("doc", SyncKeyOpts{}), "sync"},
		{scoped.ColorKey("doc", ColorKeyOpts{}), "color"},
		{"plain", ""},
	}
	for _, tt := range tests {
		if got := keyType(tt.key); got != tt.want {
			t.Errorf("keyType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

type kindRecorder struct {
	observability.NoopCacheHooks
	events []string
}

func (r *kindRecorder) OnCacheHit(_ context.Context, kind string)  { r.events = append(r.events, "hit:"+kind) }
func (r *kindRecorder) OnCacheMiss(_ context.Context, kind string) { r.events = append(r.events, "miss:"+kind) }
func (r *kindRecorder) OnCacheSet(_ context.Context, kind string, _ int) {
	r.events = append(r.events, "set:"+kind)
}

func TestJSONHelpersReportKind(t *testing.T) {
	rec := &kindRecorder{}
	observability.SetCacheHooks(rec)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := NewDefaultKeyer().RouteKey("doc", RouteKeyOpts{Layout: "root"})
	var v []int
	_ = GetJSON(ctx, c, key, &v)
	_ = SetJSON(ctx, c, key, []int{1}, 0)
	_ = GetJSON(ctx, c, key, &v)

	want := []string{"miss:route", "set:route", "hit:route"}
	if strings.Join(rec.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisConfig{URL: "http://localhost"}); err == nil {
		t.Error("NewRedisCache() error = nil for a non-redis URL")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewRedisCacheFor(client, "test:")

	_, _, err := c.Get(context.Background(), "k")
	if !errors.Is(err, ErrNetwork) || !IsRetryable(err) {
		t.Errorf("Get() error = %v, want retryable ErrNetwork", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("Retryable(ErrNetwork) = %v, want retryable ErrNetwork", err)
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), ErrNetwork.Error())
	}
	if IsRetryable(ErrCacheMiss) {
		t.Error("IsRetryable(ErrCacheMiss) = true")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	tests := []struct {
		name      string
		failures  int
		fail      error
		wantErr   error
		wantCalls int
	}{
		{"FirstTry", 0, nil, nil, 1},
		{"NotRetryable", 5, ErrCacheMiss, ErrCacheMiss, 1},
		{"RecoversAfterRetry", 1, Retryable(ErrNetwork), nil, 2},
		{"GivesUp", 5, Retryable(ErrNetwork), ErrNetwork, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.fail
				}
				return nil
			})
			if tt.wantErr == nil && err != nil || tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("RetryWithBackoff() = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("RetryWithBackoff() = %v, want context.Canceled", err)
	}
}
