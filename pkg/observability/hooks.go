// Package observability lets a binary observe regionsync without the layout
// core depending on a metrics or tracing backend.
//
// The core reports through three hook interfaces: [SyncHooks] from the sync
// orchestrator, [RouteHooks] from the link router and [CacheHooks] from the
// pipeline cache. All default to no-ops. Only main registers replacements,
// once at startup:
//
//	observability.SetSyncHooks(metrics.SyncHooks())
//
// and the core emits through the accessors:
//
//	observability.Sync().OnSyncStart(ctx, "fresh-layout", layoutID)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// SyncHooks receives events from the sync orchestrator.
type SyncHooks interface {
	// OnSyncStart records the start of a synchronization run.
	OnSyncStart(ctx context.Context, strategy, layoutID string)

	// OnPhase records a state transition and the progress reached.
	OnPhase(ctx context.Context, strategy, state string, progress float64)

	// OnMergePass records one placement engine pass.
	OnMergePass(ctx context.Context, border, multiplier, failed int)

	// OnSyncComplete records the end of a run. err is non-nil after a
	// cancellation or a transaction failure.
	OnSyncComplete(ctx context.Context, strategy string, duration time.Duration, err error)
}

// RouteHooks receives events from the link router.
type RouteHooks interface {
	// OnRouteStart records the start of a multi-pass routing run.
	OnRouteStart(ctx context.Context, links int)

	// OnRouteComplete records the outcome of a routing run.
	OnRouteComplete(ctx context.Context, routed, failed int, duration time.Duration)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// keyType is the operation the entry belongs to: sync, route or color.
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// No-op hooks, the defaults.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnSyncStart(context.Context, string, string)                  {}
func (NoopSyncHooks) OnPhase(context.Context, string, string, float64)             {}
func (NoopSyncHooks) OnMergePass(context.Context, int, int, int)                   {}
func (NoopSyncHooks) OnSyncComplete(context.Context, string, time.Duration, error) {}

type NoopRouteHooks struct{}

func (NoopRouteHooks) OnRouteStart(context.Context, int)                        {}
func (NoopRouteHooks) OnRouteComplete(context.Context, int, int, time.Duration) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// holder boxes an interface value for atomic.Pointer.
type holder[T any] struct{ h T }

var (
	syncHooks  atomic.Pointer[holder[SyncHooks]]
	routeHooks atomic.Pointer[holder[RouteHooks]]
	cacheHooks atomic.Pointer[holder[CacheHooks]]
)

func init() { Reset() }

// SetSyncHooks replaces the sync hooks. A nil h is ignored.
func SetSyncHooks(h SyncHooks) {
	if h != nil {
		syncHooks.Store(&holder[SyncHooks]{h})
	}
}

// SetRouteHooks replaces the routing hooks. A nil h is ignored.
func SetRouteHooks(h RouteHooks) {
	if h != nil {
		routeHooks.Store(&holder[RouteHooks]{h})
	}
}

// SetCacheHooks replaces the cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheHooks.Store(&holder[CacheHooks]{h})
	}
}

func Sync() SyncHooks   { return syncHooks.Load().h }
func Route() RouteHooks { return routeHooks.Load().h }
func Cache() CacheHooks { return cacheHooks.Load().h }

// Reset restores the no-op hooks. Tests that register hooks call it in
// cleanup.
func Reset() {
	syncHooks.Store(&holder[SyncHooks]{NoopSyncHooks{}})
	routeHooks.Store(&holder[RouteHooks]{NoopRouteHooks{}})
	cacheHooks.Store(&holder[CacheHooks]{NoopCacheHooks{}})
}
