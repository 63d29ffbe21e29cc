package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants can share one
// backend without seeing each other's entries.
//
// Example usage:
//
//	// Keys of one workspace
//	k := NewScopedKeyer(NewDefaultKeyer(), "ws:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) SyncKey(docHash string, opts SyncKeyOpts) string {
	return k.prefix + k.inner.SyncKey(docHash, opts)
}

func (k *ScopedKeyer) RouteKey(docHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(docHash, opts)
}

func (k *ScopedKeyer) ColorKey(docHash string, opts ColorKeyOpts) string {
	return k.prefix + k.inner.ColorKey(docHash, opts)
}
