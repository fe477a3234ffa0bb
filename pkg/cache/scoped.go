package cache

// ScopedKeyer wraps a Keyer with a prefix.
// Scans that must not share probe results (for example when a custom
// stdlib mirror is configured) use separate scopes.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "mirror:internal:")
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ProbeKey generates a prefixed key for probe results.
func (k *ScopedKeyer) ProbeKey(url string) string {
	return k.prefix + k.inner.ProbeKey(url)
}

// EnrichKey generates a prefixed key for enrichment results.
func (k *ScopedKeyer) EnrichKey(purl string) string {
	return k.prefix + k.inner.EnrichKey(purl)
}
