// Package cache provides the key/value store behind stdlib probes and
// registry lookups.
//
// Backends:
//   - [NullCache]: never stores anything
//   - [MemoryCache]: bounded in-process LRU
//   - [FileCache]: JSON entries under a directory, for CLI use
//   - [RedisCache]: shared cache for multi-instance deployments
//   - [MongoCache]: document store with a TTL index
//
// Keys are produced by a [Keyer] so that every backend sees the same
// namespace layout.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is the storage contract shared by all backends.
// A missing or expired key is reported as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key type prefixes. The first segment of every key names its type,
// which is what [Instrumented] reports to the cache hooks.
const (
	KeyTypeHTTP   = "http"
	KeyTypeProbe  = "probe"
	KeyTypeEnrich = "enrich"
)

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is used for raw registry responses.
	HTTPKey(namespace, key string) string

	// ProbeKey is used for memoized stdlib documentation probes.
	ProbeKey(url string) string

	// EnrichKey is used for resolved enrichment results of one package URL.
	EnrichKey(purl string) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard key layout.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return KeyTypeHTTP + ":" + namespace + ":" + key
}

// ProbeKey hashes the URL so arbitrary URLs stay safe for every backend.
func (DefaultKeyer) ProbeKey(url string) string {
	return hashKey(KeyTypeProbe, url)
}

// EnrichKey hashes the package URL.
func (DefaultKeyer) EnrichKey(purl string) string {
	return hashKey(KeyTypeEnrich, purl)
}

// hashKey returns "<prefix>:<sha256 hex of parts joined by NUL>".
func hashKey(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// keyType returns the leading segment of a key, skipping scope prefixes
// added by [ScopedKeyer].
func keyType(key string) string {
	for _, seg := range strings.Split(key, ":") {
		switch seg {
		case KeyTypeHTTP, KeyTypeProbe, KeyTypeEnrich:
			return seg
		}
	}
	return "other"
}
