package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/stackscan/pkg/cache"
)

// DefaultProbeTTL is how long a probe result is remembered.
const DefaultProbeTTL = 7 * 24 * time.Hour

// ProberOptions configures a [Prober].
type ProberOptions struct {
	Client *http.Client  // defaults to NewClient(ConnectTimeout)
	Cache  cache.Cache   // defaults to a NullCache
	Keyer  cache.Keyer   // defaults to cache.NewDefaultKeyer()
	TTL    time.Duration // defaults to DefaultProbeTTL

	// ConnectTimeout is used only when Client is nil.
	ConnectTimeout time.Duration
}

// Prober answers whether a URL responds with HTTP 200.
// It is safe for concurrent use.
type Prober struct {
	client *http.Client
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	group  singleflight.Group
}

// NewProber creates a Prober.
func NewProber(opts ProberOptions) *Prober {
	if opts.Client == nil {
		opts.Client = NewClient(opts.ConnectTimeout)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NullCache{}
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultProbeTTL
	}
	return &Prober{
		client: opts.Client,
		cache:  opts.Cache,
		keyer:  opts.Keyer,
		ttl:    opts.TTL,
	}
}

var (
	probeYes = []byte{'1'}
	probeNo  = []byte{'0'}
)

// Exists reports whether rawURL answers with status 200. A transport
// error yields (false, err); only definite answers are cached.
func (p *Prober) Exists(ctx context.Context, rawURL string) (bool, error) {
	key := p.keyer.ProbeKey(rawURL)
	if data, ok, err := p.cache.Get(ctx, key); err == nil && ok {
		return len(data) == 1 && data[0] == '1', nil
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		resp, err := Get(ctx, p.client, rawURL)
		if err != nil {
			return false, err
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		ok := resp.StatusCode == http.StatusOK
		val := probeNo
		if ok {
			val = probeYes
		}
		_ = p.cache.Set(ctx, key, val, p.ttl)
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
