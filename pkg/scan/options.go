package scan

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/extract"
	"github.com/matzehuels/stackscan/pkg/extract/manifest"
	"github.com/matzehuels/stackscan/pkg/httputil"
	"github.com/matzehuels/stackscan/pkg/query"
)

// Default values shared by the CLI and library callers.
const (
	DefaultWorkers      = 16
	DefaultBatchTimeout = time.Minute
	DefaultProbeTimeout = httputil.DefaultConnectTimeout
	DefaultCacheTTL     = 24 * time.Hour
)

// Options configures [NewDefault].
type Options struct {
	// Enrich enables registry lookups for manifest dependencies.
	Enrich bool

	// StdlibCheck enables LANGUAGE classification through documentation
	// probes. Without it no import is classified LANGUAGE.
	StdlibCheck bool

	// ContextPasses enables the dead-import and subprocess passes.
	ContextPasses bool

	Workers      int           // concurrent queries per batch (default: 16)
	BatchTimeout time.Duration // deadline of one query batch (default: 1m)
	ProbeTimeout time.Duration // connect timeout of every request (default: 1s)

	// StdlibBases overrides a grammar's documentation root, keyed by
	// grammar name ("python", "java").
	StdlibBases map[string]string

	// Cache memoizes probes, registry responses and enrichments.
	Cache    cache.Cache
	Keyer    cache.Keyer
	CacheTTL time.Duration // default: 24h

	GitHubToken string
	GitLabToken string

	// Clients replaces the public registry clients, e.g. with clients
	// pointed at a mirror.
	Clients *manifest.Clients

	Logger *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = DefaultBatchTimeout
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Cache == nil {
		opts.Cache = cache.NullCache{}
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Env returns the extractor environment described by o.
func (o Options) Env() extract.Env {
	o = o.WithDefaults()
	env := extract.Env{
		Logger: o.Logger,
		Client: httputil.NewClient(o.ProbeTimeout),
		Query: query.Options{
			Workers: o.Workers,
			Timeout: o.BatchTimeout,
			Logger:  o.Logger,
		},
		Enrich: o.Enrich,
	}
	if o.StdlibCheck {
		env.Prober = httputil.NewProber(httputil.ProberOptions{
			Client: env.Client,
			Cache:  o.Cache,
			Keyer:  o.Keyer,
		})
	}
	return env
}

// RegistryClients returns o.Clients, or public registry clients sharing
// o's cache when enrichment is enabled.
func (o Options) RegistryClients() *manifest.Clients {
	o = o.WithDefaults()
	if o.Clients != nil || !o.Enrich {
		return o.Clients
	}
	return manifest.NewClients(manifest.ClientOptions{
		Cache:       o.Cache,
		Keyer:       o.Keyer,
		TTL:         o.CacheTTL,
		GitHubToken: o.GitHubToken,
		GitLabToken: o.GitLabToken,
	})
}
