package manifest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations/anaconda"
	"github.com/matzehuels/stackscan/pkg/integrations/crates"
	"github.com/matzehuels/stackscan/pkg/integrations/github"
	"github.com/matzehuels/stackscan/pkg/integrations/gitlab"
	"github.com/matzehuels/stackscan/pkg/integrations/goproxy"
	"github.com/matzehuels/stackscan/pkg/integrations/maven"
	"github.com/matzehuels/stackscan/pkg/integrations/npm"
	"github.com/matzehuels/stackscan/pkg/integrations/nuget"
	"github.com/matzehuels/stackscan/pkg/integrations/packagist"
	"github.com/matzehuels/stackscan/pkg/integrations/pypi"
	"github.com/matzehuels/stackscan/pkg/integrations/rubygems"
	"github.com/matzehuels/stackscan/pkg/purl"
	"github.com/matzehuels/stackscan/pkg/query"
)

// Clients holds one registry client per package URL type. A nil client
// disables enrichment for its type.
type Clients struct {
	PyPI      *pypi.Client
	Maven     *maven.Client
	NuGet     *nuget.Client
	NPM       *npm.Client
	Crates    *crates.Client
	RubyGems  *rubygems.Client
	Packagist *packagist.Client
	Anaconda  *anaconda.Client
	GoProxy   *goproxy.Client
	GitHub    *github.Client
	GitLab    *gitlab.Client

	// Cache memoizes resolved enrichments by package URL when set.
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration
}

// ClientOptions configures [NewClients].
type ClientOptions struct {
	Cache       cache.Cache   // response cache shared by all clients (nil: no caching)
	Keyer       cache.Keyer   // enrichment key layout (default: cache.NewDefaultKeyer())
	TTL         time.Duration // cache TTL (default: 24h)
	GitHubToken string
	GitLabToken string
}

// NewClients creates every registry client against the public registries.
func NewClients(opts ClientOptions) *Clients {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := opts.Cache
	return &Clients{
		PyPI:      pypi.NewClient(c, ttl),
		Maven:     maven.NewClient(c, ttl),
		NuGet:     nuget.NewClient(c, ttl),
		NPM:       npm.NewClient(c, ttl),
		Crates:    crates.NewClient(c, ttl),
		RubyGems:  rubygems.NewClient(c, ttl),
		Packagist: packagist.NewClient(c, ttl),
		Anaconda:  anaconda.NewClient(c, ttl),
		GoProxy:   goproxy.NewClient(c, ttl),
		GitHub:    github.NewClient(c, opts.GitHubToken, ttl),
		GitLab:    gitlab.NewClient(c, opts.GitLabToken, ttl),
		Cache:     c,
		Keyer:     opts.Keyer,
		TTL:       ttl,
	}
}

type enricher interface {
	Enrichment() component.Enrichment
}

func enrichment(v enricher, err error) (component.Enrichment, error) {
	if err != nil {
		return component.Enrichment{}, err
	}
	return v.Enrichment(), nil
}

// Fetch returns the registry lookup for p, or false when no client serves
// its type. With a cache configured, resolved enrichments are memoized
// per package URL.
func (c *Clients) Fetch(p purl.PackageURL) (query.Fetch, bool) {
	if c == nil {
		return nil, false
	}
	fetch, ok := c.lookup(p)
	if !ok || c.Cache == nil {
		return fetch, ok
	}
	id, err := purl.Build(p)
	if err != nil {
		return fetch, true
	}
	return c.memoize(id, fetch), true
}

func (c *Clients) memoize(id string, fetch query.Fetch) query.Fetch {
	keyer := c.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.EnrichKey(id)
	return func(ctx context.Context) (component.Enrichment, error) {
		var e component.Enrichment
		if data, hit, err := c.Cache.Get(ctx, key); err == nil && hit {
			if json.Unmarshal(data, &e) == nil {
				return e, nil
			}
		}
		e, err := fetch(ctx)
		if err != nil {
			return e, err
		}
		if data, err := json.Marshal(e); err == nil {
			_ = c.Cache.Set(ctx, key, data, c.TTL)
		}
		return e, nil
	}
}

func (c *Clients) lookup(p purl.PackageURL) (query.Fetch, bool) {
	full := p.Name
	if p.Namespace != "" {
		full = p.Namespace + "/" + p.Name
	}

	switch p.Type {
	case purl.TypePyPi:
		if c.PyPI != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.PyPI.FetchPackage(ctx, p.Name, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeMaven:
		if c.Maven != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.Maven.FetchArtifact(ctx, p.Namespace+":"+p.Name, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeNuget:
		if c.NuGet != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.NuGet.FetchPackage(ctx, p.Name, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeNPM:
		if c.NPM != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.NPM.FetchPackage(ctx, full, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeCargo:
		if c.Crates != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.Crates.FetchCrate(ctx, p.Name, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeGem:
		if c.RubyGems != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.RubyGems.FetchGem(ctx, p.Name, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeComposer:
		if c.Packagist != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.Packagist.FetchPackage(ctx, full, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeConda:
		if c.Anaconda != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				info, err := c.Anaconda.FetchPackage(ctx, p.Qualifiers["channel"], p.Name, p.Version, false)
				return enrichment(info, err)
			}, true
		}
	case purl.TypeGolang:
		if c.GoProxy != nil || c.GitHub != nil || c.GitLab != nil {
			return func(ctx context.Context) (component.Enrichment, error) {
				return c.fetchGo(ctx, full, p.Version)
			}, true
		}
	}
	return nil, false
}

// fetchGo combines the checksum database hash with the license of the
// hosting repository. It fails only when every lookup fails.
func (c *Clients) fetchGo(ctx context.Context, mod, version string) (component.Enrichment, error) {
	var (
		out  component.Enrichment
		errs error
		ok   bool
	)
	merge := func(e component.Enrichment, err error) {
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		ok = true
		if len(e.Hashes) > 0 {
			out.Hashes = e.Hashes
		}
		out.Licenses = append(out.Licenses, e.Licenses...)
		if e.Publisher != "" {
			out.Publisher = e.Publisher
		}
	}

	if c.GoProxy != nil {
		info, err := c.GoProxy.FetchModule(ctx, mod, version, false)
		merge(enrichment(info, err))
	}
	if owner, repo, found := github.ModuleRepo(mod); found && c.GitHub != nil {
		info, err := c.GitHub.FetchRepo(ctx, owner, repo, false)
		merge(enrichment(info, err))
	} else if project, found := gitlab.ModuleProject(mod); found && c.GitLab != nil {
		info, err := c.GitLab.FetchProject(ctx, project, false)
		merge(enrichment(info, err))
	}

	if !ok {
		return component.Enrichment{}, errs
	}
	return out, nil
}
