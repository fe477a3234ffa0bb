package scan

import (
	"github.com/matzehuels/stackscan/pkg/extract"
	"github.com/matzehuels/stackscan/pkg/extract/lang"
	"github.com/matzehuels/stackscan/pkg/extract/manifest"
	"github.com/matzehuels/stackscan/pkg/extract/usage"
	"github.com/matzehuels/stackscan/pkg/license"
)

// DefaultRegistry registers every language grammar and manifest format.
// stdlibBases overrides documentation roots by grammar name.
func DefaultRegistry(env extract.Env, clients *manifest.Clients, stdlibBases map[string]string) *extract.Registry {
	r := extract.NewRegistry()
	for _, g := range lang.All {
		r.Register(extract.Language(g.Name, lang.New(g, env, stdlibBases[g.Name])), g.Extensions...)
	}
	manifest.Register(r, env, clients)
	return r
}

// NewDefault returns a scanner with the default registry, the context
// passes enabled in opts and the embedded license vocabulary.
func NewDefault(opts Options) *Scanner {
	opts = opts.WithDefaults()
	reg := DefaultRegistry(opts.Env(), opts.RegistryClients(), opts.StdlibBases)

	var passes []extract.ContextExtractor
	if opts.ContextPasses {
		passes = usage.Defaults()
	}
	return New(reg, passes, license.New(opts.Logger).Resolve, opts.Logger)
}
