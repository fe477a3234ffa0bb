package manifest

import "github.com/matzehuels/stackscan/pkg/extract"

// Registration binds a format to the dispatch keys it serves.
type Registration struct {
	Format Format
	Keys   []string

	// Aliases are file name globs dispatched as Keys[0].
	Aliases []string

	// Sources are source file names that double as this manifest.
	Sources []string
}

// All lists every supported manifest format.
var All = []Registration{
	{Format: POM, Keys: []string{"pom.xml"}},
	{Format: ProjectFile, Keys: []string{"csproj", "fsproj", "vbproj"}},
	{Format: Requirements, Keys: []string{"requirements.txt"}, Aliases: []string{"requirements*.txt"}},
	{Format: PyProject, Keys: []string{"pyproject.toml"}},
	{Format: PoetryLock, Keys: []string{"poetry.lock"}},
	{Format: Gradle, Keys: []string{"gradle", "kts"}},
	{Format: CondaEnvironment, Keys: []string{"environment.yml", "environment.yaml"}},
	{Format: Conan, Keys: []string{"conanfile.txt"}},
	{Format: ConanRecipe, Sources: []string{"conanfile.py"}},
	{Format: Cargo, Keys: []string{"Cargo.toml"}},
	{Format: PackageJSON, Keys: []string{"package.json"}},
	{Format: ComposerJSON, Keys: []string{"composer.json"}},
	{Format: GoMod, Keys: []string{"go.mod"}},
	{Format: Gemfile, Keys: []string{"Gemfile"}},
}

// Register adds an extractor for every format in [All] to r.
func Register(r *extract.Registry, env extract.Env, clients *Clients) {
	for _, reg := range All {
		e := extract.Manifest(reg.Format.Name, New(reg.Format, env, clients))
		if len(reg.Keys) > 0 {
			r.Register(e, reg.Keys...)
		}
		for _, a := range reg.Aliases {
			r.Alias(a, reg.Keys[0])
		}
		for _, s := range reg.Sources {
			r.RegisterSourceManifest(s, e)
		}
	}
}
