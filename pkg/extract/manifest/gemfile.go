package manifest

import (
	"regexp"
	"strings"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// Gemfile reads Bundler Gemfiles. Gems declared inside a group block
// are reported under that group; path and git gems keep no version.
var Gemfile = Format{Name: "gem", Parse: parseGemfile}

var (
	gemLine    = regexp.MustCompile(`^gem\s*\(?\s*["']([^"']+)["'](?:\s*,\s*["']([^"']+)["'])?`)
	gemGroup   = regexp.MustCompile(`^group\s*\(?\s*((?::[A-Za-z_]+\s*,?\s*)+)\)?\s*do\b`)
	gemBlock   = regexp.MustCompile(`\bdo\b(\s*\|[^|]*\|)?\s*$`)
	gemOptions = regexp.MustCompile(`\b(path|git|github)\s*:`)
)

func parseGemfile(path, content string) ([]Dependency, error) {
	var (
		out = []Dependency{}
		// Each open block pushes its group name, "" for non-group blocks.
		blocks []string
	)
	section := func() string {
		for i := len(blocks) - 1; i >= 0; i-- {
			if blocks[i] != "" {
				return blocks[i]
			}
		}
		return "default"
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := gemGroup.FindStringSubmatch(line); m != nil {
			names := strings.FieldsFunc(m[1], func(r rune) bool { return r == ':' || r == ',' || r == ' ' })
			blocks = append(blocks, strings.Join(names, ","))
			continue
		}
		if line == "end" {
			if len(blocks) > 0 {
				blocks = blocks[:len(blocks)-1]
			}
			continue
		}
		if gemBlock.MatchString(line) {
			blocks = append(blocks, "")
			continue
		}
		m := gemLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		version := pinned(m[2])
		if gemOptions.MatchString(line) {
			version = ""
		}
		out = append(out, Dependency{
			Section: section(),
			PURL: purl.PackageURL{
				Type:    purl.TypeGem,
				Name:    m[1],
				Version: version,
			},
		})
	}
	return out, nil
}
