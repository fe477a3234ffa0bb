package manifest

import (
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/purl"
)

// Requirements reads pip requirements files.
//
// Only exact pins (== and ===) yield a version. Options, includes,
// editable installs and direct URLs are skipped.
var Requirements = Format{Name: "pypi", Parse: parseRequirements}

var requirementLine = regexp.MustCompile(
	`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(?:(===|==|~=|!=|>=|<=|>|<)\s*([^\s,;]+))?\s*(?:,[^;]*)?(?:;.*)?$`,
)

func parseRequirements(path, content string) ([]Dependency, error) {
	var (
		out  = []Dependency{}
		errs error
	)
	for n, line := range logicalLines(content) {
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, ".") || strings.HasPrefix(line, "/") {
			continue
		}
		m := requirementLine.FindStringSubmatch(line)
		if m == nil {
			errs = multierr.Append(errs, entryError(path, "line %d: cannot parse requirement %q", n+1, line))
			continue
		}
		var version string
		if m[3] == "==" || m[3] == "===" {
			version = strings.TrimSuffix(m[4], ".*")
		}
		out = append(out, Dependency{
			Section: "requirements",
			PURL: purl.PackageURL{
				Type:    purl.TypePyPi,
				Name:    integrations.NormalizePkgName(m[1]),
				Version: version,
			},
		})
	}
	return out, errs
}

// logicalLines joins backslash continuations and strips comments. The
// result is indexed by the physical line each logical line starts on;
// lines consumed by a continuation are empty.
func logicalLines(content string) []string {
	phys := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	out := make([]string, len(phys))
	for i := 0; i < len(phys); i++ {
		start := i
		var b strings.Builder
		for {
			l := phys[i]
			if j := strings.Index(l, " #"); j >= 0 {
				l = l[:j]
			} else if strings.HasPrefix(strings.TrimSpace(l), "#") {
				l = ""
			}
			l = strings.TrimRight(l, " \t")
			if strings.HasSuffix(l, "\\") && i+1 < len(phys) {
				b.WriteString(strings.TrimSuffix(l, "\\"))
				b.WriteByte(' ')
				i++
				continue
			}
			b.WriteString(l)
			break
		}
		out[start] = strings.TrimSpace(b.String())
	}
	return out
}
