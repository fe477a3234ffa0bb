package usage

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/extract"
)

// processCalls are the call names that start an external program across
// the supported languages. Capitalized variants are added by callRE.
var processCalls = []string{
	"system", "popen", "spawn", "spawnSync",
	"exec", "execSync", "execFile", "execFileSync",
	"execl", "execlp", "execv", "execvp",
	"check_call", "check_output", "getoutput", "getstatusoutput",
	"shell_exec", "passthru", "proc_open",
	"capture2", "capture3", "popen3",
	"Process.Start", "ProcessBuilder",
}

var (
	callRE   = buildCallRE(processCalls)
	quotedRE = regexp.MustCompile(`"((?:[^"\\\n]|\\.)*)"|'((?:[^'\\\n]|\\.)*)'`)
)

// buildCallRE matches a call of any name in calls or its capitalized
// variant, and any function of the subprocess module.
func buildCallRE(calls []string) *regexp.Regexp {
	alts := []string{`subprocess\.\w+`}
	seen := make(map[string]bool)
	for _, c := range calls {
		for _, v := range []string{c, capitalize(c)} {
			if !seen[v] {
				seen[v] = true
				alts = append(alts, regexp.QuoteMeta(v))
			}
		}
	}
	return regexp.MustCompile(`(?:^|[^\w])(?:new[ \t]+)?(?:` + strings.Join(alts, "|") + `)[ \t]*\(`)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Subprocesses reports programs started from code. Every non-comment,
// non-import line calling a process function with quoted arguments
// yields one EXTERNAL application candidate named by the arguments.
type Subprocesses struct{}

// Name implements extract.ContextExtractor.
func (Subprocesses) Name() string { return "subprocesses" }

// Extract implements extract.ContextExtractor.
func (Subprocesses) Extract(_ context.Context, in extract.ContextInput) []*component.Candidate {
	var out []*component.Candidate
	for _, line := range strings.Split(in.Content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed, in.Syntax.CommentPrefixes) {
			continue
		}
		if in.Syntax.IsImport != nil && in.Syntax.IsImport(line) {
			continue
		}
		loc := callRE.FindStringIndex(line)
		if loc == nil {
			continue
		}
		var tokens []string
		for _, m := range quotedRE.FindAllStringSubmatch(line[loc[1]:], -1) {
			tok := m[1]
			if tok == "" {
				tok = m[2]
			}
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
		if len(tokens) == 0 {
			continue
		}
		out = append(out, &component.Candidate{
			Name: strings.Join(tokens, " "),
			Type: component.External,
			Kind: component.Application,
			File: in.Path,
		})
	}
	return out
}

func isComment(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
