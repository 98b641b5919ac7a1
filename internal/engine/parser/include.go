package parser

import (
	"regexp"
	"strings"
)

// RefKind classifies an include target.
type RefKind int

const (
	// Local refs resolve to a file inside the project and are expanded.
	Local RefKind = iota
	// External refs are angle-bracketed or unresolvable; treated as
	// pre-verified and never expanded.
	External
)

func (k RefKind) String() string {
	if k == Local {
		return "local"
	}
	return "external"
}

// Directive is a raw #include line as it appears in the source.
type Directive struct {
	Raw    string // full line, trimmed
	Target string // e.g. "math_utils.h" or "stdio.h"
	Angled bool   // <...> vs "..."
	Line   int    // 1-based
}

// IncludeRef is a classified include directive.
type IncludeRef struct {
	Directive
	Kind         RefKind
	ResolvedPath string // canonical absolute path, Local only
	Unresolved   bool   // quoted target that could not be found on disk
}

// Directive lines only; occurrences inside comment bodies or string
// literals never start a line with `#`, so line anchoring is sufficient.
var includeRe = regexp.MustCompile(`^\s*#\s*include\s*([<"])([^>"]+)[">]`)

// ScanIncludes extracts include directives in source order.
func ScanIncludes(text string) []Directive {
	var out []Directive
	for i, line := range strings.Split(text, "\n") {
		m := includeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, Directive{
			Raw:    strings.TrimSpace(line),
			Target: m[2],
			Angled: m[1] == "<",
			Line:   i + 1,
		})
	}
	return out
}

// IsIncludeLine reports whether a single source line is an include directive.
func IsIncludeLine(line string) bool {
	return includeRe.MatchString(line)
}
