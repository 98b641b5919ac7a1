package parser

import (
	"os"
	"path/filepath"
)

// Classifier resolves quoted include targets against the project tree.
// It reads only file metadata and holds no mutable state, so a single
// instance is safe to share across concurrent runs.
type Classifier struct {
	projectRoot string
}

func NewClassifier(projectRoot string) (*Classifier, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}
	return &Classifier{projectRoot: abs}, nil
}

func (c *Classifier) ProjectRoot() string {
	return c.projectRoot
}

// Classify turns a directive into an IncludeRef. Quoted targets are
// searched relative to the including file's directory first, then the
// project root, matching conventional compiler semantics. A quoted
// target that cannot be found degrades to External with Unresolved set
// rather than failing resolution.
func (c *Classifier) Classify(d Directive, includingDir string) IncludeRef {
	if d.Angled {
		return IncludeRef{Directive: d, Kind: External}
	}

	for _, dir := range []string{includingDir, c.projectRoot} {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, d.Target)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				continue
			}
			return IncludeRef{
				Directive:    d,
				Kind:         Local,
				ResolvedPath: filepath.Clean(abs),
			}
		}
	}

	return IncludeRef{Directive: d, Kind: External, Unresolved: true}
}

// ClassifyAll scans text and classifies every directive it contains.
func (c *Classifier) ClassifyAll(text, includingDir string) []IncludeRef {
	directives := ScanIncludes(text)
	refs := make([]IncludeRef, 0, len(directives))
	for _, d := range directives {
		refs = append(refs, c.Classify(d, includingDir))
	}
	return refs
}
