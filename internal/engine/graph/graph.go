package graph

import (
	"os"
	"path/filepath"

	"cproof/internal/core/errors"
	"cproof/internal/engine/parser"
	"cproof/internal/shared/observability"
)

// SourceFile is one local file discovered during resolution. Immutable
// once read; owned by the graph's file table for the duration of a run.
type SourceFile struct {
	Path     string // canonical absolute path
	Content  string
	Includes []parser.IncludeRef // source order
}

// DependencyGraph is the directed graph of local files reachable from
// the entry file. Edges follow "file A includes local file B". The
// graph may contain cycles; traversal helpers never recurse into them.
type DependencyGraph struct {
	Root        string
	ProjectRoot string

	nodes map[string]*SourceFile
	order []string            // discovery order, Root first
	edges map[string][]string // local include edges, source order
}

func (g *DependencyGraph) Node(path string) (*SourceFile, bool) {
	n, ok := g.nodes[path]
	return n, ok
}

// Files returns all local files in discovery order.
func (g *DependencyGraph) Files() []*SourceFile {
	out := make([]*SourceFile, 0, len(g.order))
	for _, p := range g.order {
		out = append(out, g.nodes[p])
	}
	return out
}

// LocalDeps returns the include targets of path in source order. A
// target appears once per directive, so duplicates are possible; the
// merger's emitted set makes them harmless.
func (g *DependencyGraph) LocalDeps(path string) []string {
	return g.edges[path]
}

func (g *DependencyGraph) NodeCount() int {
	return len(g.nodes)
}

func (g *DependencyGraph) EdgeCount() int {
	n := 0
	for _, targets := range g.edges {
		n += len(targets)
	}
	return n
}

// Externals returns external include refs across all files, deduplicated
// by target in first-seen order. Unresolved quoted includes are not
// part of this list; they stay inline in the merged body.
func (g *DependencyGraph) Externals() []parser.IncludeRef {
	seen := make(map[string]bool)
	var out []parser.IncludeRef
	for _, p := range g.order {
		for _, ref := range g.nodes[p].Includes {
			if ref.Kind != parser.External || ref.Unresolved {
				continue
			}
			if seen[ref.Target] {
				continue
			}
			seen[ref.Target] = true
			out = append(out, ref)
		}
	}
	return out
}

// Unresolved returns quoted includes that could not be found on disk.
func (g *DependencyGraph) Unresolved() []parser.IncludeRef {
	var out []parser.IncludeRef
	for _, p := range g.order {
		for _, ref := range g.nodes[p].Includes {
			if ref.Unresolved {
				out = append(out, ref)
			}
		}
	}
	return out
}

// Builder resolves an entry file into a DependencyGraph. A Builder is
// cheap and holds no per-run state; construct one per run.
type Builder struct {
	classifier  *parser.Classifier
	maxFileSize int64 // 0 disables the cap
	expand      bool  // follow local includes transitively
}

func NewBuilder(classifier *parser.Classifier, maxFileSize int64) *Builder {
	return &Builder{classifier: classifier, maxFileSize: maxFileSize, expand: true}
}

// WithoutExpansion keeps the entry file's includes classified but never
// traverses into local targets, for single-file verification mode.
func (b *Builder) WithoutExpansion() *Builder {
	b.expand = false
	return b
}

// Build discovers every transitively reachable local file starting from
// rootPath. Missing quoted targets degrade to external-unresolved;
// unreadable files abort with a RESOLUTION_ERROR tagged with the path.
func (b *Builder) Build(rootPath string) (*DependencyGraph, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeResolution, "cannot canonicalize entry path"),
			errors.CtxPath, rootPath)
	}
	abs = filepath.Clean(abs)

	g := &DependencyGraph{
		Root:        abs,
		ProjectRoot: b.classifier.ProjectRoot(),
		nodes:       make(map[string]*SourceFile),
		edges:       make(map[string][]string),
	}

	if err := b.visit(g, abs); err != nil {
		return nil, err
	}

	observability.GraphNodes.Set(float64(g.NodeCount()))
	observability.GraphEdges.Set(float64(g.EdgeCount()))

	return g, nil
}

func (b *Builder) visit(g *DependencyGraph, path string) error {
	node, err := b.load(path)
	if err != nil {
		return err
	}
	g.nodes[path] = node
	g.order = append(g.order, path)

	for _, ref := range node.Includes {
		if ref.Kind != parser.Local {
			continue
		}
		target := ref.ResolvedPath
		g.edges[path] = append(g.edges[path], target)

		if !b.expand {
			continue
		}
		// Already-loaded targets cover both the finished-file cache and
		// in-progress cycle back-edges; either way the edge is recorded
		// and recursion stops here.
		if _, loaded := g.nodes[target]; loaded {
			continue
		}
		if err := b.visit(g, target); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) load(path string) (*SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeResolution, "cannot stat source file"),
			errors.CtxPath, path)
	}
	if b.maxFileSize > 0 && info.Size() > b.maxFileSize {
		return nil, errors.AddContext(
			errors.Newf(errors.CodeSize, "file exceeds %d byte cap (%d bytes)", b.maxFileSize, info.Size()),
			errors.CtxPath, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Merging without this file's content would silently produce
		// wrong semantics, so read failures are fatal.
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeResolution, "cannot read source file"),
			errors.CtxPath, path)
	}

	content := string(data)
	return &SourceFile{
		Path:     path,
		Content:  content,
		Includes: b.classifier.ClassifyAll(content, filepath.Dir(path)),
	}, nil
}
