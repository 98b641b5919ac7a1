// Package merge turns a resolved dependency graph into a single
// translation unit. The contract is textual: files are concatenated in
// dependency-first order, each emitted at most once. No symbol-level
// deduplication is attempted.
package merge

import (
	"path/filepath"
	"strings"

	"cproof/internal/core/errors"
	"cproof/internal/engine/graph"
	"cproof/internal/engine/parser"
	"cproof/internal/shared/observability"
)

// MergedUnit is the single artifact produced from one resolution run.
// Immutable after Merge returns.
type MergedUnit struct {
	Text  string
	Files []string // contributing files, emission order, project-relative
	Map   SourceMap
}

// Merge emits the graph's files in post-order from the root so every
// file appears after its local dependencies. The emitted set both
// prevents duplicate inlining and breaks cycles. External includes are
// hoisted into a single deduplicated prologue; resolved-local include
// lines are dropped (their content is inlined); unresolved-local
// includes stay in place with an annotation comment so the annotation
// service can see the gap.
func Merge(g *graph.DependencyGraph) (*MergedUnit, error) {
	order, err := emissionOrder(g)
	if err != nil {
		return nil, err
	}

	w := newWriter()

	w.generated("/* merged translation unit generated by cproof */")
	w.generated("/* entry: " + relTo(g.ProjectRoot, g.Root) + " */")
	w.generated("")

	if externals := g.Externals(); len(externals) > 0 {
		w.generated("/* external includes (pre-verified, not expanded) */")
		for _, ref := range externals {
			w.generated(ref.Raw)
		}
		w.generated("")
	}

	files := make([]string, 0, len(order))
	for _, path := range order {
		node, ok := g.Node(path)
		if !ok {
			return nil, errors.Newf(errors.CodeInternal, "emission order references unknown file %s", path)
		}
		rel := relTo(g.ProjectRoot, path)
		files = append(files, rel)

		w.generated("/* === begin: " + rel + " === */")
		emitBody(w, node, rel)
		w.generated("/* === end: " + rel + " === */")
		w.generated("")
	}

	unit := &MergedUnit{
		Text:  w.text(),
		Files: files,
		Map:   w.sourceMap(),
	}
	observability.MergedUnitBytes.Observe(float64(len(unit.Text)))
	return unit, nil
}

// emissionOrder computes the post-order emission sequence and checks
// the at-most-once invariant before any text is produced.
func emissionOrder(g *graph.DependencyGraph) ([]string, error) {
	const (
		unseen = iota
		visiting
		done
	)
	state := make(map[string]int, g.NodeCount())
	order := make([]string, 0, g.NodeCount())

	var visit func(string)
	visit = func(path string) {
		if state[path] != unseen {
			// done: already emitted; visiting: cycle back-edge.
			return
		}
		state[path] = visiting
		for _, dep := range g.LocalDeps(path) {
			visit(dep)
		}
		state[path] = done
		order = append(order, path)
	}
	visit(g.Root)

	seen := make(map[string]bool, len(order))
	for _, p := range order {
		if seen[p] {
			return nil, errors.AddContext(
				errors.New(errors.CodeInternal, "file scheduled for emission twice"),
				errors.CtxPath, p)
		}
		seen[p] = true
	}
	return order, nil
}

func emitBody(w *writer, node *graph.SourceFile, rel string) {
	refByLine := make(map[int]parser.IncludeRef, len(node.Includes))
	for _, ref := range node.Includes {
		refByLine[ref.Line] = ref
	}

	lines := strings.Split(node.Content, "\n")
	// Avoid a phantom trailing line from the final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		ref, isDirective := refByLine[i+1]
		if !isDirective {
			w.source(line, rel, i+1)
			continue
		}
		switch {
		case ref.Unresolved:
			w.source(ref.Raw+" /* cproof: unresolved include, left for annotation */", rel, i+1)
		case ref.Kind == parser.Local:
			// Inlined elsewhere; emitting the line would duplicate it.
		default:
			// External, hoisted into the prologue.
		}
	}
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
