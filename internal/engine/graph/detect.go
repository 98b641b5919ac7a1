package graph

import "sort"

// DetectCycles reports every include cycle as a path of file names.
// Cycles are legal in C header graphs (guards make them compile); the
// report exists so callers can surface them, not to fail resolution.
func (g *DependencyGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if !visited[p] {
			g.findCycles(p, visited, onStack, []string{}, &cycles)
		}
	}

	return cycles
}

func (g *DependencyGraph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g.edges[curr] {
		if onStack[next] {
			// Found a cycle
			cycleStart := -1
			for i, p := range path {
				if p == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]string, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}
