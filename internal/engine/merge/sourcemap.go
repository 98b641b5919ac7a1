package merge

import "strings"

// SourceMap maps 1-based merged-unit lines back to their original file
// and line, so verifier diagnostics against the merged text can be
// attributed to real project files.
type SourceMap struct {
	entries []lineRef
}

type lineRef struct {
	file string // "" for generated lines (markers, prologue)
	line int
}

// Attribute returns the origin of a merged line. ok is false for lines
// outside the unit or generated by the merger itself.
func (m SourceMap) Attribute(mergedLine int) (file string, line int, ok bool) {
	if mergedLine < 1 || mergedLine > len(m.entries) {
		return "", 0, false
	}
	e := m.entries[mergedLine-1]
	if e.file == "" {
		return "", 0, false
	}
	return e.file, e.line, true
}

// Len returns the number of lines in the merged unit.
func (m SourceMap) Len() int {
	return len(m.entries)
}

type writer struct {
	lines   []string
	entries []lineRef
}

func newWriter() *writer {
	return &writer{}
}

func (w *writer) generated(line string) {
	w.lines = append(w.lines, line)
	w.entries = append(w.entries, lineRef{})
}

func (w *writer) source(line, file string, original int) {
	w.lines = append(w.lines, line)
	w.entries = append(w.entries, lineRef{file: file, line: original})
}

func (w *writer) text() string {
	return strings.Join(w.lines, "\n") + "\n"
}

func (w *writer) sourceMap() SourceMap {
	return SourceMap{entries: w.entries}
}
