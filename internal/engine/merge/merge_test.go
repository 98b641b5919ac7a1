package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cproof/internal/engine/graph"
	"cproof/internal/engine/parser"
)

func buildGraph(t *testing.T, files map[string]string, entry string) *graph.DependencyGraph {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c, err := parser.NewClassifier(root)
	if err != nil {
		t.Fatal(err)
	}
	g, err := graph.NewBuilder(c, 0).Build(filepath.Join(root, entry))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestMerge_DependenciesFirst(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"main.c": "#include \"a.h\"\nint main(void){return 0;}\n",
		"a.h":    "#include \"b.h\"\nint a(void);\n",
		"b.h":    "int b(void);\n",
	}, "main.c")

	unit, err := Merge(g)
	if err != nil {
		t.Fatal(err)
	}

	posB := strings.Index(unit.Text, "int b(void);")
	posA := strings.Index(unit.Text, "int a(void);")
	posMain := strings.Index(unit.Text, "int main(void)")
	if posB == -1 || posA == -1 || posMain == -1 {
		t.Fatalf("missing bodies in merged unit:\n%s", unit.Text)
	}
	if !(posB < posA && posA < posMain) {
		t.Fatalf("dependency ordering violated: b=%d a=%d main=%d", posB, posA, posMain)
	}
	if want := []string{"b.h", "a.h", "main.c"}; strings.Join(unit.Files, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected emission order: %v", unit.Files)
	}
}

func TestMerge_AtMostOnceWithCycle(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"a.h": "#include \"b.h\"\nint a_body;\n",
		"b.h": "#include \"a.h\"\nint b_body;\n",
	}, "a.h")

	unit, err := Merge(g)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(unit.Text, "int a_body;"); n != 1 {
		t.Fatalf("a.h emitted %d times", n)
	}
	if n := strings.Count(unit.Text, "int b_body;"); n != 1 {
		t.Fatalf("b.h emitted %d times", n)
	}
}

func TestMerge_DiamondEmittedOnce(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"main.c":   "#include \"a.h\"\n#include \"b.h\"\nint main(void){return 0;}\n",
		"a.h":      "#include \"shared.h\"\n",
		"b.h":      "#include \"shared.h\"\n",
		"shared.h": "int shared_symbol;\n",
	}, "main.c")

	unit, err := Merge(g)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(unit.Text, "int shared_symbol;"); n != 1 {
		t.Fatalf("shared.h emitted %d times", n)
	}
}

func TestMerge_IncludeHandling(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"main.c": "#include <stdio.h>\n#include \"math_utils.h\"\n#include \"missing.h\"\nint main(void){return add(1,2);}\n",
		"math_utils.h": "int add(int a, int b);\n",
	}, "main.c")

	unit, err := Merge(g)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(unit.Text, "#include \"math_utils.h\"") {
		t.Error("resolved local include line must be removed")
	}
	if n := strings.Count(unit.Text, "#include <stdio.h>"); n != 1 {
		t.Errorf("external include should appear exactly once (prologue), got %d", n)
	}
	if !strings.Contains(unit.Text, "#include \"missing.h\" /* cproof: unresolved include") {
		t.Error("unresolved include must stay in place with an annotation comment")
	}

	posAdd := strings.Index(unit.Text, "int add(")
	posMain := strings.Index(unit.Text, "int main(")
	if !(posAdd >= 0 && posMain >= 0 && posAdd < posMain) {
		t.Errorf("add must be defined before main:\n%s", unit.Text)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	files := map[string]string{
		"main.c": "#include \"a.h\"\n#include <stdio.h>\nint main(void){return 0;}\n",
		"a.h":    "#include \"b.h\"\nint a(void);\n",
		"b.h":    "int b(void);\n",
	}

	g1 := buildGraph(t, files, "main.c")
	u1, err := Merge(g1)
	if err != nil {
		t.Fatal(err)
	}
	u2, err := Merge(g1)
	if err != nil {
		t.Fatal(err)
	}
	if u1.Text != u2.Text {
		t.Fatal("re-merging the same graph must be byte-identical")
	}

	// A fresh resolution of the unchanged tree only differs by temp dir
	// prefix, which the project-relative markers hide.
	g2 := buildGraph(t, files, "main.c")
	u3, err := Merge(g2)
	if err != nil {
		t.Fatal(err)
	}
	if u1.Text != u3.Text {
		t.Fatal("resolving an unchanged tree twice must be byte-identical")
	}
}

func TestMerge_SourceMapAttribution(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"main.c": "#include \"a.h\"\nint main(void){return 0;}\n",
		"a.h":    "int a(void);\n",
	}, "main.c")

	unit, err := Merge(g)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(unit.Text, "\n")
	for i, line := range lines {
		switch line {
		case "int a(void);":
			file, orig, ok := unit.Map.Attribute(i + 1)
			if !ok || file != "a.h" || orig != 1 {
				t.Errorf("a.h attribution wrong: %q:%d ok=%v", file, orig, ok)
			}
		case "int main(void){return 0;}":
			file, orig, ok := unit.Map.Attribute(i + 1)
			if !ok || file != "main.c" || orig != 2 {
				t.Errorf("main.c attribution wrong: %q:%d ok=%v", file, orig, ok)
			}
		}
	}

	// Marker lines are generated and carry no attribution.
	if _, _, ok := unit.Map.Attribute(1); ok {
		t.Error("generated header line must not attribute")
	}
	if _, _, ok := unit.Map.Attribute(0); ok {
		t.Error("line 0 is out of range")
	}
	if _, _, ok := unit.Map.Attribute(unit.Map.Len() + 1); ok {
		t.Error("line past end is out of range")
	}
}
