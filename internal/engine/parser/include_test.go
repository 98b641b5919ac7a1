package parser

import "testing"

func TestScanIncludes_Ordering(t *testing.T) {
	src := `#include <stdio.h>
#include "math_utils.h"

int main(void) { return 0; }
`
	directives := ScanIncludes(src)
	if len(directives) != 2 {
		t.Fatalf("expected 2 directives, got %d", len(directives))
	}
	if !directives[0].Angled || directives[0].Target != "stdio.h" {
		t.Errorf("unexpected first directive: %+v", directives[0])
	}
	if directives[1].Angled || directives[1].Target != "math_utils.h" {
		t.Errorf("unexpected second directive: %+v", directives[1])
	}
	if directives[0].Line != 1 || directives[1].Line != 2 {
		t.Errorf("unexpected line numbers: %d, %d", directives[0].Line, directives[1].Line)
	}
}

func TestScanIncludes_WhitespaceVariants(t *testing.T) {
	src := "  #include \"a.h\"\n\t# include <b.h>\n#include<c.h>"
	directives := ScanIncludes(src)
	if len(directives) != 3 {
		t.Fatalf("expected 3 directives, got %d", len(directives))
	}
	want := []string{"a.h", "b.h", "c.h"}
	for i, d := range directives {
		if d.Target != want[i] {
			t.Errorf("directive %d: want %q, got %q", i, want[i], d.Target)
		}
	}
}

func TestScanIncludes_IgnoresNonDirectiveOccurrences(t *testing.T) {
	src := `const char *s = "#include \"fake.h\" is not a directive";
// mention of #include <stdio.h> in a trailing comment
int x;
`
	if got := ScanIncludes(src); len(got) != 0 {
		t.Fatalf("expected no directives, got %v", got)
	}
}

func TestIsIncludeLine(t *testing.T) {
	if !IsIncludeLine(`#include "a.h"`) {
		t.Error("quoted include not recognized")
	}
	if !IsIncludeLine("   #include <stdio.h>") {
		t.Error("indented angled include not recognized")
	}
	if IsIncludeLine("int include = 3;") {
		t.Error("false positive on non-directive line")
	}
}
