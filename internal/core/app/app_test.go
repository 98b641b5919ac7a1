package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"cproof/internal/core/config"
	"cproof/internal/core/pipeline"
	"cproof/internal/core/ports"
)

type stubAnnotator struct{}

func (stubAnnotator) Annotate(ctx context.Context, req ports.AnnotateRequest) (ports.AnnotateResponse, error) {
	return ports.AnnotateResponse{AnnotatedSource: req.Source}, nil
}

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, req ports.VerifyRequest) (ports.VerifyResponse, error) {
	return ports.VerifyResponse{Verified: true}, nil
}

func newTestApp(t *testing.T, root string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ProjectRoot = root
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return a.WithCollaborators(stubAnnotator{}, stubVerifier{})
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.API.AnnotatorURL = "not a url"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
}

func TestVerify_EndToEnd(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "main.c")
	header := filepath.Join(root, "util.h")
	if err := os.WriteFile(header, []byte("int add(int, int);\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(entry, []byte("#include \"util.h\"\nint main(void){return 0;}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := newTestApp(t, root)
	res := a.Verify(context.Background(), entry)

	if res.Status != pipeline.StatusDone {
		t.Fatalf("expected done, got %v (%+v)", res.Status, res.Err)
	}
	if res.Verification == nil || !res.Verification.Verified {
		t.Fatal("expected verified result")
	}
}

func TestVerify_ForwardsProgress(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "main.c")
	if err := os.WriteFile(entry, []byte("int main(void){return 0;}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := newTestApp(t, root)
	var ordinals []int
	a.SetProgressHandler(func(e pipeline.ProgressEvent) {
		ordinals = append(ordinals, e.Ordinal)
	})

	if res := a.Verify(context.Background(), entry); res.Status != pipeline.StatusDone {
		t.Fatalf("unexpected status %v", res.Status)
	}
	if len(ordinals) != 6 || ordinals[0] != 1 || ordinals[5] != 6 {
		t.Fatalf("unexpected progress ordinals: %v", ordinals)
	}
}

func TestDependencyPaths_ReturnsClosure(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"main.c": "#include \"a.h\"\nint main(void){return 0;}\n",
		"a.h":    "#include \"b.h\"\nint a(void);\n",
		"b.h":    "int b(void);\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	a := newTestApp(t, root)
	paths, err := a.DependencyPaths(filepath.Join(root, "main.c"))
	if err != nil {
		t.Fatal(err)
	}

	bases := make([]string, 0, len(paths))
	for _, p := range paths {
		bases = append(bases, filepath.Base(p))
	}
	sort.Strings(bases)
	want := []string{"a.h", "b.h", "main.c"}
	if len(bases) != len(want) {
		t.Fatalf("expected %v, got %v", want, bases)
	}
	for i := range want {
		if bases[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, bases)
		}
	}
}

func TestDependencyPaths_RequiresProjectRoot(t *testing.T) {
	cfg := config.Default()
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.DependencyPaths("main.c"); err == nil {
		t.Fatal("expected missing project root to be rejected")
	}
}
