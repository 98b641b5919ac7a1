package util

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestSaveTempArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveTempArtifact(dir, "annotated-*.c", "int main(void){}")
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "int main(void){}" {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := RemoveArtifacts([]string{path}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("artifact should be removed")
	}
}

func TestRemoveArtifactsToleratesMissing(t *testing.T) {
	if err := RemoveArtifacts([]string{"/nonexistent/cproof-artifact.c"}); err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
}

func TestLimiterNilNeverBlocks(t *testing.T) {
	var l *Limiter
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("nil limiter must not block: %v", err)
	}
	if !l.Allow(1) {
		t.Fatal("nil limiter must allow")
	}
}

func TestLimiterThrottles(t *testing.T) {
	l := NewLimiter(1000, 1)
	if !l.Allow(1) {
		t.Fatal("first token should be available")
	}
	// Burst of 1 exhausted; immediate second request must be denied.
	if l.Allow(1) {
		t.Fatal("second immediate token should be throttled")
	}
}
