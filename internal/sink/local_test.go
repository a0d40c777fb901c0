package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalSinkDerivesDestFromSource(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "out.pptx")
	if err := os.WriteFile(artifact, []byte("deck"), 0644); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(dir, "slide_1.html")

	s := &LocalSink{}
	location, err := s.Store(context.Background(), artifact, source)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	want := filepath.Join(dir, "slide_1.pptx")
	if location != want {
		t.Errorf("location = %q, want %q", location, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("delivered file missing: %v", err)
	}
	if string(data) != "deck" {
		t.Errorf("delivered content = %q", data)
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Error("artifact should be moved, not copied")
	}
}

func TestLocalSinkExplicitDest(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "out.pptx")
	if err := os.WriteFile(artifact, []byte("deck"), 0644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "final.pptx")

	s := &LocalSink{Dest: dest}
	location, err := s.Store(context.Background(), artifact, filepath.Join(dir, "in.html"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if location != dest {
		t.Errorf("location = %q, want %q", location, dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("dest missing: %v", err)
	}
}

func TestLocalSinkMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	s := &LocalSink{}
	_, err := s.Store(context.Background(), filepath.Join(dir, "gone.pptx"), filepath.Join(dir, "in.html"))
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("decks/")
	if !strings.HasPrefix(key, "decks/") {
		t.Errorf("key = %q, want decks/ prefix", key)
	}
	if !strings.HasSuffix(key, ".pptx") {
		t.Errorf("key = %q, want .pptx suffix", key)
	}
	if strings.Contains(key, "//") {
		t.Errorf("key = %q contains double slash", key)
	}
	if ObjectKey("") == ObjectKey("") {
		t.Error("keys must be unique per call")
	}
	bare := ObjectKey("")
	if strings.Contains(bare, "/") {
		t.Errorf("bare key = %q should have no slash", bare)
	}
}
