// ABOUTME: Tests for the module file watcher
// ABOUTME: Uses a temp directory and real filesystem notifications
package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherReportsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mod")
	writeFile(t, path, "one")

	w, err := New(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	// several writes settle into one event
	writeFile(t, path, "two")
	writeFile(t, path, "three")

	select {
	case got := <-w.Events:
		if got != w.Path() {
			t.Errorf("expected %s, got %s", w.Path(), got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	select {
	case got := <-w.Events:
		t.Errorf("unexpected second event %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.xm")
	writeFile(t, path, "x")

	w, err := New(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	writeFile(t, filepath.Join(dir, "other.xm"), "y")

	select {
	case got := <-w.Events:
		t.Errorf("unexpected event for %s", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing", "song.s3m"), 0); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatcherCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mod")
	writeFile(t, path, "one")

	w, err := New(path, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Error("expected Events closed")
	}
}
