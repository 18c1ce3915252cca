package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("hotkey: Mod4-v\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 8)
	w, err := NewWatcher(path, func() { changed <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("watcher fired for unrelated file")
	case <-time.After(150 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("hotkey: Mod4-b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not fire after write")
	}
}

func TestWatcherCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macpaste", "config.yaml")

	w, err := NewWatcher(path, func() {}, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("config directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", filepath.Dir(path))
	}
}
