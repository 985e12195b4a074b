package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_IngestOnWrite(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var ingested []string
	onIngest := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}

	w := New([]string{dir}, []string{".txt"}, true, onIngest, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ingested) > 0
	})
	if !ok {
		t.Fatal("file write was not ingested")
	}
	mu.Lock()
	got := ingested[0]
	mu.Unlock()
	if filepath.Clean(got) != filepath.Clean(path) {
		t.Errorf("ingested path: got %s, want %s", got, path)
	}
}

func TestWatcher_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var ingested []string
	onIngest := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}

	w := New([]string{dir}, []string{".txt"}, true, onIngest, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	// Give the debounce window time to fire if it (incorrectly) would.
	time.Sleep(2 * defaultDebounce)
	mu.Lock()
	n := len(ingested)
	mu.Unlock()
	if n != 0 {
		t.Errorf("non-matching extension should be ignored; ingested %d files", n)
	}
}

func TestWatcher_RemoveCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var removed []string
	onRemove := func(path string) {
		mu.Lock()
		removed = append(removed, path)
		mu.Unlock()
	}

	w := New([]string{dir}, []string{".txt"}, true, nil, onRemove)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	ok := waitFor(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(removed) > 0
	})
	if !ok {
		t.Fatal("file removal was not observed")
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c.png"), []byte("c"), 0600); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var ingested []string
	w := New([]string{dir}, []string{".txt", ".md"}, true, func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}, nil)

	w.SyncExistingFiles()
	mu.Lock()
	n := len(ingested)
	mu.Unlock()
	if n != 2 {
		t.Errorf("ingested: got %d files, want 2", n)
	}
}

func TestMatchExtension(t *testing.T) {
	w := New(nil, []string{".txt", "md"}, true, nil, nil)
	cases := map[string]bool{
		"/a/b.txt": true,
		"/a/b.TXT": true,
		"/a/b.md":  true,
		"/a/b.png": false,
		"/a/b":     false,
	}
	for path, want := range cases {
		if got := w.matchExtension(path); got != want {
			t.Errorf("matchExtension(%q): got %v, want %v", path, got, want)
		}
	}
}
