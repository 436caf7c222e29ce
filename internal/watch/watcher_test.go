// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// startWatcher runs w in a goroutine and returns a stop func that cancels
// and waits for Run to return.
func startWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after cancellation")
		}
	}
}

type changeRecorder struct {
	mu      sync.Mutex
	batches [][]string
	fired   chan struct{}
}

func newChangeRecorder() *changeRecorder {
	return &changeRecorder{fired: make(chan struct{}, 16)}
}

func (r *changeRecorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.batches = append(r.batches, changed)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return nil
}

func (r *changeRecorder) waitForBatch(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func TestWatcher_FiresOnMatchingChange(t *testing.T) {
	dir := t.TempDir()
	rec := newChangeRecorder()

	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.py"},
		Debounce: 50 * time.Millisecond,
		OnChange: rec.onChange,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := rec.waitForBatch(t)
	found := false
	for _, path := range changed {
		if path == "main.py" {
			found = true
		}
	}
	if !found {
		t.Errorf("changed = %v, want main.py", changed)
	}
}

func TestWatcher_IgnoresNonMatchingAndDefaultIgnores(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "__pycache__"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := newChangeRecorder()

	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.py"},
		Debounce: 50 * time.Millisecond,
		OnChange: rec.onChange,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	// Neither a non-matching extension nor a cache file should fire.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "__pycache__", "main.pyc"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-rec.fired:
		t.Error("callback fired for ignored paths")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_SeesFilesInDirectoriesCreatedAfterStart(t *testing.T) {
	dir := t.TempDir()
	rec := newChangeRecorder()

	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.py"},
		Debounce: 50 * time.Millisecond,
		OnChange: rec.onChange,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	// The directory name itself does not match **/*.py; it must still be
	// picked up so files created inside it are watched.
	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the event loop time to register the new directory.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "mod.py"), []byte("pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := rec.waitForBatch(t)
	found := false
	for _, path := range changed {
		if path == filepath.Join("pkg", "mod.py") {
			found = true
		}
	}
	if !found {
		t.Errorf("changed = %v, want pkg/mod.py", changed)
	}
}

func TestWatcher_CoalescesRapidEvents(t *testing.T) {
	dir := t.TempDir()
	rec := newChangeRecorder()

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 150 * time.Millisecond,
		OnChange: rec.onChange,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	for _, name := range []string{"a.py", "b.py", "c.py"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("pass\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	changed := rec.waitForBatch(t)
	if len(changed) < 2 {
		t.Errorf("coalesced batch = %v, want several paths in one callback", changed)
	}
}

func TestWatcher_RunTwiceIsAnError(t *testing.T) {
	w, err := New(Config{
		BaseDir: t.TempDir(),
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	stop := startWatcher(t, w)
	stop()

	if err := w.Run(context.Background()); err == nil {
		t.Error("second Run() = nil, want error")
	}
}

func TestNew_InvalidPatternFails(t *testing.T) {
	t.Parallel()

	_, err := New(Config{
		BaseDir:  t.TempDir(),
		Patterns: []string{"[unclosed"},
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	if err == nil {
		t.Error("New() with invalid pattern = nil, want error")
	}
}

func TestDefaultIgnores_ReturnsCopy(t *testing.T) {
	t.Parallel()

	ignores := DefaultIgnores()
	if len(ignores) == 0 {
		t.Fatal("DefaultIgnores() is empty")
	}
	ignores[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores() should return a copy")
	}
}
