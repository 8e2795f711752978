package fixturewatch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingInvalidator) Invalidate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, path)
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "fixture.go")
	if err := os.WriteFile(fixturePath, []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("seed fixture file: %v", err)
	}

	inv := &recordingInvalidator{}
	w, err := New(inv, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	go w.Run()

	if err := os.WriteFile(fixturePath, []byte("package main\n// edited\n"), 0o644); err != nil {
		t.Fatalf("rewrite fixture file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if inv.count() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Invalidate was never called after fixture write")
}
