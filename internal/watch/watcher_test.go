package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_RunsAfterChange(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	runs := 0

	go Watch(ctx, root, 50*time.Millisecond, testLogger(), func(context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	time.Sleep(100 * time.Millisecond) // let the watcher register

	if err := os.WriteFile(filepath.Join(root, "2026-08-30.md"), []byte("piano:: 10min"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 1
	}, "no collection run after journal change")
}

func TestWatch_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	runs := 0

	go Watch(ctx, root, 150*time.Millisecond, testLogger(), func(context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	time.Sleep(100 * time.Millisecond)

	// Several writes in quick succession must settle into one run.
	path := filepath.Join(root, "today.md")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("w:: 40min park"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 1
	}, "no run after burst")

	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	got := runs
	mu.Unlock()
	if got != 1 {
		t.Errorf("runs = %d, want 1 (burst must be debounced)", got)
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	runs := 0

	go Watch(ctx, root, 50*time.Millisecond, testLogger(), func(context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "state.db"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	got := runs
	mu.Unlock()
	if got != 0 {
		t.Errorf("runs = %d, want 0 for non-journal files", got)
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, root, 50*time.Millisecond, testLogger(), func(context.Context) error { return nil })
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop on context cancel")
	}
}
