package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewRequiresExistingFile(t *testing.T) {
	if _, err := New("", func(string) error { return nil }, nil, 0); err == nil {
		t.Fatal("expected error for empty path")
	}
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := New(missing, func(string) error { return nil }, nil, 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteTriggersDebouncedReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.yaml")
	if err := os.WriteFile(path, []byte("policies: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New(path, func(p string) error {
		calls.Add(1)
		return nil
	}, zaptest.NewLogger(t), 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to start.
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("policies: []\n# edit\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })

	// Writes to other files in the directory are ignored.
	before := calls.Load()
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != before {
		t.Errorf("expected no reload for unrelated file, got %d calls (was %d)", got, before)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestReloadErrorIsLogged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zap.DebugLevel)
	var calls atomic.Int32
	w, err := New(path, func(string) error {
		calls.Add(1)
		return errors.New("bad file")
	}, zap.New(core), 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("b"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return logs.FilterMessage("hot-reload failed").Len() >= 1 })
	cancel()
	<-done
}
