package watcher

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "store.db")
	var calls atomic.Int32

	w, err := NewWatcher([]string{db}, func() { calls.Add(1) }, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(db, []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !waitFor(t, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("expected onChange after writes")
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected one debounced call, got %d", got)
	}

	if err := os.WriteFile(db+"-wal", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return calls.Load() >= 2 }) {
		t.Error("expected onChange after WAL write")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := NewWatcher([]string{filepath.Join(dir, "store.db")}, func() { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "cache.db"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("unexpected onChange for unrelated file")
	}
	if files := w.Files(); len(files) != 1 {
		t.Errorf("Files() = %v", files)
	}
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "store.db")
	var calls atomic.Int32
	w, err := NewWatcher([]string{db}, func() { calls.Add(1) }, WithDebounce(200*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()
	time.Sleep(300 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("expected no callback after Stop, got %d", calls.Load())
	}
}

func TestWatcher_FilesSorted(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "zeta.db"),
		filepath.Join(dir, "alpha.db"),
		filepath.Join(dir, "mid.db"),
	}
	w, err := NewWatcher(paths, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{paths[1], paths[2], paths[0]}
	for i := 0; i < 5; i++ {
		if got := w.Files(); !reflect.DeepEqual(got, want) {
			t.Fatalf("Files() = %v, want %v", got, want)
		}
	}
}
