package librarian

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/whitlock/clipvault/internal/apperr"
	"github.com/whitlock/clipvault/internal/testutil"
)

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

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) record(kind, path string) {
	e.mu.Lock()
	e.events = append(e.events, kind+":"+path)
	e.mu.Unlock()
}

func (e *eventLog) has(want string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev == want {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T) (*Librarian, string, *eventLog) {
	t.Helper()
	libDir, store := testutil.TestLibrary(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	l := New(store, db, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := &eventLog{}
	go func() { _ = l.Watch(ctx, libDir, log.record) }()
	time.Sleep(100 * time.Millisecond)
	return l, libDir, log
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	l, libDir, log := startWatcher(t)

	testutil.WriteWAV(t, libDir, "new.wav", 1, 8000, 800)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := l.db.GetClip("new.wav")
		return err == nil
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return log.has("added:new.wav")
	}, "expected added:new.wav callback")
}

func TestWatcher_RemovedFileDropped(t *testing.T) {
	l, libDir, log := startWatcher(t)

	abs := testutil.WriteWAV(t, libDir, "temp.wav", 1, 8000, 800)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := l.db.GetClip("temp.wav")
		return err == nil
	}, "file not indexed")

	os.Remove(abs)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := l.db.GetClip("temp.wav")
		return errors.Is(err, apperr.ErrNotFound)
	}, "removed file still in store")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return log.has("removed:temp.wav")
	}, "expected removed:temp.wav callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	l, libDir, _ := startWatcher(t)

	sub := filepath.Join(libDir, "drums")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	testutil.WriteWAV(t, libDir, filepath.Join("drums", "hat.wav"), 1, 8000, 400)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := l.db.GetClip(filepath.Join("drums", "hat.wav"))
		return err == nil
	}, "file in new directory not indexed")
}

func TestWatcher_RenameReconciled(t *testing.T) {
	l, libDir, _ := startWatcher(t)

	testutil.WriteWAV(t, libDir, "before.wav", 1, 8000, 800)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := l.db.GetClip("before.wav")
		return err == nil
	}, "file not indexed")

	if err := os.Rename(filepath.Join(libDir, "before.wav"), filepath.Join(libDir, "after.wav")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, errOld := l.db.GetClip("before.wav")
		_, errNew := l.db.GetClip("after.wav")
		return errors.Is(errOld, apperr.ErrNotFound) && errNew == nil
	}, "rename not reconciled")
}

func TestWatcher_NonAudioIgnored(t *testing.T) {
	l, libDir, log := startWatcher(t)

	if err := os.WriteFile(filepath.Join(libDir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	testutil.WriteWAV(t, libDir, "real.wav", 1, 8000, 400)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := l.db.GetClip("real.wav")
		return err == nil
	}, "audio file not indexed")

	if _, err := l.db.GetClip("notes.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("non-audio file was indexed: %v", err)
	}
	if log.has("added:notes.txt") {
		t.Error("callback fired for non-audio file")
	}
}
