// Package testutil provides shared test helpers for setting up
// libraries, databases, and synthetic clips.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/whitlock/clipvault/internal/audio"
	"github.com/whitlock/clipvault/internal/metastore"
	"github.com/whitlock/clipvault/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically
// cleaned up.
func TestDB(t *testing.T) *metastore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "clipvault-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := metastore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary library directory with a
// storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	libDir := t.TempDir()
	store, err := storage.NewFS(libDir)
	if err != nil {
		t.Fatal(err)
	}
	return libDir, store
}

// MakeClip builds an in-memory clip whose samples ramp upward frame by
// frame, identical across channels, so tests can assert exact sample
// positions after edits.
func MakeClip(channels, sampleRate, frames int) *audio.Clip {
	data := make([]int, frames*channels)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			data[f*channels+ch] = f % 32000
		}
	}
	return &audio.Clip{
		Data:       data,
		Channels:   channels,
		SampleRate: sampleRate,
		BitDepth:   16,
	}
}

// WriteWAV encodes a synthetic clip into the library at rel and
// returns its absolute path.
func WriteWAV(t *testing.T, libDir, rel string, channels, sampleRate, frames int) string {
	t.Helper()
	abs := filepath.Join(libDir, rel)
	if err := audio.WriteFile(abs, MakeClip(channels, sampleRate, frames)); err != nil {
		t.Fatalf("write wav %s: %v", rel, err)
	}
	return abs
}
