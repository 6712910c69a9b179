// Package librarian reconciles the library file system against the
// metadata store. Disk is the source of truth for audio bytes; the
// store is the source of truth for tags and descriptions.
package librarian

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/whitlock/clipvault/internal/apperr"
	"github.com/whitlock/clipvault/internal/audio"
	"github.com/whitlock/clipvault/internal/metastore"
	"github.com/whitlock/clipvault/internal/storage"
)

// Librarian holds the pieces needed for reconciliation and loading.
type Librarian struct {
	store  storage.Provider
	db     metastore.Store
	logger *slog.Logger
}

// New creates a Librarian.
func New(store storage.Provider, db metastore.Store, logger *slog.Logger) *Librarian {
	return &Librarian{store: store, db: db, logger: logger}
}

// Report summarizes one reconciliation pass.
type Report struct {
	Added     int      `json:"added"`
	Removed   int      `json:"removed"`
	Refreshed int      `json:"refreshed"`
	Failed    []string `json:"failed,omitempty"`
}

// Reconcile walks the library and brings the store up to date:
//   - files without a record are probed and inserted with empty
//     tags/description
//   - records without a file are deleted
//   - records whose file size or mod time drifted get their cached
//     stats refreshed, tags and description untouched
//
// Files matching the extension but not parseable as audio are skipped
// and reported in Failed, never fatal to the scan. Only the header is
// read; PCM payloads stay untouched.
func (l *Librarian) Reconcile() (Report, error) {
	var rep Report

	files, err := l.store.List()
	if err != nil {
		return rep, err
	}
	cached, err := l.db.AllStats()
	if err != nil {
		return rep, err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}

		stat, known := cached[f.Path]
		if known && stat.SizeBytes == f.SizeBytes && stat.ModTime.Equal(f.ModTime) {
			continue
		}

		if err := l.indexFile(f, known); err != nil {
			rep.Failed = append(rep.Failed, f.Path)
			l.logger.Warn("reconcile: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if known {
			rep.Refreshed++
			l.logger.Debug("reconcile: refreshed", slog.String("path", f.Path))
		} else {
			rep.Added++
			l.logger.Debug("reconcile: added", slog.String("path", f.Path))
		}
	}

	// Remove stale records.
	for p := range cached {
		if _, ok := disk[p]; !ok {
			if err := l.db.DeleteClip(p); err != nil {
				l.logger.Warn("reconcile: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				rep.Removed++
				l.logger.Debug("reconcile: removed stale", slog.String("path", p))
			}
		}
	}

	return rep, nil
}

// indexFile probes the file header and upserts its record. For known
// records the existing tags and description are carried over so a
// stats refresh never loses user metadata.
func (l *Librarian) indexFile(f storage.FileInfo, known bool) error {
	r, err := l.store.Open(f.Path)
	if err != nil {
		return err
	}
	stats, err := audio.Probe(r)
	_ = r.Close()
	if err != nil {
		return err
	}

	row := metastore.ClipRow{
		Path:       f.Path,
		Name:       filepath.Base(f.Path),
		Channels:   stats.Channels,
		SampleRate: stats.SampleRate,
		SizeBytes:  f.SizeBytes,
		Duration:   stats.Seconds(),
		ModTime:    f.ModTime,
		Tags:       []string{},
		UpdatedAt:  time.Now(),
	}
	if known {
		prev, err := l.db.GetClip(f.Path)
		if err == nil {
			row.Description = prev.Description
			row.Tags = prev.Tags
		}
	}
	return l.db.UpsertClip(row)
}

// IndexPath probes a single library file and upserts its record,
// preserving metadata when a record already exists. Used by the
// watcher and by imports.
func (l *Librarian) IndexPath(path string) error {
	abs, err := l.store.Resolve(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	_, known := l.knownRecord(path)
	return l.indexFile(storage.FileInfo{Path: path, SizeBytes: info.Size(), ModTime: info.ModTime()}, known)
}

func (l *Librarian) knownRecord(path string) (*metastore.ClipRow, bool) {
	rec, err := l.db.GetClip(path)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// Load fully decodes the library file at path.
func (l *Librarian) Load(path string) (*audio.Clip, error) {
	data, err := l.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("librarian: load %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	clip, err := audio.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	clip.Path = path
	clip.SizeBytes = int64(len(data))
	return clip, nil
}

// UpdateMetadata overwrites the tags and description of an existing
// record. Fails with ErrNotFound when no record exists.
func (l *Librarian) UpdateMetadata(path string, tags []string, description string) error {
	if tags == nil {
		tags = []string{}
	}
	return l.db.SetMetadata(path, tags, description)
}
