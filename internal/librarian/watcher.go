package librarian

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/whitlock/clipvault/internal/storage"
)

// EventCallback is called after a watcher-driven store change.
// kind is one of "added", "updated", "removed".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the library root and processes
// file change events until ctx is cancelled. It calls cb (if non-nil)
// after each successful store mutation.
//
// New directories created at runtime are automatically added to the
// watch list. Rename events trigger a reconciliation pass that removes
// stale records whose files no longer exist on disk.
func (l *Librarian) Watch(ctx context.Context, libraryRoot string, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, libraryRoot); err != nil {
		return err
	}

	l.logger.Info("watcher: started", slog.String("root", libraryRoot))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			l.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			l.reconcileAfterRename(cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						l.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						l.logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Index any audio files already in the new directory.
					l.indexNewDir(libraryRoot, absPath, cb)
					continue
				}
			}

			// Only process audio files from here on.
			if !storage.IsAudioPath(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(libraryRoot, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				_, known := l.knownRecord(rel)
				if idxErr := l.IndexPath(rel); idxErr != nil {
					l.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if !known {
					kind = "added"
				}
				l.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				if cb != nil {
					cb(kind, rel)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := l.db.DeleteClip(rel); delErr != nil {
					l.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				l.logger.Debug("watcher: removed", slog.String("path", rel))
				if cb != nil {
					cb("removed", rel)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir). We delete the old record
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				if delErr := l.db.DeleteClip(rel); delErr != nil {
					l.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					l.logger.Debug("watcher: rename old removed", slog.String("path", rel))
					if cb != nil {
						cb("removed", rel)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileAfterRename does a lightweight sync using batch lookups:
// removes records without a file on disk and indexes files that drifted
// from their cached stats.
func (l *Librarian) reconcileAfterRename(cb EventCallback) {
	cached, err := l.db.AllStats()
	if err != nil {
		l.logger.Warn("reconcile: all stats failed", slog.String("error", err.Error()))
		return
	}

	files, err := l.store.List()
	if err != nil {
		l.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]storage.FileInfo, len(files))
	for _, f := range files {
		disk[f.Path] = f
	}

	for p := range cached {
		if _, ok := disk[p]; !ok {
			if delErr := l.db.DeleteClip(p); delErr == nil {
				l.logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("removed", p)
				}
			}
		}
	}

	for p, f := range disk {
		stat, known := cached[p]
		if known && stat.SizeBytes == f.SizeBytes && stat.ModTime.Equal(f.ModTime) {
			continue
		}
		if idxErr := l.indexFile(f, known); idxErr == nil {
			l.logger.Debug("reconcile: indexed new", slog.String("path", p))
			if cb != nil {
				cb("added", p)
			}
		}
	}
}

// indexNewDir indexes any audio files found in a newly created directory.
func (l *Librarian) indexNewDir(libraryRoot, dirPath string, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsAudioPath(path) {
			return nil
		}
		rel, relErr := filepath.Rel(libraryRoot, path)
		if relErr != nil {
			return nil
		}
		if idxErr := l.IndexPath(rel); idxErr == nil {
			l.logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			if cb != nil {
				cb("added", rel)
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
