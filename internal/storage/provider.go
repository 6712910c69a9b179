// Package storage defines the library file-system abstraction.
package storage

import (
	"io"
	"time"
)

// FileInfo describes one audio file in the library.
type FileInfo struct {
	Path      string // relative to the library root
	SizeBytes int64
	ModTime   time.Time
}

// Provider is the interface for library file operations. All paths are
// relative to the library root.
type Provider interface {
	// List returns info for every .wav file under the root,
	// matching the extension case-insensitively.
	List() ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Open returns a seekable handle on the file at path, so callers
	// that only need the header never pull the payload off disk.
	Open(path string) (io.ReadSeekCloser, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Rename moves oldPath to newPath.
	Rename(oldPath, newPath string) error
	// Resolve returns the absolute path for a relative one, rejecting
	// anything that escapes the library root.
	Resolve(path string) (string, error)
}
