// Package storage lists media files under a library root. Media files are
// never modified; only their YAML sidecars can be written.
package storage

import (
	"io"

	"github.com/starford/chronogrid/internal/models"
)

// Provider is the interface to one media library.
type Provider interface {
	// Root returns the absolute library directory.
	Root() string
	// List returns metadata for every media file under dir (relative to root).
	List(dir string) ([]models.MediaMetadata, error)
	// Stat returns metadata for the media file at path (relative to root).
	Stat(path string) (models.MediaMetadata, error)
	// ReadSidecar returns the sidecar bytes for a media file, or nil when
	// it has none.
	ReadSidecar(path string) ([]byte, error)
	// Open opens the media file at path for reading.
	Open(path string) (io.ReadSeekCloser, error)
	// WriteSidecar replaces the sidecar of an existing media file atomically.
	WriteSidecar(path string, data []byte) error
	// IsMedia reports whether a file name carries a media extension.
	IsMedia(name string) bool
}
