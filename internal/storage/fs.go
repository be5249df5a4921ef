package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/chronogrid/internal/models"
)

// SidecarExt is appended to a media file name to locate its metadata file.
const SidecarExt = ".yaml"

// DefaultExtensions are the media types listed when none are configured.
var DefaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".tif", ".tiff",
	".mp4", ".mov", ".m4v", ".avi", ".mkv", ".webm",
}

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to library directory
	exts map[string]struct{}
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. An empty exts uses DefaultExtensions.
func NewFS(root string, exts []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return &FS{root: abs, exts: set}, nil
}

// Root returns the absolute library directory.
func (f *FS) Root() string { return f.root }

// IsMedia reports whether name has one of the configured extensions.
func (f *FS) IsMedia(name string) bool {
	_, ok := f.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// safePath resolves a relative path against the library root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes library root: %s", rel)
	}
	return abs, nil
}

// List walks dir (relative to root) and returns metadata for every media
// file. Hidden files and directories are skipped.
func (f *FS) List(dir string) ([]models.MediaMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.MediaMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && p != base {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !f.IsMedia(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, f.metadata(rel, p, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Stat returns metadata for a single media file.
func (f *FS) Stat(path string) (models.MediaMetadata, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return models.MediaMetadata{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.MediaMetadata{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() || !f.IsMedia(info.Name()) {
		return models.MediaMetadata{}, fmt.Errorf("storage: not a media file: %s", path)
	}
	return f.metadata(filepath.Clean(path), abs, info), nil
}

func (f *FS) metadata(rel, abs string, info fs.FileInfo) models.MediaMetadata {
	_, err := os.Stat(abs + SidecarExt)
	return models.MediaMetadata{
		Path:       filepath.ToSlash(rel),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		HasSidecar: err == nil,
	}
}

// ReadSidecar returns the bytes of "<path>.yaml", or nil when it is absent.
func (f *FS) ReadSidecar(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs + SidecarExt)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read sidecar %s: %w", path, err)
	}
	return data, nil
}

// Open opens a media file read-only.
func (f *FS) Open(path string) (io.ReadSeekCloser, error) {
	m, err := f.Stat(path)
	if err != nil {
		return nil, err
	}
	abs, err := f.safePath(m.Path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return file, nil
}

// WriteSidecar writes "<path>.yaml" via a temp file and rename so that
// watchers never observe a partial document.
func (f *FS) WriteSidecar(path string, data []byte) error {
	m, err := f.Stat(path)
	if err != nil {
		return err
	}
	abs, err := f.safePath(m.Path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".sidecar-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write sidecar %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs+SidecarExt); err != nil {
		return fmt.Errorf("storage: rename sidecar %s: %w", path, err)
	}
	return nil
}

// MediaForSidecar returns the media path a sidecar file belongs to.
func MediaForSidecar(name string) (string, bool) {
	if !strings.HasSuffix(name, SidecarExt) {
		return "", false
	}
	return strings.TrimSuffix(name, SidecarExt), true
}
