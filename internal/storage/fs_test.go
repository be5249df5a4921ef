package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func tempLibrary(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, nil)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, fs
}

func write(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListMediaOnly(t *testing.T) {
	dir, s := tempLibrary(t)
	write(t, dir, "a.jpg", "x")
	write(t, dir, "trip/b.MP4", "yy")
	write(t, dir, "notes.txt", "n")
	write(t, dir, "a.jpg.yaml", "date: 2020-01-01")
	write(t, dir, ".thumbs/c.jpg", "hidden")

	metas, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	sort.Strings(paths)
	if len(paths) != 2 || paths[0] != "a.jpg" || paths[1] != "trip/b.MP4" {
		t.Fatalf("paths = %v", paths)
	}
	for _, m := range metas {
		if m.Path == "a.jpg" && !m.HasSidecar {
			t.Error("a.jpg should report its sidecar")
		}
		if m.Path == "trip/b.MP4" && (m.HasSidecar || m.Size != 2) {
			t.Errorf("unexpected metadata %+v", m)
		}
	}
}

func TestCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir, []string{"RAW", ".dng"})
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsMedia("x.raw") || !s.IsMedia("y.DNG") || s.IsMedia("z.jpg") {
		t.Error("extension matching is wrong")
	}
}

func TestStat(t *testing.T) {
	dir, s := tempLibrary(t)
	write(t, dir, "sub/p.png", "png")
	mt := time.Date(2021, 4, 5, 6, 7, 8, 0, time.UTC)
	_ = os.Chtimes(filepath.Join(dir, "sub/p.png"), mt, mt)

	m, err := s.Stat("sub/p.png")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if m.Path != "sub/p.png" || !m.ModTime.Equal(mt) {
		t.Errorf("metadata = %+v", m)
	}
	if _, err := s.Stat("missing.png"); err == nil {
		t.Error("expected error for missing file")
	}
	write(t, dir, "readme.md", "#")
	if _, err := s.Stat("readme.md"); err == nil {
		t.Error("expected error for non-media file")
	}
}

func TestReadSidecar(t *testing.T) {
	dir, s := tempLibrary(t)
	write(t, dir, "a.jpg", "x")
	data, err := s.ReadSidecar("a.jpg")
	if err != nil || data != nil {
		t.Fatalf("missing sidecar = %q, %v; want nil, nil", data, err)
	}
	write(t, dir, "a.jpg.yaml", "date: 2019-02-03\n")
	data, err = s.ReadSidecar("a.jpg")
	if err != nil || string(data) != "date: 2019-02-03\n" {
		t.Errorf("sidecar = %q, %v", data, err)
	}
}

func TestOpen(t *testing.T) {
	dir, s := tempLibrary(t)
	write(t, dir, "v.mp4", "video")
	f, err := s.Open("v.mp4")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	buf := make([]byte, 5)
	if _, err := f.Read(buf); err != nil || string(buf) != "video" {
		t.Errorf("read = %q, %v", buf, err)
	}
	if _, err := s.Open("notes.txt"); err == nil {
		t.Error("expected error for non-media file")
	}
}

func TestWriteSidecar(t *testing.T) {
	dir, s := tempLibrary(t)
	write(t, dir, "album/a.jpg", "x")

	if err := s.WriteSidecar("album/a.jpg", []byte("date: 2001-01-01\n")); err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "album", "a.jpg.yaml"))
	if err != nil || string(data) != "date: 2001-01-01\n" {
		t.Errorf("sidecar = %q, %v", data, err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "album"))
	if len(entries) != 2 {
		t.Errorf("temp file left behind: %v", entries)
	}
	if err := s.WriteSidecar("missing.jpg", []byte("x")); err == nil {
		t.Error("expected error for missing media file")
	}
}

func TestPathTraversal(t *testing.T) {
	_, s := tempLibrary(t)
	if _, err := s.Stat("../../etc/passwd.jpg"); err == nil {
		t.Error("expected error for path traversal")
	}
	if _, err := s.List("/abs"); err == nil {
		t.Error("expected error for absolute path")
	}
}

func TestMediaForSidecar(t *testing.T) {
	if m, ok := MediaForSidecar("x/a.jpg.yaml"); !ok || m != "x/a.jpg" {
		t.Errorf("MediaForSidecar = %q, %v", m, ok)
	}
	if _, ok := MediaForSidecar("a.jpg"); ok {
		t.Error("non-sidecar accepted")
	}
}

func TestNewFS_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.jpg")
	_ = os.WriteFile(file, []byte("x"), 0o644)
	if _, err := NewFS(file, nil); err == nil {
		t.Error("expected error for file root")
	}
}
