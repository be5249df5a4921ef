// Package testutil provides shared test helpers for setting up media
// libraries and catalogs.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/chronogrid/internal/catalog"
	"github.com/starford/chronogrid/internal/models"
	"github.com/starford/chronogrid/internal/storage"
)

// TestDB creates a temporary catalog database that is automatically cleaned up.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "chronogrid-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary media library with a storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteMedia creates a media file under dir. A non-empty date is written
// to its sidecar.
func WriteMedia(t *testing.T, dir, rel, date string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(rel), 0o644); err != nil {
		t.Fatal(err)
	}
	if date == "" {
		return
	}
	if err := os.WriteFile(p+storage.SidecarExt, []byte("date: \""+date+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Seed upserts records for pane from parallel id and date slices.
func Seed(t *testing.T, db *catalog.DB, pane string, ids, dates []string) {
	t.Helper()
	for i, id := range ids {
		var d string
		if i < len(dates) {
			d = dates[i]
		}
		err := db.UpsertMedia(models.MediaRecord{Pane: pane, ID: id, TakenOn: d, Fingerprint: id, UpdatedAt: time.Now()})
		if err != nil {
			t.Fatal(err)
		}
	}
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
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
