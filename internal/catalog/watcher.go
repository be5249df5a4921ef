package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/chronogrid/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated    = "created"
	EventUpdated    = "updated"
	EventDeleted    = "deleted"
	EventReconciled = "reconciled"
)

// reconcileDelay debounces the full pass that follows renames.
const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven catalog change. id is
// empty for EventReconciled.
type EventCallback func(kind, pane, id string)

// Watch starts an fsnotify watcher on a pane's library root and keeps the
// catalog current until ctx is cancelled. Sidecar edits re-date the media
// file they belong to. New directories are added to the watch list; renames
// trigger a debounced reconciliation pass.
func Watch(ctx context.Context, db Store, store storage.Provider, pane string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("pane", pane), slog.String("root", root))

	notify := func(kind, id string) {
		if cb != nil {
			cb(kind, pane, id)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped", slog.String("pane", pane))
			return nil

		case <-reconcileCh:
			st, err := Sync(db, store, pane, logger)
			if err != nil {
				logger.Warn("reconcile: sync failed", slog.String("pane", pane), slog.String("error", err.Error()))
				continue
			}
			if st.Changed() {
				logger.Debug("reconcile: done",
					slog.String("pane", pane),
					slog.Int("indexed", st.Indexed),
					slog.Int("removed", st.Removed))
				notify(EventReconciled, "")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name
			if strings.HasPrefix(filepath.Base(absPath), ".") {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					indexNewDir(db, store, pane, absPath, logger, notify)
					continue
				}
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if media, ok := storage.MediaForSidecar(rel); ok && store.IsMedia(media) {
				// Any sidecar change re-dates its media file; a missing
				// media file means the sidecar is an orphan.
				changed, idxErr := IndexFile(db, store, pane, media, logger)
				if idxErr != nil {
					logger.Debug("watcher: sidecar without media",
						slog.String("path", rel),
						slog.String("error", idxErr.Error()))
					continue
				}
				if changed {
					logger.Debug("watcher: re-dated", slog.String("pane", pane), slog.String("path", media))
					notify(EventUpdated, media)
				}
				continue
			}

			if !store.IsMedia(rel) {
				if ev.Op&fsnotify.Rename != 0 {
					// A directory moved away; its files get no events of
					// their own.
					scheduleReconcile()
				}
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				prev, _ := db.GetFingerprint(pane, rel)
				changed, idxErr := IndexFile(db, store, pane, rel, logger)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				if !changed {
					continue
				}
				kind := EventUpdated
				if prev == "" {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("pane", pane), slog.String("path", rel), slog.String("op", kind))
				notify(kind, rel)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteMedia(pane, rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("pane", pane), slog.String("path", rel))
				notify(EventDeleted, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports the old name only; the new one arrives as
				// a Create if it stays inside a watched directory.
				if delErr := db.DeleteMedia(pane, rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					notify(EventDeleted, rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("pane", pane), slog.String("error", watchErr.Error()))
		}
	}
}

// indexNewDir catalogs media files found in a directory created at runtime.
func indexNewDir(db Store, store storage.Provider, pane, dirPath string, logger *slog.Logger, notify func(kind, id string)) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dirPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !store.IsMedia(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(store.Root(), path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if changed, idxErr := IndexFile(db, store, pane, rel, logger); idxErr == nil && changed {
			logger.Debug("watcher: indexed from new dir", slog.String("pane", pane), slog.String("path", rel))
			notify(EventCreated, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
