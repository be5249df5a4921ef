package catalog

import (
	"log/slog"
	"time"

	"github.com/starford/chronogrid/internal/checksum"
	"github.com/starford/chronogrid/internal/metadata"
	"github.com/starford/chronogrid/internal/models"
	"github.com/starford/chronogrid/internal/storage"
)

// Stats summarises one sync pass.
type Stats struct {
	Indexed   int `json:"indexed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Changed reports whether the pass modified the catalog.
func (s Stats) Changed() bool { return s.Indexed > 0 || s.Removed > 0 }

// Sync walks a pane's library and brings the catalog up to date:
//   - new or changed files (including their sidecars) are re-dated and upserted
//   - files removed from disk are deleted from the catalog
func Sync(db Store, store storage.Provider, pane string, logger *slog.Logger) (Stats, error) {
	var st Stats
	metas, err := store.List("")
	if err != nil {
		return st, err
	}

	known, err := db.AllFingerprints(pane)
	if err != nil {
		return st, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		changed, err := indexMedia(db, store, pane, m, known[m.Path], logger)
		if err != nil {
			logger.Warn("sync: index failed",
				slog.String("pane", pane),
				slog.String("path", m.Path),
				slog.String("error", err.Error()))
			continue
		}
		if !changed {
			st.Unchanged++
			continue
		}
		st.Indexed++
		logger.Debug("sync: indexed", slog.String("pane", pane), slog.String("path", m.Path))
	}

	for id := range known {
		if _, ok := disk[id]; ok {
			continue
		}
		if err := db.DeleteMedia(pane, id); err != nil {
			logger.Warn("sync: delete failed",
				slog.String("pane", pane),
				slog.String("path", id),
				slog.String("error", err.Error()))
			continue
		}
		st.Removed++
		logger.Debug("sync: removed stale", slog.String("pane", pane), slog.String("path", id))
	}

	return st, nil
}

// indexMedia resolves the capture date of m and upserts it unless its
// fingerprint equals prev. It reports whether the catalog was written.
func indexMedia(db Store, store storage.Provider, pane string, m models.MediaMetadata, prev string, logger *slog.Logger) (bool, error) {
	var sidecar []byte
	if m.HasSidecar {
		data, err := store.ReadSidecar(m.Path)
		if err != nil {
			return false, err
		}
		sidecar = data
	}
	fp := checksum.Fingerprint(m.Size, m.ModTime, sidecar)
	if prev != "" && prev == fp {
		return false, nil
	}

	var sc *metadata.Sidecar
	if sidecar != nil {
		parsed, err := metadata.Parse(sidecar)
		if err != nil {
			// A broken sidecar must not hide the file; fall back to mtime.
			logger.Warn("sync: sidecar ignored",
				slog.String("pane", pane),
				slog.String("path", m.Path),
				slog.String("error", err.Error()))
		} else {
			sc = parsed
		}
	}

	rec := models.MediaRecord{
		Pane:        pane,
		ID:          m.Path,
		TakenOn:     metadata.ResolveDate(sc, m.ModTime),
		Fingerprint: fp,
		UpdatedAt:   time.Now().UTC(),
	}
	if sc != nil {
		rec.Title = sc.Title
		rec.Tags = sc.Tags
	}
	if rec.Title == "" && metadata.HasEmbeddedTags(m.Path) {
		rec.Title = embeddedTitle(store, m.Path)
	}
	if err := db.UpsertMedia(rec); err != nil {
		return false, err
	}
	return true, nil
}

func embeddedTitle(store storage.Provider, path string) string {
	f, err := store.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	return metadata.EmbeddedTitle(f)
}

// IndexFile stats a single media file and catalogs it if it changed. It
// reports whether the catalog was written.
func IndexFile(db Store, store storage.Provider, pane, rel string, logger *slog.Logger) (bool, error) {
	m, err := store.Stat(rel)
	if err != nil {
		return false, err
	}
	prev, err := db.GetFingerprint(pane, m.Path)
	if err != nil {
		return false, err
	}
	return indexMedia(db, store, pane, m, prev, logger)
}
