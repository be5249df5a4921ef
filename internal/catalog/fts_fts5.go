//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/chronogrid/internal/models"
)

func initFTS(conn *sql.DB) error {
	// Tables from before tags were indexed are rebuilt; migrate has
	// cleared the fingerprints so sync refills them.
	ok, err := hasColumn(conn, "media_fts", "tags")
	if err != nil {
		return err
	}
	if !ok {
		if _, err := conn.Exec(`DROP TABLE IF EXISTS media_fts`); err != nil {
			return err
		}
	}
	_, err = conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS media_fts USING fts5(
			pane UNINDEXED,
			id UNINDEXED,
			words,
			title,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

// pathWords splits an id on separators so that path segments match as words.
func pathWords(id string) string {
	return strings.NewReplacer("/", " ", ".", " ", "_", " ", "-", " ").Replace(id)
}

func ftsUpsert(tx *sql.Tx, pane, id, title string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM media_fts WHERE pane = ? AND id = ?`, pane, id)
	_, err := tx.Exec(`INSERT INTO media_fts (pane, id, words, title, tags) VALUES (?, ?, ?, ?, ?)`,
		pane, id, pathWords(id), title, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("catalog: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, pane, id string) {
	_, _ = tx.Exec(`DELETE FROM media_fts WHERE pane = ? AND id = ?`, pane, id)
}

// Search runs an FTS5 query over media ids, titles and tags of a pane.
func (db *DB) Search(pane, query string, limit int) ([]models.MediaRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT m.pane, m.id, m.taken_on, m.title, m.tags, m.fingerprint, m.updated_at
		FROM media_fts f
		JOIN media m ON m.pane = f.pane AND m.id = f.id
		WHERE media_fts MATCH ? AND f.pane = ?
		ORDER BY f.rank
		LIMIT ?
	`, query, pane, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	return scanRecords(rows)
}
