//go:build !sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/chronogrid/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; Search uses LIKE on the media table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _, _ string) {}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search returns media of a pane whose id, title or tags contain query.
// The query is matched literally.
func (db *DB) Search(pane, query string, limit int) ([]models.MediaRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT pane, id, taken_on, title, tags, fingerprint, updated_at
		FROM media
		WHERE pane = ? AND (id LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\')
		ORDER BY taken_on DESC, id
		LIMIT ?
	`, pane, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	return scanRecords(rows)
}
