// Package catalog keeps a SQLite record of every media file in the
// configured libraries together with its resolved capture date.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/chronogrid/internal/models"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS media (
	pane        TEXT NOT NULL,
	id          TEXT NOT NULL,
	taken_on    TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	fingerprint TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (pane, id)
);

CREATE INDEX IF NOT EXISTS idx_media_order ON media(pane, taken_on DESC, id);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// migrate brings a catalog created by an older release up to the current
// schema. Fingerprints are cleared so the next sync re-reads every sidecar.
func migrate(conn *sql.DB) error {
	ok, err := hasColumn(conn, "media", "tags")
	if err != nil || ok {
		return err
	}
	if _, err := conn.Exec(`ALTER TABLE media ADD COLUMN tags TEXT NOT NULL DEFAULT '[]'`); err != nil {
		return err
	}
	_, err = conn.Exec(`UPDATE media SET fingerprint = ''`)
	return err
}

func hasColumn(conn *sql.DB, table, column string) (bool, error) {
	rows, err := conn.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Store is the catalog surface used by sync, the watcher and the gallery.
type Store interface {
	UpsertMedia(r models.MediaRecord) error
	DeleteMedia(pane, id string) error
	GetFingerprint(pane, id string) (string, error)
	AllFingerprints(pane string) (map[string]string, error)
	Sequence(pane string) (ids, dates []string, err error)
	Search(pane, query string, limit int) ([]models.MediaRecord, error)
	Close() error
}

var _ Store = (*DB)(nil)
