package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/chronogrid/internal/models"
)

// UpsertMedia inserts or replaces a media record and its search entry.
func (db *DB) UpsertMedia(r models.MediaRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(r.Tags)
	_, err = tx.Exec(`
		INSERT INTO media (pane, id, taken_on, title, tags, fingerprint, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pane, id) DO UPDATE SET
			taken_on    = excluded.taken_on,
			title       = excluded.title,
			tags        = excluded.tags,
			fingerprint = excluded.fingerprint,
			updated_at  = excluded.updated_at
	`, r.Pane, r.ID, r.TakenOn, r.Title, string(tagsJSON), r.Fingerprint, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert media: %w", err)
	}
	if err := ftsUpsert(tx, r.Pane, r.ID, r.Title, r.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteMedia removes a media record. Deleting an unknown id is not an error.
func (db *DB) DeleteMedia(pane, id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, pane, id)
	if _, err := tx.Exec(`DELETE FROM media WHERE pane = ? AND id = ?`, pane, id); err != nil {
		return fmt.Errorf("catalog: delete media: %w", err)
	}
	return tx.Commit()
}

// GetFingerprint returns the stored fingerprint of a media file, or an empty
// string when it is not catalogued.
func (db *DB) GetFingerprint(pane, id string) (string, error) {
	var fp string
	err := db.conn.QueryRow(`SELECT fingerprint FROM media WHERE pane = ? AND id = ?`, pane, id).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get fingerprint: %w", err)
	}
	return fp, nil
}

// AllFingerprints returns id -> fingerprint for every media file of a pane.
func (db *DB) AllFingerprints(pane string) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, fingerprint FROM media WHERE pane = ?`, pane)
	if err != nil {
		return nil, fmt.Errorf("catalog: all fingerprints: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, fp string
		if err := rows.Scan(&id, &fp); err != nil {
			return nil, err
		}
		out[id] = fp
	}
	return out, rows.Err()
}

// Sequence returns the parallel id and date sequences of a pane, newest
// first. Dates are returned as stored, including malformed ones.
func (db *DB) Sequence(pane string) (ids, dates []string, err error) {
	rows, err := db.conn.Query(`
		SELECT id, taken_on FROM media
		WHERE pane = ?
		ORDER BY taken_on DESC, id
	`, pane)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: sequence: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, d string
		if err := rows.Scan(&id, &d); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		dates = append(dates, d)
	}
	return ids, dates, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]models.MediaRecord, error) {
	defer rows.Close()
	var out []models.MediaRecord
	for rows.Next() {
		var r models.MediaRecord
		var tags string
		if err := rows.Scan(&r.Pane, &r.ID, &r.TakenOn, &r.Title, &tags, &r.Fingerprint, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
			return nil, fmt.Errorf("catalog: decode tags of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
