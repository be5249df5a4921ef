//go:build sqlite_fts5

package catalog

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM media_fts`).Scan(&count); err != nil {
		t.Fatalf("media_fts table missing: %v", err)
	}
}

func TestFTS5_DeleteRemovesEntry(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMedia(rec("source", "album/pic.jpg", "2022-02-02"))
	if err := db.DeleteMedia("source", "album/pic.jpg"); err != nil {
		t.Fatal(err)
	}
	var count int
	_ = db.conn.QueryRow(`SELECT count(*) FROM media_fts`).Scan(&count)
	if count != 0 {
		t.Errorf("fts rows after delete = %d", count)
	}
}

func TestFTS5_PathSegmentsMatch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMedia(rec("source", "2022_summer/lake-view.jpg", "2022-07-02"))
	results, err := db.Search("source", "lake", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results = %+v", results)
	}
}
