//go:build sqlite_fts5

package metastore

import (
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM clips_fts`).Scan(&count); err != nil {
		t.Fatalf("clips_fts table missing: %v", err)
	}
}

func TestFTS5_DeleteRemovesFromIndex(t *testing.T) {
	db := testDB(t)
	r := row("gone.wav")
	r.Description = "vanishing shimmer texture"
	_ = db.UpsertClip(r)
	_ = db.DeleteClip("gone.wav")

	results, _ := db.Search("vanishing", 10)
	for _, res := range results {
		if res.Path == "gone.wav" {
			t.Error("deleted clip still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	r := row("mut.wav")
	r.Description = "original thunder rumble"
	_ = db.UpsertClip(r)

	r.Description = "replaced birdsong chirps"
	_ = db.UpsertClip(r)

	if results, _ := db.Search("thunder", 10); len(results) != 0 {
		t.Errorf("stale content still indexed: %+v", results)
	}
	results, err := db.Search("birdsong", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "mut.wav" {
		t.Errorf("results = %+v", results)
	}
}

func TestFTS5_MetadataUpdateReindexes(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertClip(row("tagged.wav"))
	if err := db.SetMetadata("tagged.wav", []string{"glacial"}, "slow moving ice"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}

	results, err := db.Search("glacial", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "tagged.wav" {
		t.Errorf("results = %+v", results)
	}
}
