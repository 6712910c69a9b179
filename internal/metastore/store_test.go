package metastore

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/whitlock/clipvault/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "clipvault-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func row(path string) ClipRow {
	return ClipRow{
		Path:       path,
		Name:       baseName(path),
		Channels:   2,
		SampleRate: 44100,
		SizeBytes:  1024,
		Duration:   1.5,
		ModTime:    time.Now(),
		Tags:       []string{},
		UpdatedAt:  time.Now(),
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM clips`).Scan(&count); err != nil {
		t.Fatalf("clips table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM clip_tags`).Scan(&count); err != nil {
		t.Fatalf("clip_tags table missing: %v", err)
	}
}

func TestUpsertAndGetClip(t *testing.T) {
	db := testDB(t)
	r := row("drums/kick.wav")
	r.Description = "punchy kick"
	r.Tags = []string{"drums", "one-shot"}

	if err := db.UpsertClip(r); err != nil {
		t.Fatalf("UpsertClip: %v", err)
	}
	got, err := db.GetClip("drums/kick.wav")
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if got.Name != "kick.wav" || got.Channels != 2 || got.SampleRate != 44100 {
		t.Errorf("got = %+v", got)
	}
	if got.Description != "punchy kick" {
		t.Errorf("description = %q", got.Description)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v", got.Tags)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := testDB(t)
	r := row("a.wav")
	if err := db.UpsertClip(r); err != nil {
		t.Fatal(err)
	}
	r.SizeBytes = 2048
	if err := db.UpsertClip(r); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err := db.GetClip("a.wav")
	if err != nil {
		t.Fatal(err)
	}
	if got.SizeBytes != 2048 {
		t.Errorf("size = %d, want 2048", got.SizeBytes)
	}
	_, total, err := db.ListClips(0, 0, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestGetClipNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetClip("ghost.wav"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteClip(t *testing.T) {
	db := testDB(t)
	r := row("del.wav")
	r.Tags = []string{"temp"}
	_ = db.UpsertClip(r)

	if err := db.DeleteClip("del.wav"); err != nil {
		t.Fatalf("DeleteClip: %v", err)
	}
	if _, err := db.GetClip("del.wav"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	var n int
	_ = db.conn.QueryRow(`SELECT count(*) FROM clip_tags WHERE path = ?`, "del.wav").Scan(&n)
	if n != 0 {
		t.Errorf("stale tag associations: %d", n)
	}
}

func TestListClipsPaginationAndSort(t *testing.T) {
	db := testDB(t)
	for _, p := range []string{"c.wav", "a.wav", "b.wav"} {
		_ = db.UpsertClip(row(p))
	}

	clips, total, err := db.ListClips(2, 0, "", "path")
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(clips) != 2 || clips[0].Path != "a.wav" || clips[1].Path != "b.wav" {
		t.Errorf("page 1 = %+v", clips)
	}

	clips, _, err = db.ListClips(2, 2, "", "path")
	if err != nil {
		t.Fatal(err)
	}
	if len(clips) != 1 || clips[0].Path != "c.wav" {
		t.Errorf("page 2 = %+v", clips)
	}
}

func TestListClipsTagFilter(t *testing.T) {
	db := testDB(t)
	a := row("a.wav")
	a.Tags = []string{"drums"}
	b := row("b.wav")
	b.Tags = []string{"bass"}
	_ = db.UpsertClip(a)
	_ = db.UpsertClip(b)

	clips, total, err := db.ListClips(0, 0, "drums", "")
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if total != 1 || len(clips) != 1 || clips[0].Path != "a.wav" {
		t.Errorf("filtered = %+v (total %d)", clips, total)
	}
}

func TestSetMetadata(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertClip(row("x.wav"))

	if err := db.SetMetadata("x.wav", []string{"loop", "dark"}, "late night loop"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	got, err := db.GetClip("x.wav")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "late night loop" || len(got.Tags) != 2 {
		t.Errorf("got = %+v", got)
	}

	// Overwrite replaces the tag set entirely.
	if err := db.SetMetadata("x.wav", []string{"bright"}, "reworked"); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetClip("x.wav")
	if len(got.Tags) != 1 || got.Tags[0] != "bright" {
		t.Errorf("tags = %v, want [bright]", got.Tags)
	}

	if err := db.SetMetadata("ghost.wav", nil, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRenameClip(t *testing.T) {
	db := testDB(t)
	r := row("old/name.wav")
	r.Tags = []string{"keep-me"}
	r.Description = "still here"
	_ = db.UpsertClip(r)

	if err := db.RenameClip("old/name.wav", "new/better.wav"); err != nil {
		t.Fatalf("RenameClip: %v", err)
	}
	if _, err := db.GetClip("old/name.wav"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old path err = %v, want ErrNotFound", err)
	}
	got, err := db.GetClip("new/better.wav")
	if err != nil {
		t.Fatalf("GetClip(new): %v", err)
	}
	if got.Name != "better.wav" {
		t.Errorf("name = %q, want better.wav", got.Name)
	}
	if got.Description != "still here" || len(got.Tags) != 1 || got.Tags[0] != "keep-me" {
		t.Errorf("metadata lost on rename: %+v", got)
	}

	if err := db.RenameClip("ghost.wav", "x.wav"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAllStats(t *testing.T) {
	db := testDB(t)
	a := row("a.wav")
	a.SizeBytes = 11
	b := row("b.wav")
	b.SizeBytes = 22
	_ = db.UpsertClip(a)
	_ = db.UpsertClip(b)

	stats, err := db.AllStats()
	if err != nil {
		t.Fatalf("AllStats: %v", err)
	}
	if len(stats) != 2 || stats["a.wav"].SizeBytes != 11 || stats["b.wav"].SizeBytes != 22 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAllTags(t *testing.T) {
	db := testDB(t)
	a := row("a.wav")
	a.Tags = []string{"drums", "loop"}
	b := row("b.wav")
	b.Tags = []string{"loop", "bass"}
	_ = db.UpsertClip(a)
	_ = db.UpsertClip(b)

	tags, err := db.AllTags()
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	if len(tags) != 3 {
		t.Errorf("tags = %v, want 3 distinct", tags)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	a := row("drums/kick.wav")
	a.Description = "punchy analog kick"
	a.Tags = []string{"drums"}
	b := row("pads/warm.wav")
	b.Description = "warm evolving pad"
	b.Tags = []string{"ambient"}
	_ = db.UpsertClip(a)
	_ = db.UpsertClip(b)

	results, err := db.Search("punchy", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "drums/kick.wav" {
		t.Errorf("results = %+v", results)
	}

	// Tag text is searchable too.
	results, err = db.Search("ambient", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "pads/warm.wav" {
		t.Errorf("tag search results = %+v", results)
	}

	results, err = db.Search("nonexistent", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}
