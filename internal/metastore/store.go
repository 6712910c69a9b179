package metastore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/whitlock/clipvault/internal/apperr"
)

// ClipRow represents a row in the clips table plus its tag set.
type ClipRow struct {
	Path        string
	Name        string
	Description string
	Channels    int
	SampleRate  int
	SizeBytes   int64
	Duration    float64 // seconds
	ModTime     time.Time
	Tags        []string
	UpdatedAt   time.Time
}

// FileStat is the cached file identity used by reconciliation.
type FileStat struct {
	SizeBytes int64
	ModTime   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path        string
	Name        string
	Description string
}

// UpsertClip inserts or replaces a clip record, its tag associations,
// and its FTS entry within a transaction. Tags and description are
// taken from the row as-is; reconciliation callers preserve the
// existing values by reading the record first.
func (db *DB) UpsertClip(c ClipRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO clips (path, name, description, channels, sample_rate, size_bytes, duration, mod_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name        = excluded.name,
			description = excluded.description,
			channels    = excluded.channels,
			sample_rate = excluded.sample_rate,
			size_bytes  = excluded.size_bytes,
			duration    = excluded.duration,
			mod_time    = excluded.mod_time,
			updated_at  = excluded.updated_at
	`, c.Path, c.Name, c.Description, c.Channels, c.SampleRate, c.SizeBytes, c.Duration, c.ModTime, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("metastore: upsert clip: %w", err)
	}

	if err := replaceTags(tx, c.Path, c.Tags); err != nil {
		return err
	}
	if err := ftsUpsert(tx, c.Path, c.Name, c.Description, c.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// replaceTags swaps the clip's tag associations for the given set.
func replaceTags(tx *sql.Tx, path string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM clip_tags WHERE path = ?`, path)
	if len(tags) == 0 {
		return nil
	}
	tagStmt, err := tx.Prepare(`INSERT OR IGNORE INTO tags (tag) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("metastore: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()
	linkStmt, err := tx.Prepare(`INSERT OR IGNORE INTO clip_tags (path, tag) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("metastore: prepare clip_tag insert: %w", err)
	}
	defer linkStmt.Close()
	for _, tag := range tags {
		if _, err := tagStmt.Exec(tag); err != nil {
			return fmt.Errorf("metastore: insert tag: %w", err)
		}
		if _, err := linkStmt.Exec(path, tag); err != nil {
			return fmt.Errorf("metastore: insert clip_tag: %w", err)
		}
	}
	return nil
}

// DeleteClip removes a clip record, its tag associations, and its FTS entry.
func (db *DB) DeleteClip(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM clip_tags WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM clips WHERE path = ?`, path)

	return tx.Commit()
}

// GetClip returns the record for path, including its tags.
func (db *DB) GetClip(path string) (*ClipRow, error) {
	var c ClipRow
	var mod sql.NullTime
	err := db.conn.QueryRow(`
		SELECT path, name, description, channels, sample_rate, size_bytes, duration, mod_time, updated_at
		FROM clips WHERE path = ?
	`, path).Scan(&c.Path, &c.Name, &c.Description, &c.Channels, &c.SampleRate, &c.SizeBytes, &c.Duration, &mod, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("metastore: get clip: %w", err)
	}
	if mod.Valid {
		c.ModTime = mod.Time
	}
	tags, err := db.tagsFor(path)
	if err != nil {
		return nil, err
	}
	c.Tags = tags
	return &c, nil
}

func (db *DB) tagsFor(path string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT tag FROM clip_tags WHERE path = ? ORDER BY tag`, path)
	if err != nil {
		return nil, fmt.Errorf("metastore: tags for clip: %w", err)
	}
	defer rows.Close()
	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ListClips returns paginated clip records with an optional tag filter.
// sort is one of "path", "name", "duration", "updated_at" (default "path").
func (db *DB) ListClips(limit, offset int, tag, sort string) ([]ClipRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order := "path"
	switch sort {
	case "name", "duration", "updated_at":
		order = sort
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE path IN (SELECT path FROM clip_tags WHERE tag = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM clips `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("metastore: count clips: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT path, name, description, channels, sample_rate, size_bytes, duration, mod_time, updated_at
		FROM clips %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, order)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("metastore: list clips: %w", err)
	}
	defer rows.Close()

	var out []ClipRow
	for rows.Next() {
		var c ClipRow
		var mod sql.NullTime
		if err := rows.Scan(&c.Path, &c.Name, &c.Description, &c.Channels, &c.SampleRate, &c.SizeBytes, &c.Duration, &mod, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if mod.Valid {
			c.ModTime = mod.Time
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		tags, err := db.tagsFor(out[i].Path)
		if err != nil {
			return nil, 0, err
		}
		out[i].Tags = tags
	}
	return out, total, nil
}

// SetMetadata overwrites the tags and description of an existing
// record in one transaction. Returns ErrNotFound when no record exists.
func (db *DB) SetMetadata(path string, tags []string, description string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`UPDATE clips SET description = ?, updated_at = ? WHERE path = ?`,
		description, time.Now(), path)
	if err != nil {
		return fmt.Errorf("metastore: update metadata: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	if err := replaceTags(tx, path, tags); err != nil {
		return err
	}

	var name string
	_ = tx.QueryRow(`SELECT name FROM clips WHERE path = ?`, path).Scan(&name)
	if err := ftsUpsert(tx, path, name, description, tags); err != nil {
		return err
	}
	return tx.Commit()
}

// RenameClip moves a record (and its tag associations) to a new path.
func (db *DB) RenameClip(oldPath, newPath string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`UPDATE clips SET path = ?, name = ?, updated_at = ? WHERE path = ?`,
		newPath, baseName(newPath), time.Now(), oldPath)
	if err != nil {
		return fmt.Errorf("metastore: rename clip: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	_, _ = tx.Exec(`UPDATE clip_tags SET path = ? WHERE path = ?`, newPath, oldPath)

	ftsDelete(tx, oldPath)
	var desc string
	var tagsCSV sql.NullString
	_ = tx.QueryRow(`SELECT description FROM clips WHERE path = ?`, newPath).Scan(&desc)
	_ = tx.QueryRow(`SELECT group_concat(tag, ' ') FROM clip_tags WHERE path = ?`, newPath).Scan(&tagsCSV)
	if err := ftsUpsert(tx, newPath, baseName(newPath), desc, strings.Fields(tagsCSV.String)); err != nil {
		return err
	}
	return tx.Commit()
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// AllStats returns the cached file identity for every record, keyed by path.
func (db *DB) AllStats() (map[string]FileStat, error) {
	rows, err := db.conn.Query(`SELECT path, size_bytes, mod_time FROM clips`)
	if err != nil {
		return nil, fmt.Errorf("metastore: all stats: %w", err)
	}
	defer rows.Close()
	out := make(map[string]FileStat)
	for rows.Next() {
		var p string
		var s FileStat
		var mod sql.NullTime
		if err := rows.Scan(&p, &s.SizeBytes, &mod); err != nil {
			return nil, err
		}
		if mod.Valid {
			s.ModTime = mod.Time
		}
		out[p] = s
	}
	return out, rows.Err()
}

// AllTags returns every known tag name.
func (db *DB) AllTags() ([]string, error) {
	rows, err := db.conn.Query(`SELECT tag FROM tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("metastore: all tags: %w", err)
	}
	defer rows.Close()
	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
