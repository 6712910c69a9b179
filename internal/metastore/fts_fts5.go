//go:build sqlite_fts5

package metastore

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS clips_fts USING fts5(
			path UNINDEXED,
			name,
			description,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, name, description string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM clips_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO clips_fts (path, name, description, tags) VALUES (?, ?, ?, ?)`,
		path, name, description, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("metastore: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM clips_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over clip names,
// descriptions, and tags.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path, name, description
		FROM clips_fts
		WHERE clips_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("metastore: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Name, &r.Description); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
