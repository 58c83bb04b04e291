package lookup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/crosscheck/internal/model"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS authority_agency (
	authority TEXT NOT NULL,
	category  TEXT NOT NULL DEFAULT '',
	agency    TEXT NOT NULL,
	PRIMARY KEY (authority, category, agency)
);`

// SQLiteStore persists the reference table in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create lookup dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create lookup schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Import inserts entries in one transaction, ignoring ones already stored.
// It returns the number of rows added.
func (s *SQLiteStore) Import(ctx context.Context, entries []model.AuthorityAgency) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO authority_agency(authority, category, agency) VALUES(?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	added := 0
	for _, e := range NewTable(entries).List("") {
		res, err := stmt.ExecContext(ctx, e.Authority, e.Category, e.Agency)
		if err != nil {
			return 0, fmt.Errorf("insert %s/%s: %w", e.Authority, e.Agency, err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return added, nil
}

// Load returns every stored entry
func (s *SQLiteStore) Load(ctx context.Context) ([]model.AuthorityAgency, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT authority, category, agency FROM authority_agency ORDER BY category, authority, agency")
	if err != nil {
		return nil, fmt.Errorf("query lookup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.AuthorityAgency
	for rows.Next() {
		var e model.AuthorityAgency
		if err := rows.Scan(&e.Authority, &e.Category, &e.Agency); err != nil {
			return nil, fmt.Errorf("scan lookup row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup rows: %w", err)
	}
	return entries, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
