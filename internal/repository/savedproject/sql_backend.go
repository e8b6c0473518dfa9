package savedproject

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLBackend stores each record as a JSON document row. The same code
// serves SQLite and Postgres; only placeholders and the timestamp column
// type differ.
type SQLBackend struct {
	db       *sql.DB
	postgres bool
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saved_projects (
	id       TEXT PRIMARY KEY,
	saved_at TEXT NOT NULL,
	favorite INTEGER NOT NULL DEFAULT 0,
	doc      TEXT NOT NULL
);`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS saved_projects (
	id       TEXT PRIMARY KEY,
	saved_at TIMESTAMPTZ NOT NULL,
	favorite BOOLEAN NOT NULL DEFAULT FALSE,
	doc      JSONB NOT NULL
);`

// NewSQLiteBackend opens (or creates) a local SQLite store.
func NewSQLiteBackend(path string) (*SQLBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("savedproject: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("savedproject: open sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("savedproject: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("savedproject: schema: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

// NewPostgresBackend connects with the pgx stdlib driver.
func NewPostgresBackend(dsn string) (*SQLBackend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("savedproject: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("savedproject: ping postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("savedproject: schema: %w", err)
	}
	return &SQLBackend{db: db, postgres: true}, nil
}

func (b *SQLBackend) Load(ctx context.Context) ([]Record, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT doc FROM saved_projects ORDER BY saved_at")
	if err != nil {
		return nil, fmt.Errorf("savedproject: select: %w", err)
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("savedproject: scan: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			// Corrupt rows are dropped on the next Persist.
			log.Printf("savedproject: skipping corrupt row: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Persist rewrites the whole table inside one transaction, mirroring the
// file backend's single-blob semantics.
func (b *SQLBackend) Persist(ctx context.Context, records []Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("savedproject: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM saved_projects"); err != nil {
		return fmt.Errorf("savedproject: clear: %w", err)
	}
	insert := "INSERT INTO saved_projects (id, saved_at, favorite, doc) VALUES (?, ?, ?, ?)"
	if b.postgres {
		insert = "INSERT INTO saved_projects (id, saved_at, favorite, doc) VALUES ($1, $2, $3, $4)"
	}
	for _, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("savedproject: encode %s: %w", rec.ID, err)
		}
		var savedAt any = rec.SavedAt
		if !b.postgres {
			savedAt = rec.SavedAt.UTC().Format(time.RFC3339Nano)
		}
		if _, err := tx.ExecContext(ctx, insert, rec.ID, savedAt, rec.Favorite, string(doc)); err != nil {
			return fmt.Errorf("savedproject: insert %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

func (b *SQLBackend) Close() error { return b.db.Close() }
