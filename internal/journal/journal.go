// Package journal keeps an append-only SQLite log of ledger mutations.
// It is an audit trail only; the ledger is never rebuilt from it.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// Entry is one recorded ledger mutation.
type Entry struct {
	ID         int64     `json:"id"`
	Op         string    `json:"op"`
	RecordIDs  []string  `json:"record_ids"`
	Affected   int       `json:"affected"`
	LedgerSize int       `json:"ledger_size"`
	CreatedAt  time.Time `json:"created_at"`
}

type SQLiteJournal struct {
	db *sql.DB
}

func Open(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Append stores e and returns its row id. A zero CreatedAt is set to now.
func (j *SQLiteJournal) Append(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	ids := e.RecordIDs
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return 0, fmt.Errorf("encode record ids: %w", err)
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO ledger_activity (op, record_ids, affected, ledger_size, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Op, string(encoded), e.Affected, e.LedgerSize, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.DebugContext(ctx, "Ledger activity journaled", "id", id, "op", e.Op, "affected", e.Affected)
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, op, record_ids, affected, ledger_size, created_at FROM ledger_activity ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			ids       string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Op, &ids, &e.Affected, &e.LedgerSize, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &e.RecordIDs); err != nil {
			return nil, fmt.Errorf("decode record ids for entry %d: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return entries, nil
}
