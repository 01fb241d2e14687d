package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/rojanmagar2001/readsync/internal/domain"
	"github.com/rojanmagar2001/readsync/internal/ports"
)

// Timestamps are stored as RFC3339 text, NULL when the source never
// reported one.
const timeLayout = time.RFC3339

const schema = `
CREATE TABLE IF NOT EXISTS records (
	source     TEXT NOT NULL,
	id         TEXT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT,
	created_at TEXT,
	PRIMARY KEY (source, id)
);

CREATE TABLE IF NOT EXISTS api_keys (
	source TEXT PRIMARY KEY,
	token  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	pages       INTEGER NOT NULL DEFAULT 0,
	fetched     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'running',
	error       TEXT
);
`

// SQLite is the file-backed store shared by every source: one logical
// keyed table per source inside records, the per-source credential
// table, and the sync-run journal.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if absent) the database file and bootstraps the
// schema. The parent directory is created when missing.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}

	// SQLite serializes writers; a single connection avoids busy errors
	// when several source loops commit concurrently.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "bootstrap schema")
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Records(ctx context.Context, source string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, created_at FROM records WHERE source = ? ORDER BY id`,
		source,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query records")
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			rec       domain.Record
			title     sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &title, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		if title.Valid {
			rec.Title = &title.String
		}
		if createdAt.Valid {
			t, err := time.Parse(timeLayout, createdAt.String)
			if err != nil {
				return nil, errors.Wrapf(err, "parse created_at for record %q", rec.ID)
			}
			rec.CreatedAt = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate records")
	}
	return out, nil
}

// ApplyPage commits one reconciled page atomically: all updates and all
// inserts succeed together or the page is considered not applied.
func (s *SQLite) ApplyPage(ctx context.Context, source string, updates, inserts []domain.Record) error {
	if len(updates) == 0 && len(inserts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin reconcile transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range updates {
		_, err := tx.ExecContext(ctx,
			`UPDATE records SET url = ?, title = ?, created_at = ? WHERE source = ? AND id = ?`,
			rec.URL, nullString(rec.Title), nullTime(rec.CreatedAt), source, rec.ID,
		)
		if err != nil {
			return errors.Wrapf(err, "update record %q", rec.ID)
		}
	}

	for _, rec := range inserts {
		// REPLACE keeps last-write-wins semantics when one page repeats
		// an id the server should not have repeated.
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO records (source, id, url, title, created_at) VALUES (?, ?, ?, ?, ?)`,
			source, rec.ID, rec.URL, nullString(rec.Title), nullTime(rec.CreatedAt),
		)
		if err != nil {
			return errors.Wrapf(err, "insert record %q", rec.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit reconcile transaction")
	}
	return nil
}

func (s *SQLite) CountRecords(ctx context.Context, source string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE source = ?`, source,
	).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count records")
	}
	return n, nil
}

func (s *SQLite) APIKey(ctx context.Context, source string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM api_keys WHERE source = ?`, source,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrapf(ports.ErrNoAPIKey, "%s", source)
	}
	if err != nil {
		return "", errors.Wrap(err, "query api key")
	}
	if token == "" {
		return "", errors.Wrapf(ports.ErrNoAPIKey, "%s", source)
	}
	return token, nil
}

func (s *SQLite) SetAPIKey(ctx context.Context, source, key string) error {
	if key == "" {
		return errors.New("api key must not be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (source, token) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET token = excluded.token`,
		source, key,
	)
	return errors.Wrap(err, "store api key")
}

func (s *SQLite) BeginRun(ctx context.Context, source string) (string, error) {
	runID := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, source, started_at) VALUES (?, ?, ?)`,
		runID, source, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", errors.Wrap(err, "begin sync run")
	}
	return runID, nil
}

func (s *SQLite) FinishRun(ctx context.Context, runID string, pages, fetched int, runErr error) error {
	status := "ok"
	var errText sql.NullString
	if runErr != nil {
		status = "failed"
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET finished_at = ?, pages = ?, fetched = ?, status = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), pages, fetched, status, errText, runID,
	)
	return errors.Wrap(err, "finish sync run")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}
