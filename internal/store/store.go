// Package store persists assessment reports and in-progress drafts in a
// local SQLite database.
//
// Reports are stored as their JSON record with a few indexed columns for
// listing. Drafts are session snapshots keyed by an opaque id, so front ends
// that hold no state between calls can resume a questionnaire.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/report"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is replaced in tests.
var timeNow = time.Now

// ErrDraftNotFound is returned for unknown draft ids.
var ErrDraftNotFound = errors.New("draft not found")

// Config holds the store location.
type Config struct {
	DataDir string
}

// DefaultConfig stores data under ~/.lifetest.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".lifetest")}
}

// Store is the SQLite-backed report repository and draft store.
type Store struct {
	db  *sql.DB
	cfg Config
}

var _ report.Repository = (*Store)(nil)

// New opens (creating if needed) the database under cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "lifetest.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id         TEXT PRIMARY KEY,
			created_at TEXT    NOT NULL,
			lang       TEXT    NOT NULL,
			level      TEXT    NOT NULL,
			total      INTEGER NOT NULL,
			body       TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
		CREATE INDEX IF NOT EXISTS idx_reports_level   ON reports(level);

		CREATE TABLE IF NOT EXISTS drafts (
			id         TEXT PRIMARY KEY,
			updated_at TEXT NOT NULL,
			body       TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Reports ─────────────────────────────────────────────────────────────────

// Save stores r, assigning a new id when r.ID is empty. Saving an existing
// id replaces it.
func (s *Store) Save(ctx context.Context, r *report.Record) (string, error) {
	if r.ID == "" {
		r.ID = report.NewID()
	}
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("store: encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, lang, level, total, body)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			lang = excluded.lang, level = excluded.level,
			total = excluded.total, body = excluded.body`,
		r.ID, r.Timestamp, string(r.Lang), string(r.Level), r.Scores.Total, string(body),
	)
	if err != nil {
		return "", fmt.Errorf("%w: save report: %v", report.ErrUnavailable, err)
	}
	return r.ID, nil
}

// Get loads one report.
func (s *Store) Get(ctx context.Context, id string) (*report.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %q: %w", id, report.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get report: %v", report.ErrUnavailable, err)
	}
	var r report.Record
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("store: decode report %q: %w", id, err)
	}
	return &r, nil
}

// List returns every report, oldest first.
func (s *Store) List(ctx context.Context) ([]report.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM reports ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list reports: %v", report.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []report.Record
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: scan report: %v", report.ErrUnavailable, err)
		}
		var r report.Record
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("store: decode report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list reports: %v", report.ErrUnavailable, err)
	}
	return out, nil
}

// CountByLevel returns how many stored reports fall in each tier.
func (s *Store) CountByLevel(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, COUNT(*) FROM reports GROUP BY level`)
	if err != nil {
		return nil, fmt.Errorf("%w: count reports: %v", report.ErrUnavailable, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, fmt.Errorf("%w: scan count: %v", report.ErrUnavailable, err)
		}
		out[level] = n
	}
	return out, rows.Err()
}

// ─── Drafts ──────────────────────────────────────────────────────────────────

// CreateDraft stores a snapshot under a new id.
func (s *Store) CreateDraft(ctx context.Context, snap assessment.Snapshot) (string, error) {
	id := report.NewID()
	if err := s.SaveDraft(ctx, id, snap); err != nil {
		return "", err
	}
	return id, nil
}

// SaveDraft inserts or replaces the snapshot stored under id.
func (s *Store) SaveDraft(ctx context.Context, id string, snap assessment.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (id, updated_at, body) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, body = excluded.body`,
		id, timeNow().UTC().Format(time.RFC3339), string(body),
	)
	if err != nil {
		return fmt.Errorf("%w: save draft: %v", report.ErrUnavailable, err)
	}
	return nil
}

// LoadDraft returns the snapshot stored under id.
func (s *Store) LoadDraft(ctx context.Context, id string) (assessment.Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM drafts WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return assessment.Snapshot{}, fmt.Errorf("draft %q: %w", id, ErrDraftNotFound)
	}
	if err != nil {
		return assessment.Snapshot{}, fmt.Errorf("%w: load draft: %v", report.ErrUnavailable, err)
	}
	var snap assessment.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return assessment.Snapshot{}, fmt.Errorf("store: decode draft %q: %w", id, err)
	}
	return snap, nil
}

// DeleteDraft removes a draft. Deleting an unknown id is not an error.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete draft: %v", report.ErrUnavailable, err)
	}
	return nil
}

// PruneDrafts deletes drafts not touched since before. It returns how many
// were removed.
func (s *Store) PruneDrafts(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE updated_at < ?`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("%w: prune drafts: %v", report.ErrUnavailable, err)
	}
	return res.RowsAffected()
}
