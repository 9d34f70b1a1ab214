// Package store persists generated problems and session history in SQLite.
// Problems are cached by normalized subject:topic key with a bounded entry
// count; when the cap is exceeded the oldest entries are evicted first.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config controls the store location and cache bounds.
type Config struct {
	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// MaxProblems bounds the cached problem count. Zero means unbounded.
	MaxProblems int `yaml:"max_problems"`
}

// DefaultConfig returns the store defaults.
func DefaultConfig() Config {
	return Config{
		Path:        "tutor.db",
		MaxProblems: 50,
	}
}

// HistoryEntry records one completed or abandoned study session.
type HistoryEntry struct {
	ID        int64
	Title     string
	Subject   string
	Payload   []byte
	Completed bool
	CreatedAt time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db    *sql.DB
	cfg   Config
	log   *slog.Logger
	clock func() time.Time
}

// Open creates or opens the database and applies the schema.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS problems (
    cache_key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    cached_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_problems_cached ON problems(cached_at);
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    subject TEXT,
    payload BLOB,
    completed INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CacheKey builds the normalized cache key for a subject and topic.
func CacheKey(subject, topic string) string {
	return subject + ":" + strings.ToLower(strings.TrimSpace(topic))
}

// GetProblem returns the cached payload for key, if present.
func (s *Store) GetProblem(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM problems WHERE cache_key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// PutProblem upserts a cached problem and evicts the oldest entries beyond
// the configured cap.
func (s *Store) PutProblem(ctx context.Context, key string, payload []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO problems(cache_key, payload, cached_at) VALUES(?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET payload=excluded.payload, cached_at=excluded.cached_at`,
		key, payload, s.clock().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	if s.cfg.MaxProblems > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM problems WHERE cache_key IN (
				SELECT cache_key FROM problems ORDER BY cached_at DESC LIMIT -1 OFFSET ?
			)`, s.cfg.MaxProblems); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteProblem drops one cached problem.
func (s *Store) DeleteProblem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM problems WHERE cache_key = ?`, key)
	return err
}

// ProblemKeys lists cached keys, oldest first.
func (s *Store) ProblemKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cache_key FROM problems ORDER BY cached_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// AppendHistory records a study session.
func (s *Store) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history(title, subject, payload, completed, created_at) VALUES(?, ?, ?, ?, ?)`,
		entry.Title, entry.Subject, entry.Payload, entry.Completed, entry.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// MarkCompleted flags a history entry as finished.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE history SET completed = 1 WHERE id = ?`, id)
	return err
}

// ListHistory returns recent sessions, newest first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, subject, payload, completed, created_at
		 FROM history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var completed int
		var created string
		if err := rows.Scan(&e.ID, &e.Title, &e.Subject, &e.Payload, &completed, &created); err != nil {
			return nil, err
		}
		e.Completed = completed != 0
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
