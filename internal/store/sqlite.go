package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-search/internal/weather"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so lexical order in SQLite equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrClosed is returned when the store is used after Close.
	ErrClosed = errors.New("store is closed")
)

// SQLiteStore is the file-backed search history store.
// All access goes through one pooled connection, so writes are serialised.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Safe to call repeatedly on the same file.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// RecordSearch appends one row to the search history.
func (s *SQLiteStore) RecordSearch(ctx context.Context, userID, city string, at time.Time) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO search_history (user_id, city, search_time) VALUES (?, ?, ?)`,
		userID, city, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

// EnsureCityKnown registers city; registering it again is a no-op.
func (s *SQLiteStore) EnsureCityKnown(ctx context.Context, city string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO cities (name) VALUES (?)`, city); err != nil {
		return fmt.Errorf("insert city: %w", err)
	}
	return nil
}

// LastCityFor returns the most recently searched city for userID.
func (s *SQLiteStore) LastCityFor(ctx context.Context, userID string) (string, bool, error) {
	db, err := s.conn()
	if err != nil {
		return "", false, err
	}

	var city string
	err = db.QueryRowContext(ctx, `
		SELECT city
		FROM search_history
		WHERE user_id = ?
		ORDER BY search_time DESC, id DESC
		LIMIT 1
	`, userID).Scan(&city)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query last city: %w", err)
	}
	return city, true, nil
}

// SearchStats returns every searched city with its lookup count, most
// searched first and ties by name.
func (s *SQLiteStore) SearchStats(ctx context.Context) ([]weather.CityStat, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT city, COUNT(*) AS count
		FROM search_history
		GROUP BY city
		ORDER BY count DESC, city ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make([]weather.CityStat, 0)
	for rows.Next() {
		var st weather.CityStat
		if err := rows.Scan(&st.City, &st.Count); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// History returns the search log of userID, newest first.
func (s *SQLiteStore) History(ctx context.Context, userID string, limit int) ([]weather.SearchEntry, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, city, search_time
		FROM search_history
		WHERE user_id = ?
		ORDER BY search_time DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]weather.SearchEntry, 0)
	for rows.Next() {
		var e weather.SearchEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.UserID, &e.City, &ts); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.SearchTime = t.UTC()
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// KnownCities returns the deduplicated city registry in name order.
func (s *SQLiteStore) KnownCities(ctx context.Context) ([]string, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Maintain checkpoints the WAL and refreshes planner statistics.
func (s *SQLiteStore) Maintain(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	return nil
}
