package querylog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/ragcache/core"
	_ "modernc.org/sqlite"
)

// SQLiteSink stores entries in a SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

var (
	_ Sink   = (*SQLiteSink)(nil)
	_ Reader = (*SQLiteSink)(nil)
)

// NewSQLiteSink opens the database at path and creates the schema.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open query log db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate query log db: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS query_log (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		user_query      TEXT NOT NULL,
		subquery        TEXT NOT NULL,
		route_action    TEXT NOT NULL,
		route_reason    TEXT NOT NULL,
		cache_hit       INTEGER NOT NULL,
		latency_seconds REAL NOT NULL,
		answer_preview  TEXT NOT NULL,
		error           TEXT NOT NULL DEFAULT '',
		timestamp       TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_query_log_action ON query_log(route_action)`)
	return err
}

// Append inserts entry. A zero Timestamp is set to now.
func (s *SQLiteSink) Append(ctx context.Context, entry Entry) error {
	stamp(&entry)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_log
		(user_query, subquery, route_action, route_reason, cache_hit,
		 latency_seconds, answer_preview, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserQuery, entry.SubQuery, string(entry.Action), entry.Reason, entry.CacheHit,
		entry.LatencySeconds, entry.AnswerPreview, entry.Error,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns up to n entries, newest first.
func (s *SQLiteSink) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_query, subquery, route_action, route_reason, cache_hit,
		 latency_seconds, answer_preview, error, timestamp
		 FROM query_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query log recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action, ts string
		if err := rows.Scan(&e.UserQuery, &e.SubQuery, &action, &e.Reason, &e.CacheHit,
			&e.LatencySeconds, &e.AnswerPreview, &e.Error, &ts); err != nil {
			return nil, fmt.Errorf("scan query log row: %w", err)
		}
		e.Action = core.Action(action)
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse query log timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates the table in SQL.
func (s *SQLiteSink) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByAction: make(map[string]int)}

	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*),
		 coalesce(sum(cache_hit), 0),
		 coalesce(sum(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
		 avg(CASE WHEN error = '' THEN latency_seconds END)
		 FROM query_log`).Scan(&stats.Total, &stats.CacheHits, &stats.Errors, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("query log stats: %w", err)
	}
	stats.AvgLatencySeconds = avg.Float64

	rows, err := s.db.QueryContext(ctx,
		`SELECT route_action, count(*) FROM query_log GROUP BY route_action`)
	if err != nil {
		return Stats{}, fmt.Errorf("query log stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return Stats{}, fmt.Errorf("scan query log stat: %w", err)
		}
		stats.ByAction[action] = count
	}
	return stats, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
