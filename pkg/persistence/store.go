// Package persistence provides the SQLite-backed processed-event ledger.
// The ledger suppresses redelivery of already-handled events across restarts;
// it stores event IDs and outcomes only, never review content.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"replybot/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_events (
	event_id     TEXT PRIMARY KEY,
	message_type TEXT NOT NULL,
	order_id     TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL,
	processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_processed_events_time ON processed_events(processed_at);
`

// Store is the ledger handle. One writer; the sequential event loop is the
// only mutator.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("persistence")
	logger.Info("Ledger initialized: %s", path)

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection. Should be called during shutdown.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// IsProcessed reports whether the event ID has already been handled.
func (s *Store) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_events WHERE event_id = ?`, eventID).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to query ledger: %w", err)
	default:
		return true, nil
	}
}

// MarkProcessed records the outcome for an event ID. Re-marking the same
// event updates the outcome rather than failing.
func (s *Store) MarkProcessed(ctx context.Context, eventID string, messageType, orderID, outcome string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_events (event_id, message_type, order_id, outcome)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET outcome = excluded.outcome`,
		eventID, messageType, orderID, outcome)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// PruneBefore deletes ledger entries older than cutoff and returns the count.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	// processed_at defaults to CURRENT_TIMESTAMP, which SQLite stores as
	// "YYYY-MM-DD HH:MM:SS" UTC text; compare in the same format.
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM processed_events WHERE processed_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	if removed > 0 {
		s.logger.Debug("Pruned %d ledger entries", removed)
	}
	return removed, nil
}
