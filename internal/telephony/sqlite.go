// ABOUTME: SQLite-backed telephony provider implementing ThreadStore
// ABOUTME: Stands in for the platform SMS/MMS provider database

package telephony

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ThreadStore against a provider-owned SQLite
// database. Messages are keyed by URI and grouped into threads by a
// numeric thread id, mirroring the platform telephony schema.
type SQLiteProvider struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteProvider opens (or creates) the provider database at path.
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	logger := slog.Default().With("component", "telephony")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	p := &SQLiteProvider{
		db:     db,
		logger: logger,
	}

	if err := p.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("telephony provider initialized", "path", path)
	return p, nil
}

func (p *SQLiteProvider) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			thread_id INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS messages (
			uri       TEXT PRIMARY KEY,
			thread_id INTEGER NOT NULL,
			body      TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_thread
			ON messages(thread_id, timestamp);
	`

	_, err := p.db.Exec(schema)
	return err
}

// Close closes the provider database.
func (p *SQLiteProvider) Close() error {
	p.logger.Info("closing telephony provider")
	return p.db.Close()
}

// DeleteThread deletes all messages in the thread with timestamp at or
// before cutoff. The thread row itself is removed once it has no messages
// left. The provider rejects negative thread ids; deleting a thread id
// with no row in the threads table still deletes any messages carrying
// that id.
func (p *SQLiteProvider) DeleteThread(ctx context.Context, threadID int64, cutoff int64) (int64, error) {
	if threadID < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidThreadID, threadID)
	}

	result, err := p.db.ExecContext(ctx, `
		DELETE FROM messages WHERE thread_id = ? AND timestamp <= ?
	`, threadID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting thread messages: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	// Drop the thread row once emptied
	var remaining int64
	err = p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE thread_id = ?`, threadID,
	).Scan(&remaining)
	if err != nil {
		return count, fmt.Errorf("counting remaining messages: %w", err)
	}
	if remaining == 0 {
		if _, err := p.db.ExecContext(ctx,
			`DELETE FROM threads WHERE thread_id = ?`, threadID); err != nil {
			return count, fmt.Errorf("deleting thread row: %w", err)
		}
	}

	p.logger.Debug("deleted thread messages", "thread_id", threadID, "cutoff", cutoff, "count", count)
	return count, nil
}

// DeleteMessage deletes a single message by URI.
func (p *SQLiteProvider) DeleteMessage(ctx context.Context, uri string) (int64, error) {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM messages WHERE uri = ?`, uri)
	if err != nil {
		return 0, fmt.Errorf("deleting message: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	p.logger.Debug("deleted message", "uri", uri, "count", count)
	return count, nil
}

// SaveMessage inserts a provider message, creating the thread row if
// needed. Used by ingest and by tests to seed provider state.
func (p *SQLiteProvider) SaveMessage(ctx context.Context, uri string, threadID int64, body string, timestamp int64) error {
	if _, err := p.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO threads (thread_id) VALUES (?)`, threadID); err != nil {
		return fmt.Errorf("inserting thread: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, `
		INSERT INTO messages (uri, thread_id, body, timestamp) VALUES (?, ?, ?, ?)
	`, uri, threadID, body, timestamp); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return nil
}

// CountThreadMessages returns the number of messages in a thread.
func (p *SQLiteProvider) CountThreadMessages(ctx context.Context, threadID int64) (int64, error) {
	var count int64
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE thread_id = ?`, threadID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting thread messages: %w", err)
	}
	return count, nil
}

// Ensure SQLiteProvider implements ThreadStore interface
var _ ThreadStore = (*SQLiteProvider)(nil)
