// ABOUTME: SQLite implementation of the ConversationStore interface using modernc.org/sqlite
// ABOUTME: Provides conversation/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the ConversationStore interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id                TEXT PRIMARY KEY,
			participant       TEXT NOT NULL,
			thread_id         INTEGER NOT NULL DEFAULT -1,
			deleted_status    INTEGER NOT NULL DEFAULT 0,
			deleted_timestamp INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL,

			CHECK (deleted_status IN (0, 1)),
			CHECK ((deleted_status = 1) = (deleted_timestamp > 0))
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_deleted
			ON conversations(deleted_status, deleted_timestamp);

		-- No foreign key on conversation_id: a purge with a partial cutoff
		-- removes the conversation row while messages past the cutoff stay
		-- behind until a later delete-all purge takes them.
		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender          TEXT NOT NULL,
			body            TEXT NOT NULL,
			telephony_uri   TEXT,
			received_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages(conversation_id);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_received
			ON messages(conversation_id, received_at);

		CREATE TABLE IF NOT EXISTS prefs (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// CreateConversation creates a new conversation in the database.
// If a conversation with the same id already exists, it returns
// ErrDuplicateConversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	deletedStatus := 0
	if conv.DeletedStatus {
		deletedStatus = 1
	}

	query := `
		INSERT INTO conversations (id, participant, thread_id, deleted_status, deleted_timestamp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ID,
		conv.Participant,
		conv.ThreadID,
		deletedStatus,
		conv.DeletedTimestamp,
		conv.CreatedAt.UTC().Format(time.RFC3339),
		conv.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		// Check for UNIQUE constraint violation
		if isConstraintViolation(err) {
			return ErrDuplicateConversation
		}
		return fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", conv.ID, "thread_id", conv.ThreadID)
	return nil
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed")
}

// GetConversation retrieves a conversation by ID.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, participant, thread_id, deleted_status, deleted_timestamp, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`

	var conv Conversation
	var deletedStatus int
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&conv.ID,
		&conv.Participant,
		&conv.ThreadID,
		&deletedStatus,
		&conv.DeletedTimestamp,
		&createdAtStr,
		&updatedAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	conv.DeletedStatus = deletedStatus == 1

	conv.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	conv.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &conv, nil
}

// IsDeleted returns the current soft-delete flag for a conversation.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) IsDeleted(ctx context.Context, id string) (bool, error) {
	var deletedStatus int
	err := s.db.QueryRowContext(ctx,
		`SELECT deleted_status FROM conversations WHERE id = ?`, id,
	).Scan(&deletedStatus)

	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("querying deleted status: %w", err)
	}

	return deletedStatus == 1, nil
}

// GetThreadID returns the telephony thread id for a conversation, or a
// negative sentinel when the conversation has no valid telephony thread.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) GetThreadID(ctx context.Context, id string) (int64, error) {
	var threadID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id FROM conversations WHERE id = ?`, id,
	).Scan(&threadID)

	if err == sql.ErrNoRows {
		return NoThreadID, ErrNotFound
	}
	if err != nil {
		return NoThreadID, fmt.Errorf("querying thread id: %w", err)
	}

	if !threadID.Valid {
		return NoThreadID, nil
	}
	return threadID.Int64, nil
}

// SetDeletedStatus updates the soft-delete flag and timestamp together in
// a single transaction. Setting deleted on an already-deleted conversation
// (or clearing an already-clear one) is a safe no-op that preserves the
// existing timestamp. Returns ErrNotFound if the conversation doesn't
// exist.
func (s *SQLiteStore) SetDeletedStatus(ctx context.Context, id string, deleted bool, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var result sql.Result
	if deleted {
		result, err = tx.ExecContext(ctx, `
			UPDATE conversations
			SET deleted_status = 1, deleted_timestamp = ?, updated_at = ?
			WHERE id = ? AND deleted_status = 0
		`, now.UnixMilli(), now.UTC().Format(time.RFC3339), id)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE conversations
			SET deleted_status = 0, deleted_timestamp = 0, updated_at = ?
			WHERE id = ? AND deleted_status = 1
		`, now.UTC().Format(time.RFC3339), id)
	}
	if err != nil {
		return fmt.Errorf("updating deleted status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the conversation doesn't exist, or it's already in the
		// requested state (idempotent no-op).
		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM conversations WHERE id = ?`, id,
		).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking conversation existence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("updated deleted status", "id", id, "deleted", deleted)
	return nil
}

// ListSoftDeleted returns all soft-deleted conversations with their
// deletion timestamps as a single point-in-time read.
func (s *SQLiteStore) ListSoftDeleted(ctx context.Context) ([]SoftDeletedConversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deleted_timestamp
		FROM conversations
		WHERE deleted_status = 1 AND deleted_timestamp > 0
		ORDER BY deleted_timestamp ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying soft-deleted conversations: %w", err)
	}
	defer rows.Close()

	var deleted []SoftDeletedConversation
	for rows.Next() {
		var sd SoftDeletedConversation
		if err := rows.Scan(&sd.ID, &sd.DeletedTimestamp); err != nil {
			return nil, fmt.Errorf("scanning soft-deleted row: %w", err)
		}
		deleted = append(deleted, sd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating soft-deleted rows: %w", err)
	}

	return deleted, nil
}

// PermanentlyDelete removes a conversation row and all of its messages
// whose received_at is at or before cutoff. The row delete and message
// delete run in one transaction. Returns whether the conversation row was
// removed; deleting a non-existent conversation returns false without
// error.
func (s *SQLiteStore) PermanentlyDelete(ctx context.Context, id string, cutoff int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM messages WHERE conversation_id = ? AND received_at <= ?
	`, id, cutoff); err != nil {
		return false, fmt.Errorf("deleting messages: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting conversation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}

	if rowsAffected > 0 {
		s.logger.Debug("permanently deleted conversation", "id", id, "cutoff", cutoff)
	}
	return rowsAffected > 0, nil
}

// MessageURIs returns the telephony URIs of all messages in a
// conversation. Messages without a telephony counterpart are skipped.
func (s *SQLiteStore) MessageURIs(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT telephony_uri
		FROM messages
		WHERE conversation_id = ? AND telephony_uri IS NOT NULL AND telephony_uri != ''
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying message uris: %w", err)
	}
	defer rows.Close()

	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("scanning message uri: %w", err)
		}
		uris = append(uris, uri)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message uri rows: %w", err)
	}

	return uris, nil
}

// SaveMessage saves a message to the database
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender, body, telephony_uri, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Sender,
		msg.Body,
		nullString(msg.TelephonyURI),
		msg.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("saved message", "id", msg.ID, "conversation_id", msg.ConversationID)
	return nil
}

// nullString returns nil for empty strings, otherwise the string itself
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetConversationMessages retrieves messages for a conversation in
// chronological order. If limit is 0 or negative, all messages are
// returned.
func (s *SQLiteStore) GetConversationMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, sender, body, telephony_uri, received_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY received_at ASC
	`
	args := []any{conversationID}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var uri sql.NullString

		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Body, &uri, &msg.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		if uri.Valid {
			msg.TelephonyURI = uri.String
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// GetIntPref reads an integer preference. Missing or malformed stored
// values degrade to def; this method never fails. A corrupt preference
// must not crash the sweep or disable the feature.
func (s *SQLiteStore) GetIntPref(ctx context.Context, key string, def int) int {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM prefs WHERE key = ?`, key,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return def
	}
	if err != nil {
		s.logger.Warn("reading preference failed, using default", "key", key, "error", err)
		return def
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn("malformed preference value, using default", "key", key, "value", raw)
		return def
	}

	return value
}

// SetIntPref stores an integer preference, replacing any existing value.
func (s *SQLiteStore) SetIntPref(ctx context.Context, key string, value int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO prefs (key, value) VALUES (?, ?)
	`, key, strconv.Itoa(value))
	if err != nil {
		return fmt.Errorf("saving preference: %w", err)
	}

	s.logger.Debug("saved preference", "key", key, "value", value)
	return nil
}

// Ensure SQLiteStore implements ConversationStore interface
var _ ConversationStore = (*SQLiteStore)(nil)
