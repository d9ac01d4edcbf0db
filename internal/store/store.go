package store

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"prepmate/internal/errors"
	"prepmate/internal/types"
)

// DefaultHistoryLimit caps how many completed sessions are kept per user
const DefaultHistoryLimit = 50

// User is an account row without its credential hash
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists users, session history, and the per-user current session
// in a single sqlite database.
type Store struct {
	db           *sql.DB
	historyLimit int
}

// Open opens (and creates if necessary) the sqlite database at path
func Open(path string, historyLimit int) (*Store, error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed,
				"Failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed,
			"Failed to open sqlite database", err)
	}

	s := &Store{db: db, historyLimit: historyLimit}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS session_history (
  session_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  completed_at INTEGER NOT NULL,
  data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_user ON session_history(user_id, completed_at DESC);
CREATE TABLE IF NOT EXISTS current_sessions (
  user_id TEXT PRIMARY KEY,
  data TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed,
			"Failed to create database schema", err)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// hashPassword produces the stored credential digest
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CreateUser registers a new account. Email comparison is case-insensitive.
func (s *Store) CreateUser(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Name and email are required", nil)
	}
	if len(password) < 6 {
		return nil, errors.NewValidationError(errors.ErrCodeWeakPassword,
			"Password must be at least 6 characters", nil)
	}

	user := &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, hashPassword(password), user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, errors.NewValidationError(errors.ErrCodeDuplicateEmail,
				"An account with this email already exists", err)
		}
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to create user", err)
	}

	return user, nil
}

// Authenticate verifies email and password, returning the matching user
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	var createdAt, storedHash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Name, &user.Email, &storedHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid email or password", nil)
	}
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to look up user", err)
	}

	candidate := hashPassword(password)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) != 1 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid email or password", nil)
	}

	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &user, nil
}

// GetUser fetches an account by id
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("User %s not found", id), nil)
	}
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to look up user", err)
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &user, nil
}

// SaveToHistory records a completed session. Saving the same session id
// again replaces its entry instead of duplicating it, and the per-user
// history is trimmed to the newest historyLimit entries.
func (s *Store) SaveToHistory(ctx context.Context, session *types.InterviewSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to encode session", err)
	}

	completedAt := time.Now().UTC()
	if session.EndTime != nil {
		completedAt = session.EndTime.UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO session_history (session_id, user_id, completed_at, data)
VALUES (?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
  completed_at=excluded.completed_at,
  data=excluded.data`,
		session.ID, session.UserID, completedAt.UnixMilli(), string(data))
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to save session", err)
	}

	// Trim to the newest N entries for this user
	_, err = tx.ExecContext(ctx, `
DELETE FROM session_history
WHERE user_id = ? AND session_id NOT IN (
  SELECT session_id FROM session_history
  WHERE user_id = ?
  ORDER BY completed_at DESC
  LIMIT ?
)`, session.UserID, session.UserID, s.historyLimit)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to trim session history", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to commit session save", err)
	}
	return nil
}

// GetHistory returns a user's completed sessions, newest first. limit <= 0
// means the store's configured cap.
func (s *Store) GetHistory(ctx context.Context, userID string, limit int) ([]*types.InterviewSession, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT data FROM session_history
WHERE user_id = ?
ORDER BY completed_at DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to read history", err)
	}
	defer rows.Close()

	sessions := make([]*types.InterviewSession, 0, limit)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to scan history row", err)
		}
		var session types.InterviewSession
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to decode session", err)
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to iterate history", err)
	}
	return sessions, nil
}

// SaveCurrentSession persists the in-progress session for a user
func (s *Store) SaveCurrentSession(ctx context.Context, session *types.InterviewSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to encode session", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO current_sessions (user_id, data, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  data=excluded.data,
  updated_at=excluded.updated_at`,
		session.UserID, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to save current session", err)
	}
	return nil
}

// GetCurrentSession returns the user's in-progress session, or nil when
// there is none.
func (s *Store) GetCurrentSession(ctx context.Context, userID string) (*types.InterviewSession, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM current_sessions WHERE user_id = ?`, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to read current session", err)
	}

	var session types.InterviewSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to decode current session", err)
	}
	return &session, nil
}

// ClearCurrentSession removes the user's in-progress session pointer
func (s *Store) ClearCurrentSession(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM current_sessions WHERE user_id = ?`, userID); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to clear current session", err)
	}
	return nil
}

// CountUsers returns the number of registered accounts, for /stats
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to count users", err)
	}
	return count, nil
}

// CountSessions returns the number of stored history entries, for /stats
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_history`).Scan(&count); err != nil {
		return 0, errors.NewStoreError(errors.ErrCodeStoreFailed, "Failed to count sessions", err)
	}
	return count, nil
}
