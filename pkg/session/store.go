// Package session keeps the local user's state between runs: the auth
// session, small key/value settings and the reporting chat history.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lookup-erp/lookup/pkg/models"
)

// Store persists local state.
type Store interface {
	// SaveSession replaces the stored auth session and bumps the version.
	SaveSession(ctx context.Context, s models.Session) error
	// LoadSession returns the stored session, false if there is none.
	LoadSession(ctx context.Context) (models.Session, bool, error)
	// ClearSession removes the stored session and bumps the version.
	ClearSession(ctx context.Context) error
	// SessionVersion increases on every session write, from any process.
	SessionVersion(ctx context.Context) (int64, error)

	SetValue(ctx context.Context, key, value string) error
	Value(ctx context.Context, key string) (string, bool, error)
	DeleteValue(ctx context.Context, key string) error

	// AppendChat stores one chat exchange.
	AppendChat(ctx context.Context, ex models.ChatExchange) error
	// ChatHistory returns up to limit latest exchanges, oldest first.
	// A limit <= 0 returns everything.
	ChatHistory(ctx context.Context, limit int) ([]models.ChatExchange, error)
	ClearChat(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// versionKey is the kv row holding the session version counter.
const versionKey = "session.version"

// SQLiteStore implements Store with a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const createSessionTable = `
CREATE TABLE IF NOT EXISTS auth_session (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL DEFAULT '',
	expires_ms INTEGER NOT NULL DEFAULT 0,
	updated_ms INTEGER NOT NULL
);
`

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const createChatTable = `
CREATE TABLE IF NOT EXISTS chat_history (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	question TEXT NOT NULL,
	answer TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_ms INTEGER NOT NULL
);
`

// New opens (or creates) the store at dbPath and runs auto-migration.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// One connection so the busy timeout applies to every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure session db: %w", err)
	}

	for name, ddl := range map[string]string{
		"auth_session": createSessionTable,
		"kv":           createKVTable,
		"chat_history": createChatTable,
	} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate %s table: %w", name, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess models.Session) error {
	if sess.AccessToken == "" {
		return errors.New("save session: empty access token")
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	return s.withVersionBump(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO auth_session (id, access_token, refresh_token, subject, expires_ms, updated_ms)
			 VALUES (1, ?, ?, ?, ?, ?)`,
			sess.AccessToken, sess.RefreshToken, sess.Subject, toMillis(sess.ExpiresAt), toMillis(sess.UpdatedAt),
		)
		return err
	})
}

func (s *SQLiteStore) LoadSession(ctx context.Context) (models.Session, bool, error) {
	var sess models.Session
	var expiresMs, updatedMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, subject, expires_ms, updated_ms FROM auth_session WHERE id = 1`,
	).Scan(&sess.AccessToken, &sess.RefreshToken, &sess.Subject, &expiresMs, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, false, nil
	}
	if err != nil {
		return models.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	sess.ExpiresAt = fromMillis(expiresMs)
	sess.UpdatedAt = fromMillis(updatedMs)
	return sess, true, nil
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	return s.withVersionBump(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM auth_session`)
		return err
	})
}

func (s *SQLiteStore) SessionVersion(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT CAST(value AS INTEGER) FROM kv WHERE key = ?`, versionKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("session version: %w", err)
	}
	return v, nil
}

// withVersionBump runs fn and increments the session version in one transaction.
func (s *SQLiteStore) withVersionBump(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, '1')
		 ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)`,
		versionKey,
	); err != nil {
		return fmt.Errorf("bump session version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Value(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) AppendChat(ctx context.Context, ex models.ChatExchange) error {
	if ex.ID == "" {
		return errors.New("append chat: empty id")
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (id, question, answer, error, created_ms) VALUES (?, ?, ?, ?, ?)`,
		ex.ID, ex.Question, ex.Answer, ex.Error, toMillis(ex.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append chat: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ChatHistory(ctx context.Context, limit int) ([]models.ChatExchange, error) {
	query := `SELECT id, question, answer, error, created_ms FROM chat_history ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var out []models.ChatExchange
	for rows.Next() {
		var ex models.ChatExchange
		var createdMs int64
		if err := rows.Scan(&ex.ID, &ex.Question, &ex.Answer, &ex.Error, &createdMs); err != nil {
			return nil, fmt.Errorf("scan chat history: %w", err)
		}
		ex.CreatedAt = fromMillis(createdMs)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// newest first from the query; callers want reading order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteStore) ClearChat(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history`); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
