package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/migrations"
	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/pressly/goose/v3"
)

// execQuerier is what SQLiteStore needs from *sql.DB.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore keeps the token in one row of the metadata table, under
// common.AccessTokenKey. The row's updated_at column records when it was
// written; no other key is used.
type SQLiteStore struct {
	db  execQuerier
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// OpenDatabase opens (creating if needed) the SQLite database at dsn and
// applies the embedded migrations.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the embedded goose migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	v, _, err := s.get(ctx, common.AccessTokenKey)
	if errors.Is(err, common.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Set replaces the token and stamps the row with the current time.
func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	setAt := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, common.AccessTokenKey, []byte(token), setAt)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", common.AccessTokenKey, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, common.AccessTokenKey)
	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// SetAt returns when the current token was stored, or the zero time if no
// token is stored.
func (s *SQLiteStore) SetAt(ctx context.Context) (time.Time, error) {
	_, at, err := s.get(ctx, common.AccessTokenKey)
	if errors.Is(err, common.ErrNotFound) || (err == nil && at == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse metadata[%s].updated_at: %w", common.AccessTokenKey, err)
	}
	return t, nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		value     []byte
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, updated_at FROM metadata WHERE key = ?`, key).Scan(&value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", common.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, updatedAt, nil
}
