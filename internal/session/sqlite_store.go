package session

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the session in a two-row key-value table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the session database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := NewSQLiteStore(db)
	if err := store.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS session_kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create session_kv: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (string, []byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_kv WHERE key IN (?, ?)`, TokenKey, UserKey)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()

	var token, user string
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", nil, err
		}
		switch key {
		case TokenKey:
			token = value
		case UserKey:
			user = value
		}
	}
	if err := rows.Err(); err != nil {
		return "", nil, err
	}
	if token == "" || user == "" {
		return "", nil, ErrNotFound
	}
	return token, []byte(user), nil
}

func (s *SQLiteStore) Save(ctx context.Context, token string, user []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const upsert = `
		INSERT INTO session_kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := tx.ExecContext(ctx, upsert, TokenKey, token); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, upsert, UserKey, string(user)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_kv WHERE key IN (?, ?)`, TokenKey, UserKey)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
