package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Keys under which the token and its owner are persisted. They are always
// written and removed together.
const (
	TokenKey  = "rm_groups_token"
	UserIDKey = "rm_groups_user_id"
)

type TokenStore interface {
	Load(ctx context.Context) (token string, userID uuid.UUID, ok bool, err error)
	Save(ctx context.Context, token string, userID uuid.UUID) error
	Clear(ctx context.Context) error
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{values: make(map[string]string)}
}

func (s *MemoryTokenStore) Load(ctx context.Context) (string, uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(s.values[TokenKey], s.values[UserIDKey])
}

func (s *MemoryTokenStore) Save(ctx context.Context, token string, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[TokenKey] = token
	s.values[UserIDKey] = userID.String()
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, TokenKey)
	delete(s.values, UserIDKey)
	return nil
}

// SQLiteTokenStore keeps the persisted keys in a local SQLite file.
type SQLiteTokenStore struct {
	db *sqlx.DB
}

type kvRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func OpenSQLiteTokenStore(path string) (*SQLiteTokenStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS client_storage (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure token table: %w", err)
	}
	return &SQLiteTokenStore{db: db}, nil
}

func (s *SQLiteTokenStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteTokenStore) Load(ctx context.Context) (string, uuid.UUID, bool, error) {
	query, args, err := sqlx.In(`SELECT key, value FROM client_storage WHERE key IN (?)`, []string{TokenKey, UserIDKey})
	if err != nil {
		return "", uuid.Nil, false, err
	}
	var rows []kvRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", uuid.Nil, false, nil
		}
		return "", uuid.Nil, false, fmt.Errorf("load token: %w", err)
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}
	return decode(values[TokenKey], values[UserIDKey])
}

func (s *SQLiteTokenStore) Save(ctx context.Context, token string, userID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range []kvRow{{TokenKey, token}, {UserIDKey, userID.String()}} {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO client_storage (key, value) VALUES (:key, :value)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, row); err != nil {
			return fmt.Errorf("save %s: %w", row.Key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteTokenStore) Clear(ctx context.Context) error {
	query, args, err := sqlx.In(`DELETE FROM client_storage WHERE key IN (?)`, []string{TokenKey, UserIDKey})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

// decode treats a half-written pair as absent.
func decode(token, rawUserID string) (string, uuid.UUID, bool, error) {
	if token == "" || rawUserID == "" {
		return "", uuid.Nil, false, nil
	}
	id, err := uuid.Parse(rawUserID)
	if err != nil {
		return "", uuid.Nil, false, nil
	}
	return token, id, true, nil
}

var (
	_ TokenStore = (*MemoryTokenStore)(nil)
	_ TokenStore = (*SQLiteTokenStore)(nil)
)
