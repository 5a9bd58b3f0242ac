package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"linkvault/internal/domain"
)

const createSnapshotTables = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	pin TEXT,
	created_at INTEGER,
	is_admin INTEGER NOT NULL DEFAULT 0,
	resources TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// OpenSQLite opens (or creates) a sqlite database at the given path and
// ensures parent directories exist.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// single writer; the flush queue never issues concurrent saves
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// SQLiteStore persists the snapshot in a sqlite database. Each save runs
// one transaction that clears both tables and re-inserts every row,
// keeping the full-rewrite snapshot contract.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSnapshotTables); err != nil {
		return fmt.Errorf("create snapshot tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Users:    map[string]domain.UserRecord{},
		Sessions: map[string]domain.Session{},
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT username, pin, created_at, is_admin, resources
FROM users`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			username  string
			pin       sql.NullString
			createdAt sql.NullInt64
			isAdmin   bool
			resources string
		)
		if err := rows.Scan(&username, &pin, &createdAt, &isAdmin, &resources); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan user: %w", err)
		}

		user := domain.UserRecord{
			IsAdmin:   isAdmin,
			Resources: map[string]domain.Bookmark{},
		}
		if pin.Valid {
			v := pin.String
			user.PIN = &v
		}
		if createdAt.Valid {
			v := createdAt.Int64
			user.CreatedAt = &v
		}
		if err := json.Unmarshal([]byte(resources), &user.Resources); err != nil {
			return domain.Snapshot{}, fmt.Errorf("parse resources for %s: %w", username, err)
		}
		snap.Users[username] = user
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate users: %w", err)
	}

	if len(snap.Users) == 0 {
		return domain.Snapshot{}, ErrNotExist
	}

	sessRows, err := s.db.QueryContext(ctx, `
SELECT token, username, expires_at
FROM sessions`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("select sessions: %w", err)
	}
	defer sessRows.Close()

	for sessRows.Next() {
		var (
			token   string
			session domain.Session
		)
		if err := sessRows.Scan(&token, &session.Username, &session.ExpiresAt); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan session: %w", err)
		}
		snap.Sessions[token] = session
	}
	if err := sessRows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate sessions: %w", err)
	}

	return normalize(snap), nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	for username, user := range snap.Users {
		resources, err := json.Marshal(user.Resources)
		if err != nil {
			return fmt.Errorf("encode resources for %s: %w", username, err)
		}

		var pin sql.NullString
		if user.PIN != nil {
			pin = sql.NullString{String: *user.PIN, Valid: true}
		}
		var createdAt sql.NullInt64
		if user.CreatedAt != nil {
			createdAt = sql.NullInt64{Int64: *user.CreatedAt, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO users (username, pin, created_at, is_admin, resources)
VALUES (?, ?, ?, ?, ?)`,
			username, pin, createdAt, user.IsAdmin, string(resources),
		); err != nil {
			return fmt.Errorf("insert user %s: %w", username, err)
		}
	}

	for token, session := range snap.Sessions {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions (token, username, expires_at)
VALUES (?, ?, ?)`,
			token, session.Username, session.ExpiresAt,
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
