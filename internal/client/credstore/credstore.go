// Package credstore is the persistent credential store: a small key-value
// layer over the client's local sqlite database that survives restarts.
// It holds exactly two entries, the session token and the serialized user
// snapshot; absence of either means "no session". The session manager is the
// only writer.
package credstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dkravets/questpath/internal/client/models"
	"github.com/dkravets/questpath/internal/dbx"
)

// Fixed, versionless storage keys.
const (
	keyToken = "token"
	keyUser  = "user"
)

// Store persists session credentials across process restarts. SaveToken and
// SaveUser are separate on purpose: login persists the token first (phase
// one of the commit), and only stores the user snapshot once the identity is
// confirmed.
type Store interface {
	// SaveToken writes only the session token.
	SaveToken(ctx context.Context, token string) error
	// SaveUser writes only the user snapshot.
	SaveUser(ctx context.Context, user *models.User) error
	// Load returns the stored token and user snapshot. Both are zero when
	// either is missing.
	Load(ctx context.Context) (string, *models.User, error)
	// Clear wipes all stored credentials.
	Clear(ctx context.Context) error
}

// SQLiteStore implements Store on the metadata table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) SaveToken(ctx context.Context, token string) error {
	return set(ctx, s.db, keyToken, []byte(token))
}

func (s *SQLiteStore) Load(ctx context.Context) (string, *models.User, error) {
	token, err := get(ctx, s.db, keyToken)
	if err != nil {
		return "", nil, err
	}
	snapshot, err := get(ctx, s.db, keyUser)
	if err != nil {
		return "", nil, err
	}
	if token == nil || snapshot == nil {
		return "", nil, nil
	}

	var user models.User
	if err := json.Unmarshal(snapshot, &user); err != nil {
		return "", nil, fmt.Errorf("decode user snapshot: %w", err)
	}
	return string(token), &user, nil
}

func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) error {
	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}
	return set(ctx, s.db, keyUser, snapshot)
}

// Clear removes both entries in one transaction so a crash cannot leave a
// token behind without its snapshot counterpart already gone.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := del(ctx, tx, keyToken); err != nil {
			return err
		}
		return del(ctx, tx, keyUser)
	})
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func del(ctx context.Context, db dbx.DBTX, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
