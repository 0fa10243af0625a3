package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/db"
)

type PostgresStore struct {
	db        *db.DB
	namespace string
	ttl       time.Duration
	clock     Clock
}

// NewPostgresStore creates a Postgres-backed token store. One row per
// visitor namespace in admin_sessions; ClearAll deletes the row.
func NewPostgresStore(database *db.DB, namespace string, ttl time.Duration) *PostgresStore {
	return &PostgresStore{
		db:        database,
		namespace: namespace,
		ttl:       ttl,
		clock:     SystemClock,
	}
}

// WithClock replaces the wall clock. Intended for tests.
func (p *PostgresStore) WithClock(c Clock) *PostgresStore {
	p.clock = c
	return p
}

func (p *PostgresStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("tokenstore: missing token")
	}

	expiresAt := p.clock.Now().Add(p.ttl)

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (namespace, token, token_expiry, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace) DO UPDATE
		SET token = EXCLUDED.token,
		    token_expiry = EXCLUDED.token_expiry,
		    updated_at = NOW()
	`, p.namespace, token, expiresAt)

	if err != nil {
		return fmt.Errorf("tokenstore: failed to persist token: %w", err)
	}
	return nil
}

func (p *PostgresStore) Token(ctx context.Context) (string, error) {
	var token sql.NullString

	err := p.db.QueryRowContext(ctx, `
		SELECT token FROM admin_sessions WHERE namespace = $1
	`, p.namespace).Scan(&token)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token.String, nil
}

func (p *PostgresStore) IsExpired(ctx context.Context) (bool, error) {
	var expiry sql.NullTime

	err := p.db.QueryRowContext(ctx, `
		SELECT token_expiry FROM admin_sessions WHERE namespace = $1
	`, p.namespace).Scan(&expiry)

	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	if !expiry.Valid {
		return true, nil
	}

	return !p.clock.Now().Before(expiry.Time), nil
}

func (p *PostgresStore) SetUser(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("tokenstore: failed to marshal user: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (namespace, user_data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (namespace) DO UPDATE
		SET user_data = EXCLUDED.user_data,
		    updated_at = NOW()
	`, p.namespace, data)

	if err != nil {
		return fmt.Errorf("tokenstore: failed to persist user: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetUser(ctx context.Context) (*User, error) {
	var raw []byte

	err := p.db.QueryRowContext(ctx, `
		SELECT user_data FROM admin_sessions WHERE namespace = $1
	`, p.namespace).Scan(&raw)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeUser(raw), nil
}

func (p *PostgresStore) ClearAll(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		DELETE FROM admin_sessions WHERE namespace = $1
	`, p.namespace)
	return err
}
