package db

import (
	"context"
	"database/sql"
)

const sessionMigration = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    namespace text PRIMARY KEY,
    token text,
    token_expiry timestamptz,
    user_data jsonb,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS admin_sessions_token_expiry_idx
ON admin_sessions (token_expiry);
`

// RunSessionMigration creates the session storage table. It is
// idempotent and runs on every startup.
func RunSessionMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, sessionMigration)
	return err
}
