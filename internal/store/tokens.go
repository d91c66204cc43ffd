package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/burrow/internal/db"
)

// RevokeToken records a signed-out token ID until its expiry. Revocations of
// tokens that have expired anyway are purged on the way.
func RevokeToken(ctx context.Context, d *db.DB, jti string, expiresAt time.Time) error {
	if _, err := d.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	if _, err := PurgeRevokedTokens(ctx, d, now()); err != nil {
		return err
	}
	return nil
}

// PurgeRevokedTokens deletes revocations that expired before cutoff and
// returns how many were removed.
func PurgeRevokedTokens(ctx context.Context, d *db.DB, cutoff time.Time) (int64, error) {
	res, err := d.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// IsTokenRevoked reports whether a token ID was signed out.
func IsTokenRevoked(ctx context.Context, d *db.DB, jti string) (bool, error) {
	var revoked bool
	err := d.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
