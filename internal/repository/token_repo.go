package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitcraft/internal/model"
)

// TokenRepository is the refresh-token ledger. Every operation keys on a
// one-way hash of the raw token; the raw string never reaches storage.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// HashToken derives the storage key for a raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (r *TokenRepository) Store(ctx context.Context, userID string, rawToken string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), userID, HashToken(rawToken), expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Validate reports whether the presented token is currently usable.
// Expiry is not checked here: the caller's JWT verification already
// rejected expired tokens before the ledger is consulted.
func (r *TokenRepository) Validate(ctx context.Context, rawToken string) (model.TokenRecord, error) {
	var rec model.TokenRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked, created_at
		 FROM refresh_tokens WHERE token_hash = $1`, HashToken(rawToken)).
		Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &rec.Revoked, &rec.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.TokenRecord{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.TokenRecord{}, fmt.Errorf("validate refresh token: %w", err)
	}
	if rec.Revoked {
		return model.TokenRecord{}, model.ErrTokenRevoked
	}
	return rec, nil
}

// Revoke marks the matching record revoked. Revoking an already-revoked
// or unknown token is a no-op.
func (r *TokenRepository) Revoke(ctx context.Context, rawToken string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE token_hash = $1 AND NOT revoked`, HashToken(rawToken))
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Consume performs the rotation step: flip revoked to true only if it is
// currently false. Under two concurrent refreshes of the same token the
// conditional update lets exactly one caller through; the loser gets
// ErrTokenRevoked, indistinguishable from replay.
func (r *TokenRepository) Consume(ctx context.Context, rawToken string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE token_hash = $1 AND NOT revoked`, HashToken(rawToken))
	if err != nil {
		return fmt.Errorf("consume refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenRevoked
	}
	return nil
}

// RevokeAllForUser transitions every live token of the user to revoked
// and returns how many rows changed.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE user_id = $1 AND NOT revoked`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes records past their expiry. Housekeeping only;
// expired records are already inert.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
