package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snakeworld/internal/domain"
)

// StoreToken persists a token-to-user mapping. Tokens have no expiry,
// so rows accumulate for the lifetime of the store.
func (r *Repository) StoreToken(ctx context.Context, token, userID string) error {
	query := `INSERT INTO tokens (token, user_id, created_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, token, userID, time.Now())
	if err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// GetUserIDByToken resolves a bearer token to a user id
func (r *Repository) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM tokens WHERE token = $1`, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrUnauthenticated
		}
		return "", fmt.Errorf("resolving token: %w", err)
	}
	return userID, nil
}
