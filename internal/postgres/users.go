package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/snakeworld/internal/domain"
)

const userColumns = `id, username, email, password_hash, high_score, games_played, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.HighScore,
		&u.GamesPlayed,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// uniqueViolation maps a unique-constraint error to the domain conflict
// it represents, or returns false when the error is something else.
func uniqueViolation(err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil, false
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return domain.ErrEmailTaken, true
	default:
		return domain.ErrUsernameTaken, true
	}
}

// GetUserByID retrieves a user by id
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByUsername retrieves a user by username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

// CreateUser inserts a new account with zeroed stats. Duplicate
// username or email surfaces as the matching conflict error.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, high_score, games_played, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, $5)
	`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if conflict, ok := uniqueViolation(err); ok {
			return nil, conflict
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates the user-editable fields; nil fields are kept
func (r *Repository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    email = COALESCE($3, email)
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, update.Username, update.Email))
	if err != nil {
		if conflict, ok := uniqueViolation(err); ok {
			return nil, conflict
		}
		return nil, err
	}
	return user, nil
}

// UpdateStats overwrites a user's aggregate counters; nil fields are kept.
// The score submission path does not use this, it folds the stats write
// into the submission transaction instead.
func (r *Repository) UpdateStats(ctx context.Context, id string, update domain.StatsUpdate) (*domain.User, error) {
	query := `
		UPDATE users
		SET high_score = COALESCE($2, high_score),
		    games_played = COALESCE($3, games_played)
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.pool.QueryRow(ctx, query, id, update.HighScore, update.GamesPlayed))
}
