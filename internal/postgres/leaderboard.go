package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/snakeworld/internal/domain"
)

// RecordScore applies a score submission as a single transaction:
// bump the submitter's games-played counter, raise the high score if
// beaten, append an immutable leaderboard entry, and compute the
// entry's 1-based rank against a snapshot that includes the fresh
// insert. The initial SELECT ... FOR UPDATE serializes concurrent
// submissions per user.
//
// Rank orders all entries across modes by score descending; ties break
// by date ascending then id, so the ordering is deterministic.
func (r *Repository) RecordScore(ctx context.Context, userID string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var username string
	err = tx.QueryRow(ctx, `SELECT username FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("locking user row: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET games_played = games_played + 1,
		    high_score = GREATEST(high_score, $2)
		WHERE id = $1
	`, userID, score)
	if err != nil {
		return nil, 0, fmt.Errorf("updating user stats: %w", err)
	}

	entry := &domain.LeaderboardEntry{
		ID:       uuid.New().String(),
		Username: username,
		Score:    score,
		Mode:     mode,
		Date:     time.Now(),
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO leaderboard_entries (id, username, score, mode, date)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.Username, entry.Score, string(entry.Mode), entry.Date)
	if err != nil {
		return nil, 0, fmt.Errorf("inserting leaderboard entry: %w", err)
	}

	var rank int
	err = tx.QueryRow(ctx, `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY score DESC, date ASC, id ASC) AS rank
			FROM leaderboard_entries
		)
		SELECT rank FROM ranked WHERE id = $1
	`, entry.ID).Scan(&rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The entry was inserted in this transaction, so the rank
			// read must see it. Fail loudly instead of reporting rank 0.
			return nil, 0, domain.ErrEntryNotRanked
		}
		return nil, 0, fmt.Errorf("computing rank: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("committing transaction: %w", err)
	}
	return entry, rank, nil
}

// ListEntries retrieves leaderboard entries sorted by score descending.
// An empty mode returns entries across all modes.
func (r *Repository) ListEntries(ctx context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT id, username, score, mode, date
		FROM leaderboard_entries
		WHERE $1 = '' OR mode = $1
		ORDER BY score DESC, date ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, string(mode))
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Score, &e.Mode, &e.Date); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountEntries returns the total number of leaderboard entries
func (r *Repository) CountEntries(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leaderboard_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return count, nil
}
