package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/snakeworld/internal/domain"
)

// ListActiveGames retrieves the snapshot of game sessions in progress
func (r *Repository) ListActiveGames(ctx context.Context) ([]domain.ActiveGame, error) {
	query := `
		SELECT id, username, score, mode, started_at
		FROM active_games
		ORDER BY started_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing active games: %w", err)
	}
	defer rows.Close()

	var games []domain.ActiveGame
	for rows.Next() {
		var g domain.ActiveGame
		if err := rows.Scan(&g.ID, &g.Username, &g.Score, &g.Mode, &g.StartedAt); err != nil {
			return nil, fmt.Errorf("scanning active game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GetActiveGame retrieves a single active game by id
func (r *Repository) GetActiveGame(ctx context.Context, id string) (*domain.ActiveGame, error) {
	query := `SELECT id, username, score, mode, started_at FROM active_games WHERE id = $1`
	var g domain.ActiveGame
	err := r.pool.QueryRow(ctx, query, id).Scan(&g.ID, &g.Username, &g.Score, &g.Mode, &g.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGameNotFound
		}
		return nil, fmt.Errorf("getting active game: %w", err)
	}
	return &g, nil
}
