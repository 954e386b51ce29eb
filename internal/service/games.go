package service

import (
	"context"
	"log/slog"

	"github.com/snakeworld/internal/domain"
)

// GameService exposes the active-game snapshot. The list is seeded
// sample data; nothing here drives live gameplay.
type GameService struct {
	store  GameStore
	logger *slog.Logger
}

// NewGameService creates a new game service
func NewGameService(store GameStore, logger *slog.Logger) *GameService {
	return &GameService{
		store:  store,
		logger: logger,
	}
}

// ListActive returns all game sessions currently in progress
func (s *GameService) ListActive(ctx context.Context) ([]domain.ActiveGame, error) {
	return s.store.ListActiveGames(ctx)
}

// Get returns one active game by id
func (s *GameService) Get(ctx context.Context, id string) (*domain.ActiveGame, error) {
	return s.store.GetActiveGame(ctx, id)
}
