package service

import (
	"context"

	"github.com/snakeworld/internal/domain"
)

// Store contracts the services depend on. The postgres repository
// implements all of them; tests substitute in-memory fakes.

// UserStore holds account records
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
}

// LeaderboardStore holds the append-only score history
type LeaderboardStore interface {
	RecordScore(ctx context.Context, userID string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, int, error)
	ListEntries(ctx context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error)
}

// TokenStore maps opaque bearer tokens to user ids
type TokenStore interface {
	StoreToken(ctx context.Context, token, userID string) error
	GetUserIDByToken(ctx context.Context, token string) (string, error)
}

// GameStore holds the active-game snapshot
type GameStore interface {
	ListActiveGames(ctx context.Context) ([]domain.ActiveGame, error)
	GetActiveGame(ctx context.Context, id string) (*domain.ActiveGame, error)
}

// Cache is the optional Redis layer; a nil Cache disables caching
type Cache interface {
	GetTokenUser(ctx context.Context, token string) (string, error)
	SetTokenUser(ctx context.Context, token, userID string) error
	GetBoard(ctx context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error)
	SetBoard(ctx context.Context, mode domain.GameMode, entries []domain.LeaderboardEntry) error
	InvalidateBoards(ctx context.Context) error
}

// Broadcaster pushes leaderboard changes to connected watchers
type Broadcaster interface {
	BroadcastScore(entry domain.LeaderboardEntry, rank int)
}
