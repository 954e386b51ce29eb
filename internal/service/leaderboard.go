package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/snakeworld/internal/domain"
	"github.com/snakeworld/internal/redis"
)

// LeaderboardService provides the score submission workflow and
// leaderboard queries
type LeaderboardService struct {
	store  LeaderboardStore
	cache  Cache
	hub    Broadcaster
	logger *slog.Logger
}

// NewLeaderboardService creates a new leaderboard service. cache may
// be nil to disable snapshot caching.
func NewLeaderboardService(store LeaderboardStore, cache Cache, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// SetHub attaches the broadcaster used to notify leaderboard watchers
func (s *LeaderboardService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// Submit records a completed game for the given user and returns the
// new entry's 1-based rank among all leaderboard entries. The store
// applies the stats update, the entry insert and the rank read as one
// atomic unit, so a failure leaves neither store mutated.
func (s *LeaderboardService) Submit(ctx context.Context, userID string, sub domain.ScoreSubmission) (int, error) {
	if err := sub.Validate(); err != nil {
		return 0, err
	}

	entry, rank, err := s.store.RecordScore(ctx, userID, sub.Score, sub.Mode)
	if err != nil {
		return 0, fmt.Errorf("recording score: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateBoards(ctx); err != nil {
			s.logger.Warn("failed to invalidate board cache", "error", err)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastScore(*entry, rank)
	}

	s.logger.Info("score submitted",
		"user_id", userID,
		"score", sub.Score,
		"mode", sub.Mode,
		"rank", rank,
	)
	return rank, nil
}

// SubmitEvent records a score arriving over the Kafka ingestion path
func (s *LeaderboardService) SubmitEvent(ctx context.Context, event domain.ScoreEvent) error {
	if event.UserID == "" {
		return domain.ErrInvalidRequest
	}
	_, err := s.Submit(ctx, event.UserID, domain.ScoreSubmission{
		Score: event.Score,
		Mode:  event.Mode,
	})
	return err
}

// List returns leaderboard entries sorted by score descending. An
// empty mode returns all entries; any other value must be part of the
// closed mode enumeration.
func (s *LeaderboardService) List(ctx context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error) {
	if mode != "" && !mode.Valid() {
		return nil, domain.ErrInvalidMode
	}

	if s.cache != nil {
		entries, err := s.cache.GetBoard(ctx, mode)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("board cache lookup failed", "error", err)
		}
	}

	entries, err := s.store.ListEntries(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetBoard(ctx, mode, entries); err != nil {
			s.logger.Warn("failed to cache board", "error", err)
		}
	}
	return entries, nil
}
