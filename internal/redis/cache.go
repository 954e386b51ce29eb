package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/snakeworld/internal/config"
	"github.com/snakeworld/internal/domain"
)

// ErrCacheMiss is returned when a key is absent from the cache
var ErrCacheMiss = errors.New("cache miss")

// Cache provides Redis-backed read caching in front of the relational
// store: token-to-user lookups and leaderboard snapshots. Postgres
// stays the source of truth; everything here is rebuildable.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a new Redis cache
func NewCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// tokenKey returns the Redis key for a token-to-user mapping
func (c *Cache) tokenKey(token string) string {
	return fmt.Sprintf("token:%s:user", token)
}

// boardKey returns the Redis key for a leaderboard snapshot. The empty
// mode keys the unfiltered board.
func (c *Cache) boardKey(mode domain.GameMode) string {
	if mode == "" {
		return "leaderboard:all:snapshot"
	}
	return fmt.Sprintf("leaderboard:%s:snapshot", mode)
}

// GetTokenUser resolves a cached token to a user id
func (c *Cache) GetTokenUser(ctx context.Context, token string) (string, error) {
	userID, err := c.client.Get(ctx, c.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("getting cached token: %w", err)
	}
	return userID, nil
}

// SetTokenUser caches a token-to-user mapping. Tokens never expire, so
// the entry carries no TTL.
func (c *Cache) SetTokenUser(ctx context.Context, token, userID string) error {
	err := c.client.Set(ctx, c.tokenKey(token), userID, 0).Err()
	if err != nil {
		return fmt.Errorf("caching token: %w", err)
	}
	return nil
}

// GetBoard retrieves a cached leaderboard snapshot
func (c *Cache) GetBoard(ctx context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error) {
	data, err := c.client.Get(ctx, c.boardKey(mode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("getting cached board: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding cached board: %w", err)
	}
	return entries, nil
}

// SetBoard caches a leaderboard snapshot with the configured TTL
func (c *Cache) SetBoard(ctx context.Context, mode domain.GameMode, entries []domain.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding board: %w", err)
	}
	if err := c.client.Set(ctx, c.boardKey(mode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching board: %w", err)
	}
	return nil
}

// InvalidateBoards drops every cached leaderboard snapshot. Called
// after each score submission so readers never see a board missing the
// fresh entry for longer than one round trip.
func (c *Cache) InvalidateBoards(ctx context.Context) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.boardKey(""))
	for _, mode := range domain.Modes() {
		pipe.Del(ctx, c.boardKey(mode))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidating boards: %w", err)
	}
	return nil
}
