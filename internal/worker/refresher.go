package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/snakeworld/internal/config"
	"github.com/snakeworld/internal/domain"
	"github.com/snakeworld/internal/postgres"
	"github.com/snakeworld/internal/redis"
)

// CacheRefresher periodically rebuilds the Redis leaderboard snapshots
// from PostgreSQL. Submissions invalidate the snapshots eagerly; this
// worker keeps them warm so list requests rarely fall through to the
// database.
type CacheRefresher struct {
	store   *postgres.Repository
	cache   *redis.Cache
	config  *config.CacheConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewCacheRefresher creates a new cache refresher
func NewCacheRefresher(
	store *postgres.Repository,
	cache *redis.Cache,
	cfg *config.CacheConfig,
	logger *slog.Logger,
) *CacheRefresher {
	return &CacheRefresher{
		store:  store,
		cache:  cache,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background refresh process
func (w *CacheRefresher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("cache refresher started", "interval", w.config.RefreshInterval)

	go w.run(ctx)
	return nil
}

// Stop stops the background refresh process
func (w *CacheRefresher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("cache refresher stopped")
	return nil
}

// run is the main worker loop
func (w *CacheRefresher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

// refreshAll rebuilds every leaderboard snapshot
func (w *CacheRefresher) refreshAll(ctx context.Context) {
	startTime := time.Now()

	refreshed := 0
	errorCount := 0

	// The empty mode keys the unfiltered board
	boards := append([]domain.GameMode{""}, domain.Modes()...)
	for _, mode := range boards {
		if err := w.refreshBoard(ctx, mode); err != nil {
			w.logger.Error("failed to refresh board", "mode", mode, "error", err)
			errorCount++
		} else {
			refreshed++
		}
	}

	w.logger.Info("cache refresh cycle completed",
		"duration", time.Since(startTime),
		"refreshed", refreshed,
		"errors", errorCount,
	)
}

// refreshBoard rebuilds a single snapshot from the database
func (w *CacheRefresher) refreshBoard(ctx context.Context, mode domain.GameMode) error {
	entries, err := w.store.ListEntries(ctx, mode)
	if err != nil {
		return err
	}
	return w.cache.SetBoard(ctx, mode, entries)
}

// WarmUp populates every snapshot once, used at startup
func (w *CacheRefresher) WarmUp(ctx context.Context) error {
	count, err := w.store.CountEntries(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("warming leaderboard caches", "entries", count)
	w.refreshAll(ctx)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *CacheRefresher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
