package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/snakeworld/internal/domain"
	"github.com/snakeworld/internal/redis"
)

// memStore is an in-memory implementation of the store contracts with
// the same semantics as the postgres repository.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	entries []domain.LeaderboardEntry
	tokens  map[string]string
	games   map[string]*domain.ActiveGame
	seq     int
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*domain.User),
		tokens: make(map[string]string),
		games:  make(map[string]*domain.ActiveGame),
	}
}

func (m *memStore) addUser(u domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		m.seq++
		u.ID = fmt.Sprintf("u%d", m.seq)
	}
	m.users[u.ID] = &u
	return &u
}

func (m *memStore) addEntry(score int, mode domain.GameMode, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.entries = append(m.entries, domain.LeaderboardEntry{
		ID:       fmt.Sprintf("e%d", m.seq),
		Username: username,
		Score:    score,
		Mode:     mode,
		Date:     time.Now(),
	})
}

func (m *memStore) entryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memStore) CreateUser(_ context.Context, username, email, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, domain.ErrEmailTaken
		}
		if u.Username == username {
			return nil, domain.ErrUsernameTaken
		}
	}
	m.seq++
	user := &domain.User{
		ID:           fmt.Sprintf("u%d", m.seq),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.Username != nil {
		for _, u := range m.users {
			if u.ID != id && u.Username == *update.Username {
				return nil, domain.ErrUsernameTaken
			}
		}
		user.Username = *update.Username
	}
	if update.Email != nil {
		for _, u := range m.users {
			if u.ID != id && u.Email == *update.Email {
				return nil, domain.ErrEmailTaken
			}
		}
		user.Email = *update.Email
	}
	copied := *user
	return &copied, nil
}

func (m *memStore) RecordScore(_ context.Context, userID string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, 0, domain.ErrUserNotFound
	}

	user.GamesPlayed++
	if score > user.HighScore {
		user.HighScore = score
	}

	m.seq++
	entry := domain.LeaderboardEntry{
		ID:       fmt.Sprintf("e%d", m.seq),
		Username: user.Username,
		Score:    score,
		Mode:     mode,
		Date:     time.Now(),
	}
	m.entries = append(m.entries, entry)

	// Rank across all modes: score descending, ties in insertion order
	sorted := make([]domain.LeaderboardEntry, len(m.entries))
	copy(sorted, m.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	for i, e := range sorted {
		if e.ID == entry.ID {
			return &entry, i + 1, nil
		}
	}
	return nil, 0, domain.ErrEntryNotRanked
}

func (m *memStore) ListEntries(_ context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []domain.LeaderboardEntry
	for _, e := range m.entries {
		if mode == "" || e.Mode == mode {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	return filtered, nil
}

func (m *memStore) StoreToken(_ context.Context, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *memStore) GetUserIDByToken(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if userID, ok := m.tokens[token]; ok {
		return userID, nil
	}
	return "", domain.ErrUnauthenticated
}

func (m *memStore) ListActiveGames(_ context.Context) ([]domain.ActiveGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var games []domain.ActiveGame
	for _, g := range m.games {
		games = append(games, *g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (m *memStore) GetActiveGame(_ context.Context, id string) (*domain.ActiveGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, domain.ErrGameNotFound
}

// fakeCache records cache traffic for assertions
type fakeCache struct {
	mu          sync.Mutex
	tokens      map[string]string
	boards      map[domain.GameMode][]domain.LeaderboardEntry
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		tokens: make(map[string]string),
		boards: make(map[domain.GameMode][]domain.LeaderboardEntry),
	}
}

func (c *fakeCache) GetTokenUser(_ context.Context, token string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if userID, ok := c.tokens[token]; ok {
		return userID, nil
	}
	return "", redis.ErrCacheMiss
}

func (c *fakeCache) SetTokenUser(_ context.Context, token, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token] = userID
	return nil
}

func (c *fakeCache) GetBoard(_ context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entries, ok := c.boards[mode]; ok {
		return entries, nil
	}
	return nil, redis.ErrCacheMiss
}

func (c *fakeCache) SetBoard(_ context.Context, mode domain.GameMode, entries []domain.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[mode] = entries
	return nil
}

func (c *fakeCache) InvalidateBoards(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards = make(map[domain.GameMode][]domain.LeaderboardEntry)
	c.invalidated++
	return nil
}

// fakeBroadcaster records score broadcasts
type fakeBroadcaster struct {
	mu      sync.Mutex
	entries []domain.LeaderboardEntry
	ranks   []int
}

func (b *fakeBroadcaster) BroadcastScore(entry domain.LeaderboardEntry, rank int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	b.ranks = append(b.ranks, rank)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
