package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/snakeworld/internal/auth"
	"github.com/snakeworld/internal/domain"
	"github.com/snakeworld/internal/handler"
	"github.com/snakeworld/internal/service"
	"github.com/snakeworld/internal/websocket"
)

// testStore backs the services with in-memory state for handler tests
type testStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	entries []domain.LeaderboardEntry
	tokens  map[string]string
	games   map[string]*domain.ActiveGame
	seq     int
}

func newTestStore() *testStore {
	return &testStore{
		users:  make(map[string]*domain.User),
		tokens: make(map[string]string),
		games:  make(map[string]*domain.ActiveGame),
	}
}

func (s *testStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *testStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *testStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *testStore) CreateUser(_ context.Context, username, email, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, domain.ErrEmailTaken
		}
		if u.Username == username {
			return nil, domain.ErrUsernameTaken
		}
	}
	s.seq++
	user := &domain.User{
		ID:           fmt.Sprintf("u%d", s.seq),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (s *testStore) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	copied := *user
	return &copied, nil
}

func (s *testStore) RecordScore(_ context.Context, userID string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, 0, domain.ErrUserNotFound
	}

	user.GamesPlayed++
	if score > user.HighScore {
		user.HighScore = score
	}

	s.seq++
	entry := domain.LeaderboardEntry{
		ID:       fmt.Sprintf("e%d", s.seq),
		Username: user.Username,
		Score:    score,
		Mode:     mode,
		Date:     time.Now(),
	}
	s.entries = append(s.entries, entry)

	sorted := make([]domain.LeaderboardEntry, len(s.entries))
	copy(sorted, s.entries)
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

func (s *testStore) ListEntries(_ context.Context, mode domain.GameMode) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var filtered []domain.LeaderboardEntry
	for _, e := range s.entries {
		if mode == "" || e.Mode == mode {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	return filtered, nil
}

func (s *testStore) StoreToken(_ context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return nil
}

func (s *testStore) GetUserIDByToken(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID, ok := s.tokens[token]; ok {
		return userID, nil
	}
	return "", domain.ErrUnauthenticated
}

func (s *testStore) ListActiveGames(_ context.Context) ([]domain.ActiveGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var games []domain.ActiveGame
	for _, g := range s.games {
		games = append(games, *g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (s *testStore) GetActiveGame(_ context.Context, id string) (*domain.ActiveGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, domain.ErrGameNotFound
}

func (s *testStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// testServer wires the full HTTP stack over an in-memory store
type testServer struct {
	store  *testStore
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newTestStore()

	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	authService := service.NewAuthService(store, store, nil, logger)
	leaderboardService := service.NewLeaderboardService(store, nil, logger)
	gameService := service.NewGameService(store, logger)
	leaderboardService.SetHub(hub)

	h := handler.NewHandler(authService, leaderboardService, gameService, hub, logger)

	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	return &testServer{store: store, server: server}
}

// registerUser creates an account through the API and returns the token
func (ts *testServer) registerUser(t *testing.T, username, email, password string) string {
	t.Helper()

	resp := ts.do(t, "POST", "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}

	var body domain.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	return body.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "SnakeMaster", "master@snake.com", "password123")

	resp := ts.do(t, "POST", "/auth/login", "", map[string]string{
		"email":    "master@snake.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}

	var body domain.AuthResponse
	decodeJSON(t, resp, &body)
	if body.Token == "" {
		t.Error("login response has no token")
	}
	if body.User == nil || body.User.Username != "SnakeMaster" {
		t.Errorf("login user = %+v", body.User)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "SnakeMaster", "master@snake.com", "password123")

	resp := ts.do(t, "POST", "/auth/login", "", map[string]string{
		"email":    "master@snake.com",
		"password": "wrong",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login returned %d, want 401", resp.StatusCode)
	}
}

func TestRegister_Conflict(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "SnakeMaster", "master@snake.com", "password123")

	resp := ts.do(t, "POST", "/auth/register", "", map[string]string{
		"username": "Different",
		"email":    "master@snake.com",
		"password": "password123",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("register returned %d, want 409", resp.StatusCode)
	}
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerUser(t, "SnakeMaster", "master@snake.com", "password123")

	resp := ts.do(t, "GET", "/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/auth/me returned %d", resp.StatusCode)
	}

	var user domain.User
	decodeJSON(t, resp, &user)
	if user.Username != "SnakeMaster" {
		t.Errorf("username = %s, want SnakeMaster", user.Username)
	}
}

func TestGetMe_NoToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "GET", "/auth/me", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("/auth/me returned %d, want 401", resp.StatusCode)
	}
}

func TestSubmitScore(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerUser(t, "SnakeMaster", "master@snake.com", "password123")

	resp := ts.do(t, "POST", "/leaderboard/", token, map[string]interface{}{
		"score": 156,
		"mode":  "walls",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit returned %d", resp.StatusCode)
	}

	var body domain.ScoreResponse
	decodeJSON(t, resp, &body)
	if !body.Success {
		t.Error("success = false")
	}
	if body.Rank != 1 {
		t.Errorf("rank = %d, want 1", body.Rank)
	}
}

func TestSubmitScore_Unauthenticated(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "POST", "/leaderboard/", "", map[string]interface{}{
		"score": 156,
		"mode":  "walls",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("submit returned %d, want 401", resp.StatusCode)
	}
	if ts.store.entryCount() != 0 {
		t.Errorf("entry count = %d, want 0", ts.store.entryCount())
	}
}

func TestSubmitScore_InvalidPayload(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerUser(t, "SnakeMaster", "master@snake.com", "password123")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"negative score", map[string]interface{}{"score": -5, "mode": "walls"}},
		{"bad mode", map[string]interface{}{"score": 10, "mode": "spiral"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, "POST", "/leaderboard/", token, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("submit returned %d, want 400", resp.StatusCode)
			}
		})
	}

	if ts.store.entryCount() != 0 {
		t.Errorf("entry count = %d, want 0", ts.store.entryCount())
	}
}

func TestGetLeaderboard(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerUser(t, "SnakeMaster", "master@snake.com", "password123")

	for _, sub := range []map[string]interface{}{
		{"score": 156, "mode": "walls"},
		{"score": 134, "mode": "passthrough"},
		{"score": 210, "mode": "walls"},
	} {
		resp := ts.do(t, "POST", "/leaderboard/", token, sub)
		resp.Body.Close()
	}

	resp := ts.do(t, "GET", "/leaderboard/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard returned %d", resp.StatusCode)
	}

	var entries []domain.LeaderboardEntry
	decodeJSON(t, resp, &entries)
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			t.Errorf("entries not sorted: %d before %d", entries[i-1].Score, entries[i].Score)
		}
	}

	resp = ts.do(t, "GET", "/leaderboard/?mode=walls", "", nil)
	var walls []domain.LeaderboardEntry
	decodeJSON(t, resp, &walls)
	if len(walls) != 2 {
		t.Fatalf("len(walls) = %d, want 2", len(walls))
	}
	for _, e := range walls {
		if e.Mode != domain.ModeWalls {
			t.Errorf("entry mode = %s, want walls", e.Mode)
		}
	}
}

func TestGetLeaderboard_Empty(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "GET", "/leaderboard/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard returned %d", resp.StatusCode)
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	// Must be an empty array, not null
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("decoding body %q: %v", data, err)
	}
	if string(bytes.TrimSpace(data)) == "null" {
		t.Error("empty leaderboard encodes as null, want []")
	}
}

func TestGetLeaderboard_InvalidMode(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "GET", "/leaderboard/?mode=spiral", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("leaderboard returned %d, want 400", resp.StatusCode)
	}
}

func TestActiveGames(t *testing.T) {
	ts := newTestServer(t)
	ts.store.games["game1"] = &domain.ActiveGame{
		ID:       "game1",
		Username: "SnakeMaster",
		Score:    42,
		Mode:     domain.ModeWalls,
	}

	resp := ts.do(t, "GET", "/games/active", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("games/active returned %d", resp.StatusCode)
	}

	var games []domain.ActiveGame
	decodeJSON(t, resp, &games)
	if len(games) != 1 || games[0].ID != "game1" {
		t.Errorf("games = %+v", games)
	}

	resp = ts.do(t, "GET", "/games/game1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("games/game1 returned %d", resp.StatusCode)
	}
	var game domain.ActiveGame
	decodeJSON(t, resp, &game)
	if game.Username != "SnakeMaster" {
		t.Errorf("game = %+v", game)
	}

	resp = ts.do(t, "GET", "/games/missing", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("games/missing returned %d, want 404", resp.StatusCode)
	}
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerUser(t, "OldName", "old@snake.com", "password123")

	resp := ts.do(t, "PATCH", "/users/me", token, map[string]string{
		"username": "NewName",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch returned %d", resp.StatusCode)
	}

	var body struct {
		Success bool        `json:"success"`
		Data    domain.User `json:"data"`
	}
	decodeJSON(t, resp, &body)
	if !body.Success {
		t.Error("success = false")
	}
	if body.Data.Username != "NewName" {
		t.Errorf("username = %s, want NewName", body.Data.Username)
	}
	if body.Data.Email != "old@snake.com" {
		t.Errorf("email = %s, want unchanged", body.Data.Email)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp := ts.do(t, "GET", path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s returned %d", path, resp.StatusCode)
		}
	}
}

func TestLoginSeedHash(t *testing.T) {
	// A seeded account with the sample password must be able to log in
	ts := newTestServer(t)
	hash := auth.HashPassword("password123")
	ts.store.users["1"] = &domain.User{
		ID:           "1",
		Username:     "SnakeMaster",
		Email:        "master@snake.com",
		PasswordHash: hash,
	}

	resp := ts.do(t, "POST", "/auth/login", "", map[string]string{
		"email":    "master@snake.com",
		"password": "password123",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
}
