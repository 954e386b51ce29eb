package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/snakeworld/internal/domain"
	"github.com/snakeworld/internal/service"
	"github.com/snakeworld/internal/websocket"
)

// Handler provides HTTP handlers for the snake game API
type Handler struct {
	auth        *service.AuthService
	leaderboard *service.LeaderboardService
	games       *service.GameService
	hub         *websocket.Hub
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	auth *service.AuthService,
	leaderboard *service.LeaderboardService,
	games *service.GameService,
	hub *websocket.Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:        auth,
		leaderboard: leaderboard,
		games:       games,
		hub:         hub,
		logger:      logger,
	}
}

// APIResponse represents a standard error/status response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type contextKey string

const userContextKey contextKey = "user"

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint for leaderboard watchers
	r.Get("/ws", h.HandleWebSocket)
	r.Get("/ws/stats", h.GetWebSocketStats)

	// Auth
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.With(h.requireAuth).Get("/me", h.GetMe)
	})

	// Leaderboard
	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/", h.GetLeaderboard)
		r.With(h.requireAuth).Post("/", h.SubmitScore)
	})

	// Active games
	r.Route("/games", func(r chi.Router) {
		r.Get("/active", h.GetActiveGames)
		r.Get("/{gameID}", h.GetGame)
	})

	// Profile
	r.With(h.requireAuth).Patch("/users/me", h.UpdateProfile)

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth resolves the bearer token and stores the user in the
// request context
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		user, err := h.auth.Resolve(r.Context(), token)
		if err != nil {
			if domain.IsAuthError(err) {
				h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthenticated)
				return
			}
			h.logger.Error("failed to resolve token", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// currentUser returns the user stored by requireAuth
func currentUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userContextKey).(*domain.User)
	return user
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, data)
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeDomainError maps a domain error to its HTTP status
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case domain.IsAuthError(err):
		h.writeError(w, http.StatusUnauthorized, err)
	case domain.IsConflictError(err):
		h.writeError(w, http.StatusConflict, err)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// Login handles credential login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	token, user, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeSuccess(w, domain.AuthResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

// Register handles account creation
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	token, user, err := h.auth.Register(r.Context(), reg)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, domain.AuthResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

// Logout acknowledges a logout request. Tokens are never revoked, so
// this is a client-side convenience only.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]bool{"success": true})
}

// GetMe returns the authenticated user
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, currentUser(r))
}

// GetLeaderboard returns leaderboard entries, optionally filtered by mode
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	mode := domain.GameMode(r.URL.Query().Get("mode"))

	entries, err := h.leaderboard.List(r.Context(), mode)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	h.writeSuccess(w, entries)
}

// SubmitScore records a completed game for the authenticated user
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var submission domain.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	rank, err := h.leaderboard.Submit(r.Context(), currentUser(r).ID, submission)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeSuccess(w, domain.ScoreResponse{
		Success: true,
		Rank:    rank,
	})
}

// GetActiveGames returns the active-game snapshot
func (h *Handler) GetActiveGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.ListActive(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if games == nil {
		games = []domain.ActiveGame{}
	}
	h.writeSuccess(w, games)
}

// GetGame returns one active game by id
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.games.Get(r.Context(), gameID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeSuccess(w, game)
}

// UpdateProfile applies a profile edit for the authenticated user
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), currentUser(r).ID, update)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeSuccess(w, APIResponse{
		Success: true,
		Data:    user,
	})
}
