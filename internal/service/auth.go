package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/snakeworld/internal/auth"
	"github.com/snakeworld/internal/domain"
	"github.com/snakeworld/internal/redis"
)

// AuthService handles registration, login and token resolution
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cache  Cache
	logger *slog.Logger
}

// NewAuthService creates a new auth service. cache may be nil, in
// which case every token resolution hits the token store.
func NewAuthService(users UserStore, tokens TokenStore, cache Cache, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cache:  cache,
		logger: logger,
	}
}

// Register creates a new account and issues a token for it
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (string, *domain.User, error) {
	if reg.Username == "" || reg.Password == "" || !validEmail(reg.Email) {
		return "", nil, domain.ErrInvalidRequest
	}

	user, err := s.users.CreateUser(ctx, reg.Username, reg.Email, auth.HashPassword(reg.Password))
	if err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return token, user, nil
}

// Login verifies credentials and issues a token. Whether the email is
// unknown or the password wrong, the caller sees the same error.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (string, *domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	if !auth.VerifyPassword(creds.Password, user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// issueToken generates, persists and caches a fresh token
func (s *AuthService) issueToken(ctx context.Context, userID string) (string, error) {
	token := auth.NewToken()
	if err := s.tokens.StoreToken(ctx, token, userID); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetTokenUser(ctx, token, userID); err != nil {
			s.logger.Warn("failed to cache token", "error", err)
		}
	}
	return token, nil
}

// Resolve maps a bearer token to the user it was issued for. A token
// that resolves to a missing user is treated the same as an unknown
// token.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	userID, err := s.lookupToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("loading user for token: %w", err)
	}
	return user, nil
}

func (s *AuthService) lookupToken(ctx context.Context, token string) (string, error) {
	if s.cache != nil {
		userID, err := s.cache.GetTokenUser(ctx, token)
		if err == nil {
			return userID, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("token cache lookup failed", "error", err)
		}
	}

	userID, err := s.tokens.GetUserIDByToken(ctx, token)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.SetTokenUser(ctx, token, userID); err != nil {
			s.logger.Warn("failed to backfill token cache", "error", err)
		}
	}
	return userID, nil
}

// UpdateProfile applies a profile edit for the given user
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.Username != nil && *update.Username == "" {
		return nil, domain.ErrInvalidRequest
	}
	if update.Email != nil && !validEmail(*update.Email) {
		return nil, domain.ErrInvalidRequest
	}
	return s.users.UpdateProfile(ctx, userID, update)
}

// validEmail performs shape validation only; deliverability is not our
// problem.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
