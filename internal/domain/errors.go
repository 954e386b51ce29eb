package domain

import "errors"

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrEntryNotRanked     = errors.New("leaderboard entry missing after insert")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidMode        = errors.New("invalid game mode")
	ErrInvalidScore       = errors.New("invalid score value")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternalError      = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrGameNotFound)
}

// IsConflictError checks if an error is a uniqueness conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken)
}

// IsAuthError checks if an error is an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrInvalidCredentials)
}

// IsValidationError checks if an error is a request validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidMode) || errors.Is(err, ErrInvalidScore) || errors.Is(err, ErrInvalidRequest)
}
