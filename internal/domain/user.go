package domain

import "time"

// User represents a registered player account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	HighScore    int       `json:"highScore"`
	GamesPlayed  int       `json:"gamesPlayed"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StatsUpdate carries the aggregate counters written back to a user
// after a completed game.
type StatsUpdate struct {
	HighScore   *int `json:"highScore,omitempty"`
	GamesPlayed *int `json:"gamesPlayed,omitempty"`
}

// ProfileUpdate carries the user-editable profile fields. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Credentials represents a login request
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration represents a signup request
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Token maps an opaque bearer credential to a user. Tokens never
// expire and are never revoked.
type Token struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
