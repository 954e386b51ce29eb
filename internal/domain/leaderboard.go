package domain

import "time"

// GameMode represents a snake game variant
type GameMode string

const (
	ModePassthrough GameMode = "passthrough"
	ModeWalls       GameMode = "walls"
)

// Valid reports whether the mode is part of the closed enumeration
func (m GameMode) Valid() bool {
	return m == ModePassthrough || m == ModeWalls
}

// Modes lists every game mode the leaderboard partitions on
func Modes() []GameMode {
	return []GameMode{ModePassthrough, ModeWalls}
}

// LeaderboardEntry is an immutable record of one completed game. The
// username is a denormalized snapshot taken at submission time, not a
// live reference; renaming a user does not rewrite historical entries.
type LeaderboardEntry struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
	Mode     GameMode  `json:"mode"`
	Date     time.Time `json:"date"`
}

// ScoreSubmission represents a request to record a completed game
type ScoreSubmission struct {
	Score int      `json:"score"`
	Mode  GameMode `json:"mode"`
}

// Validate rejects malformed submissions before any store mutation
func (s ScoreSubmission) Validate() error {
	if s.Score < 0 {
		return ErrInvalidScore
	}
	if !s.Mode.Valid() {
		return ErrInvalidMode
	}
	return nil
}

// ScoreResponse is returned after a score submission
type ScoreResponse struct {
	Success bool `json:"success"`
	Rank    int  `json:"rank,omitempty"`
}

// ScoreEvent is the wire format for score submissions arriving over
// the Kafka ingestion path, where the submitter is identified by user
// id rather than a bearer token.
type ScoreEvent struct {
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	Mode      GameMode  `json:"mode"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}
