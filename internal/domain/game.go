package domain

import "time"

// ActiveGame is a snapshot of a game session in progress. The list is
// seeded sample data; there is no live game-state synchronization.
type ActiveGame struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Mode      GameMode  `json:"mode"`
	StartedAt time.Time `json:"startedAt"`
}
