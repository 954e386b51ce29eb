package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/snakeworld/internal/auth"
	"github.com/snakeworld/internal/domain"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedSampleData installs the demo accounts, leaderboard history and
// active-game snapshot. Inserts are idempotent, so re-running on an
// already seeded database is a no-op.
func (r *Repository) SeedSampleData(ctx context.Context) error {
	demoHash := auth.HashPassword("password123")

	users := []domain.User{
		{ID: "1", Username: "SnakeMaster", Email: "master@snake.com", HighScore: 156, GamesPlayed: 42, CreatedAt: date(2024, 1, 15)},
		{ID: "2", Username: "NeonViper", Email: "viper@snake.com", HighScore: 134, GamesPlayed: 38, CreatedAt: date(2024, 2, 20)},
		{ID: "3", Username: "PixelHunter", Email: "pixel@snake.com", HighScore: 128, GamesPlayed: 55, CreatedAt: date(2024, 1, 8)},
		{ID: "4", Username: "RetroGamer", Email: "retro@snake.com", HighScore: 210, GamesPlayed: 89, CreatedAt: date(2023, 11, 5)},
		{ID: "5", Username: "SpeedDemon", Email: "speed@snake.com", HighScore: 88, GamesPlayed: 15, CreatedAt: date(2024, 3, 1)},
		{ID: "6", Username: "GlitchInTheMatrix", Email: "glitch@snake.com", HighScore: 342, GamesPlayed: 112, CreatedAt: date(2023, 10, 12)},
		{ID: "7", Username: "BitByte", Email: "bit@snake.com", HighScore: 95, GamesPlayed: 22, CreatedAt: date(2024, 2, 5)},
		{ID: "8", Username: "PythonCharmer", Email: "python@snake.com", HighScore: 175, GamesPlayed: 60, CreatedAt: date(2024, 1, 30)},
	}
	for _, u := range users {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users (id, username, email, password_hash, high_score, games_played, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, u.ID, u.Username, u.Email, demoHash, u.HighScore, u.GamesPlayed, u.CreatedAt)
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Username, err)
		}
	}

	entries := []domain.LeaderboardEntry{
		{ID: "1", Username: "SnakeMaster", Score: 156, Mode: domain.ModeWalls, Date: date(2024, 12, 28)},
		{ID: "2", Username: "NeonViper", Score: 134, Mode: domain.ModePassthrough, Date: date(2024, 12, 27)},
		{ID: "3", Username: "PixelHunter", Score: 128, Mode: domain.ModeWalls, Date: date(2024, 12, 26)},
		{ID: "4", Username: "CyberSnake", Score: 115, Mode: domain.ModePassthrough, Date: date(2024, 12, 25)},
		{ID: "5", Username: "GlowWorm", Score: 98, Mode: domain.ModeWalls, Date: date(2024, 12, 24)},
		{ID: "6", Username: "RetroGamer", Score: 210, Mode: domain.ModePassthrough, Date: date(2024, 12, 20)},
		{ID: "7", Username: "RetroGamer", Score: 180, Mode: domain.ModeWalls, Date: date(2024, 11, 15)},
		{ID: "8", Username: "GlitchInTheMatrix", Score: 342, Mode: domain.ModeWalls, Date: date(2024, 12, 10)},
		{ID: "9", Username: "GlitchInTheMatrix", Score: 280, Mode: domain.ModePassthrough, Date: date(2024, 12, 11)},
		{ID: "10", Username: "SpeedDemon", Score: 88, Mode: domain.ModePassthrough, Date: date(2024, 12, 29)},
		{ID: "11", Username: "PythonCharmer", Score: 175, Mode: domain.ModeWalls, Date: date(2024, 12, 18)},
		{ID: "12", Username: "BitByte", Score: 95, Mode: domain.ModePassthrough, Date: date(2024, 12, 22)},
		{ID: "13", Username: "SnakeMaster", Score: 140, Mode: domain.ModePassthrough, Date: date(2024, 12, 15)},
		{ID: "14", Username: "NeonViper", Score: 130, Mode: domain.ModeWalls, Date: date(2024, 12, 14)},
	}
	for _, e := range entries {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO leaderboard_entries (id, username, score, mode, date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.Username, e.Score, string(e.Mode), e.Date)
		if err != nil {
			return fmt.Errorf("seeding leaderboard entry %s: %w", e.ID, err)
		}
	}

	games := []domain.ActiveGame{
		{ID: "game1", Username: "LivePlayer1", Score: 45, Mode: domain.ModeWalls},
		{ID: "game2", Username: "LivePlayer2", Score: 32, Mode: domain.ModePassthrough},
		{ID: "game3", Username: "RetroGamer", Score: 120, Mode: domain.ModeWalls},
		{ID: "game4", Username: "SpeedDemon", Score: 10, Mode: domain.ModePassthrough},
	}
	now := time.Now()
	for _, g := range games {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO active_games (id, username, score, mode, started_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, g.ID, g.Username, g.Score, string(g.Mode), now)
		if err != nil {
			return fmt.Errorf("seeding active game %s: %w", g.ID, err)
		}
	}

	r.logger.Info("sample data seeded",
		"users", len(users),
		"leaderboard_entries", len(entries),
		"active_games", len(games),
	)
	return nil
}
