package database

import (
	"fmt"
	"time"

	"github.com/example/openingcoach/pkg/models"
)

// GameResultRepository handles database operations for finished training games
type GameResultRepository struct{}

// NewGameResultRepository creates a new repository instance
func NewGameResultRepository() *GameResultRepository {
	return &GameResultRepository{}
}

// Create records one finished game
func (r *GameResultRepository) Create(result *models.GameResult) error {
	if result.PlayedAt.IsZero() {
		result.PlayedAt = time.Now()
	}

	query := `
		INSERT INTO game_results (user_id, opening_id, line_id, accuracy, won, moves_played, mistakes, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	_, err := DB.Exec(
		query,
		result.UserID,
		result.OpeningID,
		result.LineID,
		result.Accuracy,
		result.Won,
		result.MovesPlayed,
		result.Mistakes,
		result.PlayedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record game result: %v", err)
	}
	return nil
}

// GetRecent returns the user's latest games, newest first
func (r *GameResultRepository) GetRecent(userID int64, limit int) ([]models.GameResult, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, user_id, opening_id, line_id, accuracy, won, moves_played, mistakes, played_at
		FROM game_results WHERE user_id = ? ORDER BY played_at DESC LIMIT ?
	`
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	rows, err := DB.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game results: %v", err)
	}
	defer rows.Close()

	var results []models.GameResult
	for rows.Next() {
		var g models.GameResult
		err := rows.Scan(
			&g.ID,
			&g.UserID,
			&g.OpeningID,
			&g.LineID,
			&g.Accuracy,
			&g.Won,
			&g.MovesPlayed,
			&g.Mistakes,
			&g.PlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game result: %v", err)
		}
		results = append(results, g)
	}
	return results, nil
}
