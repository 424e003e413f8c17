package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/openingcoach/pkg/models"
)

// StatisticsRepository handles aggregate queries over training history
type StatisticsRepository struct{}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository() *StatisticsRepository {
	return &StatisticsRepository{}
}

// GetOpeningStats aggregates the user's games per opening, most played first
func (r *StatisticsRepository) GetOpeningStats(ctx context.Context, userID int64) ([]models.OpeningStats, error) {
	query := `
		SELECT opening_id,
		       COUNT(*) AS games,
		       SUM(CASE WHEN won THEN 1 ELSE 0 END) AS wins,
		       AVG(accuracy) AS avg_accuracy,
		       MAX(accuracy) AS best_accuracy,
		       SUM(mistakes) AS total_mistakes
		FROM game_results
		WHERE user_id = ?
		GROUP BY opening_id
		ORDER BY games DESC
	`
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	var stats []models.OpeningStats
	err := DB.SelectContext(ctx, &stats, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get opening statistics: %v", err)
	}
	return stats, nil
}

// GetUserStats builds the cross-opening summary for one user
func (r *StatisticsRepository) GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	query := `
		SELECT COUNT(*) AS total_games,
		       COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0) AS total_wins,
		       COALESCE(AVG(accuracy), 0) AS avg_accuracy,
		       COUNT(DISTINCT opening_id) AS openings_played
		FROM game_results
		WHERE user_id = ?
	`
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	var stats models.UserStats
	err := DB.GetContext(ctx, &stats, query, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get user statistics: %v", err)
	}

	countQuery := "SELECT COUNT(*) FROM review_items WHERE user_id = ?"
	if DB.DriverName() == "postgres" {
		countQuery = replacePlaceholders(countQuery)
	}
	if err := DB.GetContext(ctx, &stats.ReviewsTracked, countQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to count review items: %v", err)
	}

	return &stats, nil
}
