package database

import (
	"database/sql"
	"fmt"

	"github.com/example/openingcoach/pkg/models"
)

// ReviewItemRepository handles database operations for spaced-repetition cards
type ReviewItemRepository struct{}

// NewReviewItemRepository creates a new repository instance
func NewReviewItemRepository() *ReviewItemRepository {
	return &ReviewItemRepository{}
}

const reviewItemColumns = "id, user_id, opening_id, line_id, fen, target_ply, expected_san, interval, ease_factor, repetitions, last_quality, last_review_date, next_review_date, created_at, updated_at"

// Add inserts a card, keeping the existing one when the (user, opening, line,
// ply) key is already tracked. Re-registering a position must not reset its
// review schedule.
func (r *ReviewItemRepository) Add(item *models.ReviewItem) error {
	query := `
		INSERT INTO review_items (
			user_id, opening_id, line_id, fen, target_ply, expected_san,
			interval, ease_factor, repetitions, last_quality,
			last_review_date, next_review_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, opening_id, line_id, target_ply) DO NOTHING
	`
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	_, err := DB.Exec(
		query,
		item.UserID,
		item.OpeningID,
		item.LineID,
		item.FEN,
		item.TargetPly,
		item.ExpectedSAN,
		item.Interval,
		item.EaseFactor,
		item.Repetitions,
		item.LastQuality,
		item.LastReviewDate,
		item.NextReviewDate,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add review item: %v", err)
	}
	return nil
}

// Update persists a card after one review pass
func (r *ReviewItemRepository) Update(item *models.ReviewItem) error {
	query := `
		UPDATE review_items SET
			interval = ?,
			ease_factor = ?,
			repetitions = ?,
			last_quality = ?,
			last_review_date = ?,
			next_review_date = ?,
			updated_at = ?
		WHERE id = ?
	`
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	_, err := DB.Exec(
		query,
		item.Interval,
		item.EaseFactor,
		item.Repetitions,
		item.LastQuality,
		item.LastReviewDate,
		item.NextReviewDate,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review item: %v", err)
	}
	return nil
}

// GetByUser returns every card a user has, optionally filtered to one opening
func (r *ReviewItemRepository) GetByUser(userID int64, openingID string) ([]models.ReviewItem, error) {
	query := "SELECT " + reviewItemColumns + " FROM review_items WHERE user_id = ?"
	args := []interface{}{userID}
	if openingID != "" {
		query += " AND opening_id = ?"
		args = append(args, openingID)
	}
	query += " ORDER BY next_review_date"
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}
	return r.queryItems(query, args...)
}

// GetByID returns one card, or nil when absent
func (r *ReviewItemRepository) GetByID(id int) (*models.ReviewItem, error) {
	query := "SELECT " + reviewItemColumns + " FROM review_items WHERE id = ?"
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	var item models.ReviewItem
	err := DB.QueryRow(query, id).Scan(
		&item.ID,
		&item.UserID,
		&item.OpeningID,
		&item.LineID,
		&item.FEN,
		&item.TargetPly,
		&item.ExpectedSAN,
		&item.Interval,
		&item.EaseFactor,
		&item.Repetitions,
		&item.LastQuality,
		&item.LastReviewDate,
		&item.NextReviewDate,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %v", err)
	}
	return &item, nil
}

// Delete removes a retired card
func (r *ReviewItemRepository) Delete(id int) error {
	query := "DELETE FROM review_items WHERE id = ?"
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}
	_, err := DB.Exec(query, id)
	return err
}

func (r *ReviewItemRepository) queryItems(query string, args ...interface{}) ([]models.ReviewItem, error) {
	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review items: %v", err)
	}
	defer rows.Close()

	var items []models.ReviewItem
	for rows.Next() {
		var item models.ReviewItem
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.OpeningID,
			&item.LineID,
			&item.FEN,
			&item.TargetPly,
			&item.ExpectedSAN,
			&item.Interval,
			&item.EaseFactor,
			&item.Repetitions,
			&item.LastQuality,
			&item.LastReviewDate,
			&item.NextReviewDate,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review item: %v", err)
		}
		items = append(items, item)
	}
	return items, nil
}
