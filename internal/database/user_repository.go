package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/openingcoach/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const userColumns = "telegram_id, username, first_name, last_name, is_admin, elo, notification_enabled, notification_hour, reviews_per_day, created_at, updated_at"

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE telegram_id = ?"

	// Convert ? placeholders to $ for PostgreSQL if needed
	if DB.DriverName() == "postgres" {
		query = strings.Replace(query, "?", "$1", -1)
	}

	var user models.User
	err := DB.QueryRow(query, id).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.IsAdmin,
		&user.ELO,
		&user.NotificationEnabled,
		&user.NotificationHour,
		&user.ReviewsPerDay,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}
	return &user, nil
}

// GetAll returns all users
func (r *UserRepository) GetAll() ([]models.User, error) {
	return r.getUsersWithCondition("1 = 1")
}

// Create inserts a new user or refreshes the profile fields if it exists
func (r *UserRepository) Create(user *models.User) error {
	if user.ELO == 0 {
		user.ELO = 800
	}
	if user.ReviewsPerDay == 0 {
		user.ReviewsPerDay = 10
	}

	var query string
	if DB.DriverName() == "postgres" {
		query = `
			INSERT INTO users (
				telegram_id, username, first_name, last_name, is_admin,
				elo, notification_enabled, notification_hour, reviews_per_day
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (telegram_id) DO UPDATE SET
				username = EXCLUDED.username,
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				updated_at = NOW()
		`
	} else {
		query = `
			INSERT INTO users (
				telegram_id, username, first_name, last_name, is_admin,
				elo, notification_enabled, notification_hour, reviews_per_day,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT (telegram_id) DO UPDATE SET
				username = excluded.username,
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	_, err := DB.Exec(
		query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.ELO,
		user.NotificationEnabled,
		user.NotificationHour,
		user.ReviewsPerDay,
	)
	if err != nil {
		return fmt.Errorf("failed to create/update user: %v", err)
	}
	return nil
}

// Update modifies user settings
func (r *UserRepository) Update(user *models.User) error {
	var query string
	if DB.DriverName() == "postgres" {
		query = `
			UPDATE users SET
				username = $1,
				first_name = $2,
				last_name = $3,
				is_admin = $4,
				elo = $5,
				notification_enabled = $6,
				notification_hour = $7,
				reviews_per_day = $8,
				updated_at = NOW()
			WHERE telegram_id = $9
		`
	} else {
		query = `
			UPDATE users SET
				username = ?,
				first_name = ?,
				last_name = ?,
				is_admin = ?,
				elo = ?,
				notification_enabled = ?,
				notification_hour = ?,
				reviews_per_day = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE telegram_id = ?
		`
	}

	_, err := DB.Exec(
		query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.ELO,
		user.NotificationEnabled,
		user.NotificationHour,
		user.ReviewsPerDay,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}
	return nil
}

// UpdateELO updates just the playing strength field
func (r *UserRepository) UpdateELO(userID int64, elo int) error {
	query := "UPDATE users SET elo = ?, updated_at = CURRENT_TIMESTAMP WHERE telegram_id = ?"
	if DB.DriverName() == "postgres" {
		query = "UPDATE users SET elo = $1, updated_at = NOW() WHERE telegram_id = $2"
	}
	_, err := DB.Exec(query, elo, userID)
	return err
}

// Delete removes a user
func (r *UserRepository) Delete(id int64) error {
	query := "DELETE FROM users WHERE telegram_id = ?"
	if DB.DriverName() == "postgres" {
		query = strings.Replace(query, "?", "$1", -1)
	}
	_, err := DB.Exec(query, id)
	return err
}

// GetUsersForNotification returns users with notifications enabled for the hour
func (r *UserRepository) GetUsersForNotification(hour int) ([]models.User, error) {
	condition := "notification_enabled = 1 AND notification_hour = ?"
	if DB.DriverName() == "postgres" {
		condition = "notification_enabled = true AND notification_hour = $1"
	}
	return r.getUsersWithCondition(condition, hour)
}

// getUsersWithCondition is a helper function to get users with a specific condition
func (r *UserRepository) getUsersWithCondition(condition string, args ...interface{}) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + condition

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users with condition: %v", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.IsAdmin,
			&user.ELO,
			&user.NotificationEnabled,
			&user.NotificationHour,
			&user.ReviewsPerDay,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %v", err)
		}
		users = append(users, user)
	}

	return users, nil
}
