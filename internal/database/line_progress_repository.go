package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/openingcoach/pkg/models"
)

// LineProgressRepository handles database operations for per-line mastery state
type LineProgressRepository struct{}

// NewLineProgressRepository creates a new repository instance
func NewLineProgressRepository() *LineProgressRepository {
	return &LineProgressRepository{}
}

const lineProgressColumns = "id, user_id, opening_id, line_id, phase, games_played, games_won, best_accuracy, unlocked, accuracy_history, created_at, updated_at"

// Get returns the progress row for one (user, opening, line), or nil when absent
func (r *LineProgressRepository) Get(userID int64, openingID, lineID string) (*models.LineProgress, error) {
	query := "SELECT " + lineProgressColumns + " FROM line_progress WHERE user_id = ? AND opening_id = ? AND line_id = ?"
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}

	row := DB.QueryRow(query, userID, openingID, lineID)
	progress, err := scanLineProgress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get line progress: %v", err)
	}
	return progress, nil
}

// GetByOpening returns every progress row the user has for one opening
func (r *LineProgressRepository) GetByOpening(userID int64, openingID string) ([]models.LineProgress, error) {
	query := "SELECT " + lineProgressColumns + " FROM line_progress WHERE user_id = ? AND opening_id = ? ORDER BY line_id"
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}
	return r.queryLineProgress(query, userID, openingID)
}

// GetByUser returns every progress row the user has across openings
func (r *LineProgressRepository) GetByUser(userID int64) ([]models.LineProgress, error) {
	query := "SELECT " + lineProgressColumns + " FROM line_progress WHERE user_id = ? ORDER BY opening_id, line_id"
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}
	return r.queryLineProgress(query, userID)
}

// Upsert inserts or replaces the progress row for its (user, opening, line) key
func (r *LineProgressRepository) Upsert(p *models.LineProgress) error {
	historyJSON, err := json.Marshal(p.AccuracyHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal accuracy history: %v", err)
	}

	var query string
	if DB.DriverName() == "postgres" {
		query = `
			INSERT INTO line_progress (
				user_id, opening_id, line_id, phase, games_played, games_won,
				best_accuracy, unlocked, accuracy_history
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (user_id, opening_id, line_id) DO UPDATE SET
				phase = EXCLUDED.phase,
				games_played = EXCLUDED.games_played,
				games_won = EXCLUDED.games_won,
				best_accuracy = EXCLUDED.best_accuracy,
				unlocked = EXCLUDED.unlocked,
				accuracy_history = EXCLUDED.accuracy_history,
				updated_at = NOW()
		`
	} else {
		query = `
			INSERT INTO line_progress (
				user_id, opening_id, line_id, phase, games_played, games_won,
				best_accuracy, unlocked, accuracy_history, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id, opening_id, line_id) DO UPDATE SET
				phase = excluded.phase,
				games_played = excluded.games_played,
				games_won = excluded.games_won,
				best_accuracy = excluded.best_accuracy,
				unlocked = excluded.unlocked,
				accuracy_history = excluded.accuracy_history,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	_, err = DB.Exec(
		query,
		p.UserID,
		p.OpeningID,
		p.LineID,
		int(p.Phase),
		p.GamesPlayed,
		p.GamesWon,
		p.BestAccuracy,
		p.Unlocked,
		string(historyJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert line progress: %v", err)
	}
	return nil
}

// Delete removes all progress rows for a user and opening
func (r *LineProgressRepository) Delete(userID int64, openingID string) error {
	query := "DELETE FROM line_progress WHERE user_id = ? AND opening_id = ?"
	if DB.DriverName() == "postgres" {
		query = replacePlaceholders(query)
	}
	_, err := DB.Exec(query, userID, openingID)
	return err
}

func (r *LineProgressRepository) queryLineProgress(query string, args ...interface{}) ([]models.LineProgress, error) {
	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query line progress: %v", err)
	}
	defer rows.Close()

	var result []models.LineProgress
	for rows.Next() {
		progress, err := scanLineProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line progress: %v", err)
		}
		result = append(result, *progress)
	}
	return result, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLineProgress(row rowScanner) (*models.LineProgress, error) {
	var p models.LineProgress
	var phase int
	var historyJSON string

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.OpeningID,
		&p.LineID,
		&phase,
		&p.GamesPlayed,
		&p.GamesWon,
		&p.BestAccuracy,
		&p.Unlocked,
		&historyJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Phase = models.Phase(phase)
	if historyJSON != "" {
		if err := json.Unmarshal([]byte(historyJSON), &p.AccuracyHistory); err != nil {
			return nil, fmt.Errorf("failed to parse accuracy history: %v", err)
		}
	}
	return &p, nil
}

// replacePlaceholders converts ? placeholders to numbered $ placeholders
func replacePlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
