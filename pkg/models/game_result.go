package models

import "time"

// GameResult records the outcome of one completed training game
type GameResult struct {
	ID          int       `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	OpeningID   string    `json:"opening_id" db:"opening_id"`
	LineID      string    `json:"line_id" db:"line_id"`
	Accuracy    float64   `json:"accuracy" db:"accuracy"` // mean PES over learner moves, 0-100
	Won         bool      `json:"won" db:"won"`
	MovesPlayed int       `json:"moves_played" db:"moves_played"`
	Mistakes    int       `json:"mistakes" db:"mistakes"`
	PlayedAt    time.Time `json:"played_at" db:"played_at"`
}
