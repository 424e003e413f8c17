package models

import "time"

// MinEaseFactor is the SM-2 floor for the easiness factor
const MinEaseFactor = 1.3

// ReviewItem is one spaced-repetition flashcard for a weak position.
// Items are deduplicated by (user, opening, line, ply).
type ReviewItem struct {
	ID             int     `json:"id" db:"id"`
	UserID         int64   `json:"user_id" db:"user_id"`
	OpeningID      string  `json:"opening_id" db:"opening_id"`
	LineID         string  `json:"line_id" db:"line_id"` // optional, empty when the line is unknown
	FEN            string  `json:"fen" db:"fen"`
	TargetPly      int     `json:"target_ply" db:"target_ply"`
	ExpectedSAN    string  `json:"expected_san" db:"expected_san"`
	Interval       int     `json:"interval" db:"interval"` // days
	EaseFactor     float64 `json:"ease_factor" db:"ease_factor"`
	Repetitions    int     `json:"repetitions" db:"repetitions"`
	LastQuality    int     `json:"last_quality" db:"last_quality"`
	LastReviewDate string  `json:"last_review_date" db:"last_review_date"`
	NextReviewDate string  `json:"next_review_date" db:"next_review_date"`
	CreatedAt      string  `json:"created_at" db:"created_at"`
	UpdatedAt      string  `json:"updated_at" db:"updated_at"`
}

// Due reports whether the item is due at the given time.
// An unparseable next-review date is treated as due so the card is never lost.
func (r *ReviewItem) Due(now time.Time) bool {
	next, err := time.Parse(time.RFC3339, r.NextReviewDate)
	if err != nil {
		return true
	}
	return !next.After(now)
}
