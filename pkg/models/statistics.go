package models

// OpeningStats aggregates a user's training history for one opening
type OpeningStats struct {
	OpeningID     string  `json:"opening_id" db:"opening_id"`
	Games         int     `json:"games" db:"games"`
	Wins          int     `json:"wins" db:"wins"`
	AvgAccuracy   float64 `json:"avg_accuracy" db:"avg_accuracy"`
	BestAccuracy  float64 `json:"best_accuracy" db:"best_accuracy"`
	TotalMistakes int     `json:"total_mistakes" db:"total_mistakes"`
}

// WinRate is the fraction of games won (0 when no games)
func (s *OpeningStats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// UserStats is the cross-opening summary shown by the stats command
type UserStats struct {
	TotalGames     int     `json:"total_games" db:"total_games"`
	TotalWins      int     `json:"total_wins" db:"total_wins"`
	AvgAccuracy    float64 `json:"avg_accuracy" db:"avg_accuracy"`
	OpeningsPlayed int     `json:"openings_played" db:"openings_played"`
	ReviewsTracked int     `json:"reviews_tracked" db:"reviews_tracked"`
}
