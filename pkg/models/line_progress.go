package models

// Phase is a stage in the fixed learning progression for a line or opening.
// Phases only ever advance; there is no automatic regression.
type Phase int

const (
	PhaseLearningMainLine Phase = iota
	PhaseNaturalDeviations
	PhaseWiderVariations
	PhaseFreePlay // terminal
)

// String returns the storage/display name for a phase
func (p Phase) String() string {
	switch p {
	case PhaseLearningMainLine:
		return "learning_main_line"
	case PhaseNaturalDeviations:
		return "natural_deviations"
	case PhaseWiderVariations:
		return "wider_variations"
	case PhaseFreePlay:
		return "free_play"
	}
	return "unknown"
}

// Title returns a learner-facing label for a phase
func (p Phase) Title() string {
	switch p {
	case PhaseLearningMainLine:
		return "Learning the Main Line"
	case PhaseNaturalDeviations:
		return "Natural Deviations"
	case PhaseWiderVariations:
		return "Wider Variations"
	case PhaseFreePlay:
		return "Free Play"
	}
	return "Unknown"
}

// AccuracyWindow is the rolling history cap used for the composite score
const AccuracyWindow = 10

// LineProgress tracks a learner's mastery state for one opening line
type LineProgress struct {
	ID              int       `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	OpeningID       string    `json:"opening_id" db:"opening_id"`
	LineID          string    `json:"line_id" db:"line_id"`
	Phase           Phase     `json:"phase" db:"phase"`
	GamesPlayed     int       `json:"games_played" db:"games_played"`
	GamesWon        int       `json:"games_won" db:"games_won"`
	BestAccuracy    float64   `json:"best_accuracy" db:"best_accuracy"`
	Unlocked        bool      `json:"unlocked" db:"unlocked"`
	AccuracyHistory []float64 `json:"accuracy_history" db:"-"` // capped at AccuracyWindow entries
	CreatedAt       string    `json:"created_at" db:"created_at"`
	UpdatedAt       string    `json:"updated_at" db:"updated_at"`
}

// RecordAccuracy appends one accuracy value, trimming the window from the front
func (p *LineProgress) RecordAccuracy(accuracy float64) {
	p.AccuracyHistory = append(p.AccuracyHistory, accuracy)
	if len(p.AccuracyHistory) > AccuracyWindow {
		p.AccuracyHistory = p.AccuracyHistory[len(p.AccuracyHistory)-AccuracyWindow:]
	}
	if accuracy > p.BestAccuracy {
		p.BestAccuracy = accuracy
	}
}

// MeanAccuracy averages the rolling history (0 when empty)
func (p *LineProgress) MeanAccuracy() float64 {
	if len(p.AccuracyHistory) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range p.AccuracyHistory {
		sum += a
	}
	return sum / float64(len(p.AccuracyHistory))
}

// WinRate is the fraction of recorded games won (0 when no games)
func (p *LineProgress) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.GamesWon) / float64(p.GamesPlayed)
}
