package models

// ScoreCategory is the qualitative band a PES total falls into
type ScoreCategory string

const (
	CategoryMasterful  ScoreCategory = "masterful"
	CategoryGood       ScoreCategory = "good"
	CategoryDeveloping ScoreCategory = "developing"
	CategoryNeedsWork  ScoreCategory = "needs_work"
	CategoryOffTrack   ScoreCategory = "off_track"
)

// CategorizeScore maps a PES total to its qualitative band
func CategorizeScore(total int) ScoreCategory {
	switch {
	case total >= 90:
		return CategoryMasterful
	case total >= 75:
		return CategoryGood
	case total >= 60:
		return CategoryDeveloping
	case total >= 40:
		return CategoryNeedsWork
	default:
		return CategoryOffTrack
	}
}

// KingSafety is the tri-state rubric verdict for king safety
type KingSafety string

const (
	KingSafetyPositive KingSafety = "positive"
	KingSafetyNegative KingSafety = "negative"
	KingSafetyNeutral  KingSafety = "neutral"
)

// AlignmentRubric is the judge's per-criterion breakdown
type AlignmentRubric struct {
	Development   bool       `json:"development"`
	PawnStructure bool       `json:"pawnStructure"`
	StrategicGoal bool       `json:"strategicGoal"`
	KingSafety    KingSafety `json:"kingSafety"`
}

// PlanExecutionScore is the composite 0-100 score for one played move.
// Ephemeral: recomputed per move, never persisted as authoritative state.
type PlanExecutionScore struct {
	Total      int              `json:"total"`
	Soundness  int              `json:"soundness"`
	Alignment  int              `json:"alignment"`
	Popularity int              `json:"popularity"` // bounded adjustment, may be negative
	Reasoning  string           `json:"reasoning"`
	Category   ScoreCategory    `json:"category"`
	Rubric     *AlignmentRubric `json:"rubric,omitempty"`
	CPLoss     int              `json:"cpLoss"`   // signed centipawn loss, 0 when unverified
	Verified   bool             `json:"verified"` // engine confirmed the soundness value
}
