package review

import (
	"math"
	"sort"
	"time"

	"github.com/example/openingcoach/pkg/models"
)

// SM2 implements the SuperMemo-2 algorithm for position flashcards
type SM2 struct {
	// Quality at or above this counts as a successful recall
	PassThreshold int
	// Longest allowed interval in days
	MaxInterval int
}

// NewSM2 creates a new SM2 scheduler with the canonical settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold: 3,
		MaxInterval:   365,
	}
}

// QualityResponse represents the quality of recall in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall the move
	QualityBlackout QualityResponse = 0
	// Wrong move, but recognized the right one when shown
	QualityIncorrect QualityResponse = 1
	// Wrong move, the right one felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct move found with significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct move after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Correct move, instant recall
	QualityPerfect QualityResponse = 5
)

// Process applies one review outcome to the item: the easiness factor moves
// by the standard SM-2 delta (floored at 1.3), successful recalls walk the
// 1, 6, round(interval*ease) interval ladder, and a failed recall resets
// repetitions and schedules the card for tomorrow.
func (sm *SM2) Process(item *models.ReviewItem, quality QualityResponse, now time.Time) {
	item.LastReviewDate = now.Format(time.RFC3339)
	item.LastQuality = int(quality)

	q := float64(quality)
	newEF := item.EaseFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if newEF < models.MinEaseFactor {
		newEF = models.MinEaseFactor
	}
	item.EaseFactor = newEF

	if int(quality) >= sm.PassThreshold {
		item.Repetitions++
		switch item.Repetitions {
		case 1:
			item.Interval = 1
		case 2:
			item.Interval = 6
		default:
			item.Interval = int(math.Round(float64(item.Interval) * item.EaseFactor))
		}
		if item.Interval > sm.MaxInterval {
			item.Interval = sm.MaxInterval
		}
	} else {
		item.Repetitions = 0
		item.Interval = 1
	}

	item.NextReviewDate = now.AddDate(0, 0, item.Interval).Format(time.RFC3339)
	item.UpdatedAt = now.Format(time.RFC3339)
}

// DueItems filters and orders the cards due at now, hardest first:
// never-reviewed cards, then lowest easiness factor, then most overdue.
// limit <= 0 means no limit.
func (sm *SM2) DueItems(items []models.ReviewItem, now time.Time, limit int) []models.ReviewItem {
	var due []models.ReviewItem
	for _, item := range items {
		if item.Due(now) {
			due = append(due, item)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Repetitions == 0 && due[j].Repetitions > 0 {
			return true
		}
		if due[j].Repetitions == 0 && due[i].Repetitions > 0 {
			return false
		}
		if due[i].EaseFactor != due[j].EaseFactor {
			return due[i].EaseFactor < due[j].EaseFactor
		}

		nextI, errI := time.Parse(time.RFC3339, due[i].NextReviewDate)
		nextJ, errJ := time.Parse(time.RFC3339, due[j].NextReviewDate)
		if errI == nil && errJ == nil {
			return nextI.Before(nextJ)
		}
		return errJ != nil && errI == nil
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}

// QualityFromAttempts maps a quiz answer to a recall quality: correct on the
// first try is perfect, later tries degrade, wrong answers grade by how close
// the learner got before giving up.
func QualityFromAttempts(correct bool, attempts int) QualityResponse {
	if correct {
		switch {
		case attempts <= 1:
			return QualityPerfect
		case attempts == 2:
			return QualityCorrectHesitation
		default:
			return QualityCorrectDifficult
		}
	}
	if attempts <= 1 {
		return QualityIncorrectFamiliar
	}
	return QualityIncorrect
}

// NewItem builds a fresh card for a position the learner got wrong. The
// starting easiness factor follows SuperMemo's 2.5 default.
func NewItem(userID int64, openingID, lineID, fen string, targetPly int, expectedSAN string, now time.Time) models.ReviewItem {
	ts := now.Format(time.RFC3339)
	return models.ReviewItem{
		UserID:         userID,
		OpeningID:      openingID,
		LineID:         lineID,
		FEN:            fen,
		TargetPly:      targetPly,
		ExpectedSAN:    expectedSAN,
		Interval:       1,
		EaseFactor:     2.5,
		Repetitions:    0,
		NextReviewDate: ts,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
}

// Mastered reports whether a card can be retired: at least five successful
// repetitions, a confident last recall, and a month-long interval.
func (sm *SM2) Mastered(item *models.ReviewItem) bool {
	return item.Repetitions >= 5 &&
		item.LastQuality >= int(QualityCorrectHesitation) &&
		item.Interval >= 30
}
