package review

import (
	"testing"
	"time"

	"github.com/example/openingcoach/pkg/models"
)

var reviewNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func freshItem() models.ReviewItem {
	return NewItem(42, "italian-game", "italian-main", "fen", 5, "Bc4", reviewNow)
}

func TestProcess_IntervalLadder(t *testing.T) {
	sm := NewSM2()
	item := freshItem()

	sm.Process(&item, QualityPerfect, reviewNow)
	if item.Repetitions != 1 || item.Interval != 1 {
		t.Fatalf("after 1st pass: reps=%d interval=%d", item.Repetitions, item.Interval)
	}

	sm.Process(&item, QualityPerfect, reviewNow)
	if item.Repetitions != 2 || item.Interval != 6 {
		t.Fatalf("after 2nd pass: reps=%d interval=%d", item.Repetitions, item.Interval)
	}

	sm.Process(&item, QualityPerfect, reviewNow)
	if item.Repetitions != 3 {
		t.Fatalf("reps = %d, want 3", item.Repetitions)
	}
	// Third pass multiplies by the grown easiness factor
	if item.Interval < 6*1+1 {
		t.Errorf("interval = %d, want > 6", item.Interval)
	}
}

func TestProcess_FailureResets(t *testing.T) {
	sm := NewSM2()
	item := freshItem()
	sm.Process(&item, QualityPerfect, reviewNow)
	sm.Process(&item, QualityPerfect, reviewNow)

	sm.Process(&item, QualityBlackout, reviewNow)
	if item.Repetitions != 0 {
		t.Errorf("repetitions = %d, want 0 after failure", item.Repetitions)
	}
	if item.Interval != 1 {
		t.Errorf("interval = %d, want 1 after failure", item.Interval)
	}
}

func TestProcess_EaseFloor(t *testing.T) {
	sm := NewSM2()
	item := freshItem()
	for i := 0; i < 10; i++ {
		sm.Process(&item, QualityBlackout, reviewNow)
	}
	if item.EaseFactor < models.MinEaseFactor {
		t.Errorf("ease factor = %f, below floor %f", item.EaseFactor, models.MinEaseFactor)
	}
	if item.EaseFactor != models.MinEaseFactor {
		t.Errorf("ease factor = %f, want floor %f after repeated blackouts", item.EaseFactor, models.MinEaseFactor)
	}
}

func TestProcess_EaseUnchangedAtQuality4(t *testing.T) {
	sm := NewSM2()
	item := freshItem()
	before := item.EaseFactor
	sm.Process(&item, QualityCorrectHesitation, reviewNow)
	if item.EaseFactor != before {
		t.Errorf("ease factor moved at quality 4: %f -> %f", before, item.EaseFactor)
	}
}

func TestProcess_SchedulesNextReview(t *testing.T) {
	sm := NewSM2()
	item := freshItem()
	sm.Process(&item, QualityPerfect, reviewNow)

	next, err := time.Parse(time.RFC3339, item.NextReviewDate)
	if err != nil {
		t.Fatalf("unparseable next review date %q", item.NextReviewDate)
	}
	if want := reviewNow.AddDate(0, 0, 1); !next.Equal(want) {
		t.Errorf("next review = %v, want %v", next, want)
	}
	if item.Due(reviewNow) {
		t.Error("freshly scheduled item should not be due yet")
	}
	if !item.Due(reviewNow.AddDate(0, 0, 2)) {
		t.Error("item should be due after its interval passes")
	}
}

func TestDueItems_OrderAndLimit(t *testing.T) {
	sm := NewSM2()
	past := reviewNow.AddDate(0, 0, -1).Format(time.RFC3339)
	future := reviewNow.AddDate(0, 0, 5).Format(time.RFC3339)

	items := []models.ReviewItem{
		{ID: 1, Repetitions: 3, EaseFactor: 2.5, NextReviewDate: past},
		{ID: 2, Repetitions: 0, EaseFactor: 2.5, NextReviewDate: past},
		{ID: 3, Repetitions: 2, EaseFactor: 1.4, NextReviewDate: past},
		{ID: 4, Repetitions: 1, EaseFactor: 2.0, NextReviewDate: future},
	}

	due := sm.DueItems(items, reviewNow, 0)
	if len(due) != 3 {
		t.Fatalf("due count = %d, want 3", len(due))
	}
	if due[0].ID != 2 {
		t.Errorf("first due = %d, want never-reviewed item 2", due[0].ID)
	}
	if due[1].ID != 3 {
		t.Errorf("second due = %d, want hardest item 3", due[1].ID)
	}

	limited := sm.DueItems(items, reviewNow, 1)
	if len(limited) != 1 || limited[0].ID != 2 {
		t.Errorf("limited = %v", limited)
	}
}

func TestDueItems_UnparseableDateIsDue(t *testing.T) {
	sm := NewSM2()
	items := []models.ReviewItem{{ID: 7, NextReviewDate: "garbage"}}
	if due := sm.DueItems(items, reviewNow, 0); len(due) != 1 {
		t.Errorf("unparseable date should be treated as due, got %v", due)
	}
}

func TestQualityFromAttempts(t *testing.T) {
	tests := []struct {
		correct  bool
		attempts int
		want     QualityResponse
	}{
		{true, 1, QualityPerfect},
		{true, 2, QualityCorrectHesitation},
		{true, 3, QualityCorrectDifficult},
		{false, 1, QualityIncorrectFamiliar},
		{false, 3, QualityIncorrect},
	}
	for _, tt := range tests {
		if got := QualityFromAttempts(tt.correct, tt.attempts); got != tt.want {
			t.Errorf("QualityFromAttempts(%v, %d) = %d, want %d", tt.correct, tt.attempts, got, tt.want)
		}
	}
}

func TestMastered(t *testing.T) {
	sm := NewSM2()
	item := freshItem()
	if sm.Mastered(&item) {
		t.Error("fresh item should not be mastered")
	}
	item.Repetitions = 5
	item.LastQuality = 5
	item.Interval = 30
	if !sm.Mastered(&item) {
		t.Error("expected mastered")
	}
}
