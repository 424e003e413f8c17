package progression

import (
	"math"
	"testing"

	"github.com/example/openingcoach/pkg/models"
)

func TestRecordGame_PromotesAfterGate(t *testing.T) {
	p := &models.LineProgress{UserID: 1, OpeningID: "italian-game", LineID: "main", Unlocked: true}

	for i := 0; i < 2; i++ {
		prev, promoted := RecordGame(p, 85, true)
		if promoted {
			t.Fatalf("promoted after %d games, gate requires 3", i+1)
		}
		if prev != models.PhaseLearningMainLine {
			t.Fatalf("previous phase = %v", prev)
		}
	}

	prev, promoted := RecordGame(p, 85, true)
	if !promoted {
		t.Fatalf("expected promotion on 3rd strong game, composite = %f", Composite(p))
	}
	if prev != models.PhaseLearningMainLine {
		t.Errorf("previous = %v, want learning_main_line", prev)
	}
	if p.Phase != models.PhaseNaturalDeviations {
		t.Errorf("phase = %v, want natural_deviations", p.Phase)
	}
}

func TestRecordGame_WeakPlayHoldsPhase(t *testing.T) {
	p := &models.LineProgress{}
	for i := 0; i < 10; i++ {
		if _, promoted := RecordGame(p, 30, false); promoted {
			t.Fatal("weak play should never promote")
		}
	}
	if p.Phase != models.PhaseLearningMainLine {
		t.Errorf("phase = %v, want learning_main_line", p.Phase)
	}
}

func TestRecordGame_AtMostOnePromotionPerCall(t *testing.T) {
	p := &models.LineProgress{GamesPlayed: 20, GamesWon: 20}
	for i := 0; i < models.AccuracyWindow; i++ {
		p.RecordAccuracy(98)
	}

	_, promoted := RecordGame(p, 98, true)
	if !promoted {
		t.Fatal("expected promotion")
	}
	if p.Phase != models.PhaseNaturalDeviations {
		t.Errorf("phase = %v, want exactly one step", p.Phase)
	}
}

func TestRecordGame_NeverRegresses(t *testing.T) {
	p := &models.LineProgress{Phase: models.PhaseWiderVariations}
	for i := 0; i < 5; i++ {
		RecordGame(p, 10, false)
	}
	if p.Phase != models.PhaseWiderVariations {
		t.Errorf("phase = %v, regressed from wider_variations", p.Phase)
	}
}

func TestRecordGame_TerminalPhase(t *testing.T) {
	p := &models.LineProgress{Phase: models.PhaseFreePlay, GamesPlayed: 50, GamesWon: 50}
	prev, promoted := RecordGame(p, 99, true)
	if promoted || prev != models.PhaseFreePlay || p.Phase != models.PhaseFreePlay {
		t.Errorf("free_play must be terminal: prev=%v promoted=%v phase=%v", prev, promoted, p.Phase)
	}
}

func TestComposite(t *testing.T) {
	p := &models.LineProgress{GamesPlayed: 5, GamesWon: 3}
	p.RecordAccuracy(70)
	p.RecordAccuracy(90)

	// 0.4*80 + 0.3*60 + 0.3*50 = 65
	if got := Composite(p); math.Abs(got-65) > 1e-9 {
		t.Errorf("Composite = %f, want 65", got)
	}
}

func TestComposite_ExperienceSaturates(t *testing.T) {
	p := &models.LineProgress{GamesPlayed: 40, GamesWon: 0}
	if got := Composite(p); math.Abs(got-30) > 1e-9 {
		t.Errorf("Composite = %f, want 30 (experience capped)", got)
	}
}

func TestOverallPhase(t *testing.T) {
	lines := []models.LineProgress{
		{LineID: "main", Phase: models.PhaseWiderVariations, Unlocked: true},
		{LineID: "two-knights", Phase: models.PhaseLearningMainLine, Unlocked: true},
		{LineID: "locked", Phase: models.PhaseFreePlay, Unlocked: false},
	}
	if got := OverallPhase(lines); got != models.PhaseLearningMainLine {
		t.Errorf("OverallPhase = %v, want weakest unlocked line", got)
	}
	if got := OverallPhase(nil); got != models.PhaseLearningMainLine {
		t.Errorf("OverallPhase(nil) = %v, want learning_main_line", got)
	}
}

func TestUnlockNext(t *testing.T) {
	opening := &models.Opening{
		ID: "italian-game",
		Lines: []models.OpeningLine{
			{ID: "main", ParentLineID: ""},
			{ID: "two-knights", ParentLineID: "main"},
			{ID: "fried-liver", ParentLineID: "two-knights"},
		},
	}
	progress := map[string]*models.LineProgress{
		"main":        {LineID: "main", Unlocked: true, Phase: models.PhaseNaturalDeviations},
		"two-knights": {LineID: "two-knights"},
		"fried-liver": {LineID: "fried-liver"},
	}

	unlocked := UnlockNext(opening, progress)
	if len(unlocked) != 1 || unlocked[0] != "two-knights" {
		t.Fatalf("unlocked = %v, want [two-knights]", unlocked)
	}
	if !progress["two-knights"].Unlocked {
		t.Error("two-knights progress not marked unlocked")
	}
	if progress["fried-liver"].Unlocked {
		t.Error("grandchild unlocked before its parent advanced")
	}
}
