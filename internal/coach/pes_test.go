package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/example/openingcoach/pkg/models"
)

type fakeEvaluator struct {
	scores    map[string]int
	available bool
	calls     int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, fen string, depth int) (int, bool) {
	f.calls++
	return f.scores[fen], f.available
}

type fakeJudge struct {
	reply string
	err   error
	calls int
}

func (f *fakeJudge) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls++
	return f.reply, f.err
}

func scoringOpening() *models.Opening {
	return &models.Opening{
		ID:    "italian-game",
		Name:  "Italian Game",
		Color: "white",
		Plan: models.OpeningPlan{
			Summary:             "Rapid development aimed at f7.",
			PawnStructureTarget: "e4 pawn versus e5 pawn",
		},
	}
}

func bookContext() MoveContext {
	return MoveContext{
		Opening:       scoringOpening(),
		PlayedSAN:     "Bc4",
		PlayedUCI:     "f1c4",
		Ply:           4,
		IsLearnerMove: true,
		FENBefore:     "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		FENAfter:      "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		LearnerELO:    900,
		BookMoves: []models.MoveRef{
			{UCI: "f1c4", SAN: "Bc4", Explanation: "Targets the weak f7 square."},
		},
		Continuations: []ContinuationWeight{
			{UCI: "f1c4", SAN: "Bc4", Weight: 60},
			{UCI: "f1b5", SAN: "Bb5", Weight: 40},
		},
	}
}

func offBookContext() MoveContext {
	mc := bookContext()
	mc.PlayedSAN = "a3"
	mc.PlayedUCI = "a2a3"
	return mc
}

func TestScore_BookFastPath(t *testing.T) {
	evaluator := &fakeEvaluator{available: true}
	judge := &fakeJudge{reply: `{"alignment": 10, "reasoning": "ignored"}`}
	scorer := NewScorer(evaluator, judge)

	pes := scorer.Score(context.Background(), bookContext(), Capabilities{Engine: true, Judge: true})

	if pes.Total < 90 {
		t.Errorf("book move total = %d, want >= 90", pes.Total)
	}
	if pes.Category != models.CategoryMasterful {
		t.Errorf("category = %q, want masterful", pes.Category)
	}
	if evaluator.calls != 0 || judge.calls != 0 {
		t.Errorf("book fast path made external calls: engine=%d judge=%d", evaluator.calls, judge.calls)
	}
	if pes.Reasoning == "" {
		t.Error("book move should carry reasoning")
	}
}

func TestScore_EngineUnavailable(t *testing.T) {
	evaluator := &fakeEvaluator{available: false}
	scorer := NewScorer(evaluator, nil)

	pes := scorer.Score(context.Background(), offBookContext(), Capabilities{Engine: true})

	if pes.Soundness != NeutralSoundness {
		t.Errorf("soundness = %d, want neutral %d", pes.Soundness, NeutralSoundness)
	}
	if pes.Alignment != NeutralSoundness {
		t.Errorf("alignment proxy = %d, want %d", pes.Alignment, NeutralSoundness)
	}
	if pes.Verified {
		t.Error("unavailable engine must not mark the score verified")
	}
}

func TestScore_NoCapabilities(t *testing.T) {
	scorer := NewScorer(nil, nil)

	pes := scorer.Score(context.Background(), offBookContext(), Capabilities{})

	if pes.Soundness != NeutralSoundness {
		t.Errorf("soundness = %d, want %d", pes.Soundness, NeutralSoundness)
	}
	if pes.Popularity != PopularityNotInBook {
		t.Errorf("popularity = %d, want %d", pes.Popularity, PopularityNotInBook)
	}
	if pes.Reasoning == "" {
		t.Error("expected template reasoning")
	}
}

func TestScore_BlunderCapped(t *testing.T) {
	mc := offBookContext()
	evaluator := &fakeEvaluator{
		available: true,
		scores: map[string]int{
			mc.FENBefore: 30,  // mover slightly better
			mc.FENAfter:  270, // opponent now winning
		},
	}
	judge := &fakeJudge{reply: `{"alignment": 95, "reasoning": "Flexible prophylaxis."}`}
	scorer := NewScorer(evaluator, judge)

	pes := scorer.Score(context.Background(), mc, Capabilities{Engine: true, Judge: true})

	if pes.Soundness > 40 {
		t.Errorf("blunder soundness = %d, want <= 40", pes.Soundness)
	}
	if pes.Total > 40 {
		t.Errorf("blunder total = %d, want <= 40", pes.Total)
	}
	if !pes.Verified || pes.CPLoss != 300 {
		t.Errorf("verified=%v cpLoss=%d, want verified 300", pes.Verified, pes.CPLoss)
	}
}

func TestScore_JudgeMalformed(t *testing.T) {
	mc := offBookContext()
	evaluator := &fakeEvaluator{
		available: true,
		scores:    map[string]int{mc.FENBefore: 20, mc.FENAfter: -20},
	}
	judge := &fakeJudge{reply: "I cannot assess this position right now."}
	scorer := NewScorer(evaluator, judge)

	pes := scorer.Score(context.Background(), mc, Capabilities{Engine: true, Judge: true})

	// Zero loss gives full soundness; the unusable judge caps alignment at 50
	if pes.Soundness != 100 {
		t.Errorf("soundness = %d, want 100", pes.Soundness)
	}
	if pes.Alignment != 50 {
		t.Errorf("alignment = %d, want 50", pes.Alignment)
	}
}

func TestScore_JudgeError(t *testing.T) {
	mc := offBookContext()
	evaluator := &fakeEvaluator{
		available: true,
		scores:    map[string]int{mc.FENBefore: 20, mc.FENAfter: -20},
	}
	judge := &fakeJudge{err: errors.New("connection refused")}
	scorer := NewScorer(evaluator, judge)

	pes := scorer.Score(context.Background(), mc, Capabilities{Engine: true, Judge: true})

	if pes.Alignment != 50 {
		t.Errorf("alignment = %d, want soundness proxy 50", pes.Alignment)
	}
	if pes.Reasoning == "" {
		t.Error("expected template reasoning on judge failure")
	}
}

func TestScore_JudgeReplyUsed(t *testing.T) {
	mc := offBookContext()
	evaluator := &fakeEvaluator{
		available: true,
		scores:    map[string]int{mc.FENBefore: 20, mc.FENAfter: 10},
	}
	judge := &fakeJudge{reply: `{"alignment": 80, "reasoning": "Useful waiting move against Bb4 ideas.", ` +
		`"rubric": {"development": false, "pawnStructure": true, "strategicGoal": true, "kingSafety": "neutral"}}`}
	scorer := NewScorer(evaluator, judge)

	pes := scorer.Score(context.Background(), mc, Capabilities{Engine: true, Judge: true})

	if pes.Alignment != 80 {
		t.Errorf("alignment = %d, want 80", pes.Alignment)
	}
	if pes.Reasoning != "Useful waiting move against Bb4 ideas." {
		t.Errorf("reasoning = %q", pes.Reasoning)
	}
	if pes.Rubric == nil || !pes.Rubric.PawnStructure {
		t.Errorf("rubric = %+v", pes.Rubric)
	}
}

func TestScore_PopularityRanks(t *testing.T) {
	mc := bookContext()
	// Second-weighted book move stays on the fast path
	mc.PlayedSAN = "Bb5"
	mc.PlayedUCI = "f1b5"
	mc.BookMoves = append(mc.BookMoves, models.MoveRef{UCI: "f1b5", SAN: "Bb5"})

	scorer := NewScorer(nil, nil)
	pes := scorer.Score(context.Background(), mc, Capabilities{})
	if pes.Total < 90 {
		t.Errorf("second book move total = %d, want >= 90", pes.Total)
	}
}
