package trainer

import (
	"context"
	"strings"
	"testing"

	"github.com/example/openingcoach/internal/coach"
	"github.com/example/openingcoach/internal/repertoire"
	"github.com/example/openingcoach/pkg/models"
)

// sideEvaluator scores by side to move so a deliberate blunder can be staged
// without pinning exact FEN strings
type sideEvaluator struct {
	white, black int
	available    bool
	calls        int
}

func (e *sideEvaluator) Evaluate(ctx context.Context, fen string, depth int) (int, bool) {
	e.calls++
	if strings.Contains(fen, " b ") {
		return e.black, e.available
	}
	return e.white, e.available
}

func italianOpening() *models.Opening {
	return &models.Opening{
		ID:          "italian-game",
		Name:        "Italian Game",
		Description: "Classical development toward f7.",
		Color:       "white",
		Difficulty:  2,
		Plan: models.OpeningPlan{
			Summary:             "Develop quickly and target f7.",
			PawnStructureTarget: "e4 versus e5",
		},
		MainLine: []models.MoveRef{
			{UCI: "e2e4", SAN: "e4"},
			{UCI: "e7e5", SAN: "e5"},
			{UCI: "g1f3", SAN: "Nf3", Explanation: "Develops and attacks e5."},
			{UCI: "b8c6", SAN: "Nc6"},
			{UCI: "f1c4", SAN: "Bc4", Explanation: "Aims at the weak f7 square."},
			{UCI: "f8c5", SAN: "Bc5"},
		},
	}
}

func testRepertoire(t *testing.T) *repertoire.Repertoire {
	t.Helper()
	rep, err := repertoire.New([]*models.Opening{italianOpening()})
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func testUser() *models.User {
	return &models.User{ID: 7, ELO: 900}
}

func TestSession_BookMoveWithoutEngine(t *testing.T) {
	rep := testRepertoire(t)
	evaluator := &sideEvaluator{available: false}
	scorer := coach.NewScorer(evaluator, nil)
	opening := rep.ByID("italian-game")

	session := NewSession(rep, scorer, nil, coach.Capabilities{Engine: true}, testUser(), opening)

	report, err := session.PlayMove(context.Background(), "e4")
	if err != nil {
		t.Fatal(err)
	}
	if report.Category != coach.GoodMove {
		t.Errorf("category = %v, want good_move", report.Category)
	}
	if report.PES.Total < 90 {
		t.Errorf("book move total = %d, want >= 90", report.PES.Total)
	}
	if evaluator.calls != 0 {
		t.Errorf("book move made %d engine calls, want 0", evaluator.calls)
	}
	if !report.OnMainLine {
		t.Error("e4 should stay on the main line")
	}

	summary := session.Finish(true, &models.LineProgress{})
	if len(summary.ReviewCards) != 0 {
		t.Errorf("review cards = %v, want none", summary.ReviewCards)
	}
	if summary.Result.Accuracy < 90 {
		t.Errorf("accuracy = %f, want >= 90", summary.Result.Accuracy)
	}
}

func TestSession_BlunderCreatesReviewCard(t *testing.T) {
	rep := testRepertoire(t)
	// White drops 300cp with the off-book move
	evaluator := &sideEvaluator{white: 30, black: 270, available: true}
	scorer := coach.NewScorer(evaluator, nil)
	opening := rep.ByID("italian-game")

	session := NewSession(rep, scorer, nil, coach.Capabilities{Engine: true}, testUser(), opening)
	ctx := context.Background()

	if _, err := session.PlayMove(ctx, "e4"); err != nil {
		t.Fatal(err)
	}
	opp, err := session.PlayMove(ctx, "e5")
	if err != nil {
		t.Fatal(err)
	}
	if opp.Category != coach.OpponentMove {
		t.Errorf("e5 category = %v, want opponent_move", opp.Category)
	}

	report, err := session.PlayMove(ctx, "Qh5")
	if err != nil {
		t.Fatal(err)
	}
	if report.Category != coach.Mistake {
		t.Fatalf("Qh5 category = %v, want mistake", report.Category)
	}
	if report.PES.Soundness > 40 {
		t.Errorf("blunder soundness = %d, want <= 40", report.PES.Soundness)
	}
	if report.PES.Total > 40 {
		t.Errorf("blunder total = %d, want <= 40", report.PES.Total)
	}
	if !report.Diverged || report.DivergencePly != 2 {
		t.Errorf("divergence = (%d, %v), want (2, true)", report.DivergencePly, report.Diverged)
	}
	if report.Coaching == "" {
		t.Error("mistake should carry coaching text")
	}

	progress := &models.LineProgress{}
	summary := session.Finish(false, progress)
	if len(summary.ReviewCards) != 1 {
		t.Fatalf("review cards = %d, want 1", len(summary.ReviewCards))
	}
	card := summary.ReviewCards[0]
	if card.ExpectedSAN != "Nf3" {
		t.Errorf("expected SAN = %q, want Nf3", card.ExpectedSAN)
	}
	if card.TargetPly != 2 {
		t.Errorf("target ply = %d, want 2", card.TargetPly)
	}
	if summary.Result.Mistakes != 1 {
		t.Errorf("mistakes = %d, want 1", summary.Result.Mistakes)
	}
	if progress.GamesPlayed != 1 || progress.GamesWon != 0 {
		t.Errorf("progress = %+v", progress)
	}
}

func TestSession_IllegalMoveRejected(t *testing.T) {
	rep := testRepertoire(t)
	session := NewSession(rep, coach.NewScorer(nil, nil), nil, coach.Capabilities{}, testUser(), rep.ByID("italian-game"))

	if _, err := session.PlayMove(context.Background(), "Ke4"); err == nil {
		t.Fatal("expected error for illegal move")
	}
	if session.MoveCount() != 0 {
		t.Errorf("state advanced on illegal move: %d plies", session.MoveCount())
	}
}

func TestSession_FinishedSessionRejectsMoves(t *testing.T) {
	rep := testRepertoire(t)
	session := NewSession(rep, coach.NewScorer(nil, nil), nil, coach.Capabilities{}, testUser(), rep.ByID("italian-game"))

	session.Finish(false, &models.LineProgress{})
	if _, err := session.PlayMove(context.Background(), "e4"); err == nil {
		t.Error("expected error after finish")
	}
}

func TestSession_LineDetection(t *testing.T) {
	rep := testRepertoire(t)
	session := NewSession(rep, coach.NewScorer(nil, nil), nil, coach.Capabilities{}, testUser(), rep.ByID("italian-game"))
	ctx := context.Background()

	for _, san := range []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5"} {
		if _, err := session.PlayMove(ctx, san); err != nil {
			t.Fatal(err)
		}
	}

	progress := &models.LineProgress{}
	summary := session.Finish(true, progress)
	if summary.Result.LineID == "" {
		t.Error("full main line should resolve to a line ID")
	}
	if progress.LineID != summary.Result.LineID {
		t.Errorf("progress line %q != result line %q", progress.LineID, summary.Result.LineID)
	}
}
