package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/example/openingcoach/internal/coach"
	"github.com/example/openingcoach/internal/progression"
	"github.com/example/openingcoach/internal/repertoire"
	"github.com/example/openingcoach/internal/review"
	"github.com/example/openingcoach/pkg/models"
	"github.com/notnil/chess"
)

// Session drives one training game against a chosen opening: every move is
// matched against the repertoire, classified, scored, and folded into the
// learner's progress when the game ends.
type Session struct {
	rep     *repertoire.Repertoire
	scorer  *coach.Scorer
	judge   coach.TextGenerator
	caps    coach.Capabilities
	user    *models.User
	opening *models.Opening

	game       *chess.Game
	historySAN []string
	historyUCI []string

	learnerScores []int
	mistakes      []models.ReviewItem
	finished      bool
}

// MoveReport is everything the learner sees after one played move
type MoveReport struct {
	Ply           int
	PlayedSAN     string
	PlayedUCI     string
	IsLearnerMove bool
	Category      coach.MoveCategory
	PES           models.PlanExecutionScore
	Coaching      string
	OnMainLine    bool
	VariationName string
	BookMoves     []models.MoveRef
	DivergencePly int
	Diverged      bool
	FENAfter      string
}

// Summary closes the books on one finished game
type Summary struct {
	Result        models.GameResult
	ReviewCards   []models.ReviewItem
	PreviousPhase models.Phase
	Promoted      bool
	NewPhase      models.Phase
}

// NewSession starts a training game for one user and opening
func NewSession(rep *repertoire.Repertoire, scorer *coach.Scorer, judge coach.TextGenerator, caps coach.Capabilities, user *models.User, opening *models.Opening) *Session {
	return &Session{
		rep:     rep,
		scorer:  scorer,
		judge:   judge,
		caps:    caps,
		user:    user,
		opening: opening,
		game:    chess.NewGame(),
	}
}

// Opening returns the opening this session trains
func (s *Session) Opening() *models.Opening {
	return s.opening
}

// FEN returns the current position
func (s *Session) FEN() string {
	return s.game.Position().String()
}

// MoveCount returns the number of plies played so far
func (s *Session) MoveCount() int {
	return len(s.historySAN)
}

// HistoryUCI returns a copy of the moves played so far in UCI notation
func (s *Session) HistoryUCI() []string {
	return append([]string(nil), s.historyUCI...)
}

// MistakeCount returns the number of review cards registered so far
func (s *Session) MistakeCount() int {
	return len(s.mistakes)
}

// PlayMove applies one SAN move to the session and runs the full pipeline:
// legality, repertoire match, classification, scoring, and coaching. The
// session state only advances when the move is legal.
func (s *Session) PlayMove(ctx context.Context, san string) (*MoveReport, error) {
	if s.finished {
		return nil, fmt.Errorf("session already finished")
	}

	ply := len(s.historySAN)
	fenBefore := s.game.Position().String()

	if err := s.game.MoveStr(san); err != nil {
		return nil, fmt.Errorf("illegal move %q: %v", san, err)
	}
	history := s.game.Moves()
	uci := history[len(history)-1].String()
	fenAfter := s.game.Position().String()

	s.historySAN = append(s.historySAN, san)
	s.historyUCI = append(s.historyUCI, uci)

	bookMoves := s.rep.BookMovesAt(s.historyUCI)
	continuations := s.continuationWeights()
	isLearner := s.opening.LearnerMovesAt(ply)

	report := &MoveReport{
		Ply:           ply,
		PlayedSAN:     san,
		PlayedUCI:     uci,
		IsLearnerMove: isLearner,
		BookMoves:     bookMoves,
		FENAfter:      fenAfter,
	}

	if match := s.bestMatch(); match != nil {
		report.OnMainLine = match.OnMainLine
		report.VariationName = match.VariationName
	}
	report.DivergencePly, report.Diverged = s.rep.Divergence(s.historyUCI)

	mc := coach.MoveContext{
		Opening:        s.opening,
		PlayedSAN:      san,
		PlayedUCI:      uci,
		Ply:            ply,
		IsLearnerMove:  isLearner,
		FENBefore:      fenBefore,
		FENAfter:       fenAfter,
		MoveHistorySAN: append([]string(nil), s.historySAN...),
		LearnerELO:     s.user.ELO,
		BookMoves:      bookMoves,
		Continuations:  continuations,
	}

	report.PES = s.scorer.Score(ctx, mc, s.caps)

	// Classification uses the engine verdict when it exists; an unverified
	// off-book move stays in the acceptable band
	scoreDelta := 0
	if report.PES.Verified {
		scoreDelta = -report.PES.CPLoss
	}
	report.Category = coach.Classify(san, isLearner, scoreDelta, sanList(bookMoves))

	if isLearner {
		s.learnerScores = append(s.learnerScores, report.PES.Total)
	}

	if isLearner && report.Category == coach.Mistake {
		s.registerMistake(fenBefore, ply, bookMoves, continuations)
		report.Coaching = s.coachingFor(ctx, mc, report.PES)
	}

	return report, nil
}

// Finish ends the game, folds it into the line's progress, and reports what
// should be persisted. progress may start empty; it is mutated in place.
func (s *Session) Finish(won bool, progress *models.LineProgress) *Summary {
	s.finished = true

	accuracy := 0.0
	if len(s.learnerScores) > 0 {
		sum := 0
		for _, t := range s.learnerScores {
			sum += t
		}
		accuracy = float64(sum) / float64(len(s.learnerScores))
	}

	lineID := progress.LineID
	if lineID == "" {
		if match := s.bestMatch(); match != nil {
			if line := match.Line(); line != nil {
				lineID = line.ID
				progress.LineID = lineID
			}
		}
	}
	progress.UserID = s.user.ID
	progress.OpeningID = s.opening.ID

	previous, promoted := progression.RecordGame(progress, accuracy, won)

	result := models.GameResult{
		UserID:      s.user.ID,
		OpeningID:   s.opening.ID,
		LineID:      lineID,
		Accuracy:    accuracy,
		Won:         won,
		MovesPlayed: len(s.historySAN),
		Mistakes:    len(s.mistakes),
		PlayedAt:    time.Now(),
	}

	cards := make([]models.ReviewItem, len(s.mistakes))
	copy(cards, s.mistakes)
	for i := range cards {
		cards[i].LineID = lineID
	}

	return &Summary{
		Result:        result,
		ReviewCards:   cards,
		PreviousPhase: previous,
		Promoted:      promoted,
		NewPhase:      progress.Phase,
	}
}

// bestMatch returns the repertoire match for this session's opening, falling
// back to the overall best match
func (s *Session) bestMatch() *repertoire.MatchResult {
	matches := s.rep.Match(s.historyUCI)
	if len(matches) == 0 {
		return nil
	}
	for i := range matches {
		if matches[i].Opening.ID == s.opening.ID {
			return &matches[i]
		}
	}
	return &matches[0]
}

// continuationWeights collects the weighted book continuations at the
// position just before the last played move
func (s *Session) continuationWeights() []coach.ContinuationWeight {
	if len(s.historyUCI) == 0 {
		return nil
	}
	prefix := s.historyUCI[:len(s.historyUCI)-1]

	matches := s.rep.Match(prefix)
	var result *repertoire.MatchResult
	if len(prefix) == 0 {
		// At the root the match list is empty; read the opening tree directly
		var weights []coach.ContinuationWeight
		for _, child := range s.opening.Tree.Children {
			if child.Move != nil {
				weights = append(weights, coach.ContinuationWeight{
					UCI:    child.Move.UCI,
					SAN:    child.Move.SAN,
					Weight: child.Weight,
				})
			}
		}
		return weights
	}
	for i := range matches {
		if matches[i].MatchDepth == len(prefix) && matches[i].Opening.ID == s.opening.ID {
			result = &matches[i]
			break
		}
	}
	if result == nil {
		return nil
	}

	var weights []coach.ContinuationWeight
	for _, node := range result.Continuations {
		if node.Move != nil {
			weights = append(weights, coach.ContinuationWeight{
				UCI:    node.Move.UCI,
				SAN:    node.Move.SAN,
				Weight: node.Weight,
			})
		}
	}
	return weights
}

// registerMistake queues a review card for the position the learner misplayed
func (s *Session) registerMistake(fenBefore string, ply int, bookMoves []models.MoveRef, continuations []coach.ContinuationWeight) {
	expected := expectedMove(bookMoves, continuations)
	if expected == "" {
		return
	}

	// One card per position
	for _, card := range s.mistakes {
		if card.TargetPly == ply {
			return
		}
	}

	s.mistakes = append(s.mistakes,
		review.NewItem(s.user.ID, s.opening.ID, "", fenBefore, ply, expected, time.Now()))
}

// coachingFor asks the judge for grounded advice on a mistake, substituting
// the score reasoning when the judge is absent or references phantom pieces
func (s *Session) coachingFor(ctx context.Context, mc coach.MoveContext, pes models.PlanExecutionScore) string {
	if !s.caps.Judge || s.judge == nil {
		return pes.Reasoning
	}

	judgeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	raw, err := s.judge.Generate(judgeCtx, coach.BuildCoachingPrompt(mc), 300)
	if err != nil {
		return pes.Reasoning
	}
	if coaching, ok := coach.ValidateCoaching(raw, mc.FENAfter); ok {
		return coaching
	}
	return pes.Reasoning
}

// expectedMove picks the strongest recorded continuation, preferring weight
func expectedMove(bookMoves []models.MoveRef, continuations []coach.ContinuationWeight) string {
	best := ""
	bestWeight := -1
	for _, c := range continuations {
		if c.Weight > bestWeight {
			bestWeight = c.Weight
			best = c.SAN
		}
	}
	if best != "" {
		return best
	}
	if len(bookMoves) > 0 {
		return bookMoves[0].SAN
	}
	return ""
}

func sanList(moves []models.MoveRef) []string {
	sans := make([]string, len(moves))
	for i, m := range moves {
		sans[i] = m.SAN
	}
	return sans
}
