package coach

import (
	"context"
	"log"
	"time"

	"github.com/example/openingcoach/pkg/models"
)

// Evaluator is the engine capability: signed centipawns from the
// side-to-move's perspective, ok=false on unavailability
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (score int, ok bool)
}

// TextGenerator is the judge capability: single-shot completion whose errors
// are transport/timeout only, never partial output
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Capabilities is the explicit capability set for one scoring call. Absent
// capabilities degrade to documented defaults; there are no global flags.
type Capabilities struct {
	Engine bool
	Judge  bool
}

// MoveContext carries everything the scorer needs for one played move
type MoveContext struct {
	Opening        *models.Opening
	PlayedSAN      string
	PlayedUCI      string
	Ply            int
	IsLearnerMove  bool
	FENBefore      string
	FENAfter       string
	MoveHistorySAN []string
	LearnerELO     int
	BookMoves      []models.MoveRef     // recorded continuations at this ply
	Continuations  []ContinuationWeight // same continuations with book weights
}

// PES composite weights: total = (soundness*40 + clamp(alignment+pop)*60)/100
const (
	soundnessWeight = 40
	alignmentWeight = 100 - soundnessWeight

	// Book fast path fixed values
	bookFastPathScore = 95

	// A centipawn loss at or past this is a verified blunder; alignment and
	// popularity cannot rescue it past the needs_work boundary
	blunderCPLoss = 200
	blunderCap    = 40

	maxAlignmentTokens = 350
)

// Scorer fuses soundness, popularity, and alignment into a Plan Execution
// Score. Score never fails: every missing or broken signal degrades to a
// documented default.
type Scorer struct {
	evaluator     Evaluator
	judge         TextGenerator
	engineTimeout time.Duration
	judgeTimeout  time.Duration
}

// NewScorer creates a scorer around the external capabilities. Either
// dependency may be nil; the corresponding capability is then treated as
// absent regardless of the per-call capability set.
func NewScorer(evaluator Evaluator, judge TextGenerator) *Scorer {
	return &Scorer{
		evaluator:     evaluator,
		judge:         judge,
		engineTimeout: 5 * time.Second,
		judgeTimeout:  30 * time.Second,
	}
}

// Score computes the PES for one move. The engine and judge calls are
// independent, so they are issued concurrently and awaited jointly; the
// result is committed only after both resolve or time out.
func (s *Scorer) Score(ctx context.Context, mc MoveContext, caps Capabilities) models.PlanExecutionScore {
	// Book fast path: played exactly what was recommended, no external calls
	if isBookMove(mc) {
		return s.compose(bookFastPathScore, bookFastPathScore, PopularityTop3, bookMoveReasoning(mc), nil, 0, false)
	}

	popularity := PopularityAdjustment(WeightRank(mc.PlayedUCI, mc.Continuations))

	type engineResult struct {
		cpLoss int
		ok     bool
	}
	type judgeResult struct {
		raw string
		err error
	}

	engineCh := make(chan engineResult, 1)
	judgeCh := make(chan judgeResult, 1)

	useEngine := caps.Engine && s.evaluator != nil
	useJudge := caps.Judge && s.judge != nil

	if useEngine {
		go func() {
			engineCtx, cancel := context.WithTimeout(ctx, s.engineTimeout)
			defer cancel()
			cpLoss, ok := s.centipawnLoss(engineCtx, mc)
			engineCh <- engineResult{cpLoss: cpLoss, ok: ok}
		}()
	} else {
		engineCh <- engineResult{}
	}

	if useJudge {
		go func() {
			judgeCtx, cancel := context.WithTimeout(ctx, s.judgeTimeout)
			defer cancel()
			raw, err := s.judge.Generate(judgeCtx, BuildAlignmentPrompt(mc), maxAlignmentTokens)
			judgeCh <- judgeResult{raw: raw, err: err}
		}()
	} else {
		judgeCh <- judgeResult{err: context.Canceled}
	}

	engine := <-engineCh
	judged := <-judgeCh

	// Soundness: neutral 50 when the engine could not verify the move. The
	// system must never silently report perfection it cannot check.
	soundness := NeutralSoundness
	cpLoss := 0
	if engine.ok {
		cpLoss = engine.cpLoss
		soundness = Soundness(cpLoss, mc.LearnerELO)
	}

	// Alignment fallback chain
	alignment := soundness
	reasoning := templateReasoning(soundness, mc.PlayedSAN)
	var rubric *models.AlignmentRubric

	if useJudge {
		if judged.err != nil {
			// Transport failure; a judge error never propagates to the caller
			log.Printf("alignment judge unavailable: %v", judged.err)
			alignment = minInt(soundness, 50)
			reasoning = templateReasoning(soundness, mc.PlayedSAN)
		} else if reply, ok := DecodeAlignment(judged.raw); ok {
			alignment = reply.Alignment
			rubric = reply.Rubric
			if reply.Reasoning != "" {
				reasoning = reply.Reasoning
			}
		} else {
			log.Printf("alignment response unusable, falling back to soundness proxy")
			alignment = minInt(soundness, 50)
		}
	}

	return s.compose(soundness, alignment, popularity, reasoning, rubric, cpLoss, engine.ok)
}

// compose applies the composite formula and the blunder cap
func (s *Scorer) compose(soundness, alignment, popularity int, reasoning string, rubric *models.AlignmentRubric, cpLoss int, verified bool) models.PlanExecutionScore {
	adjusted := clampScore(alignment + popularity)
	total := (soundness*soundnessWeight + adjusted*alignmentWeight) / 100
	total = clampScore(total)

	// A verified blunder cannot be rescued by alignment or popularity
	if verified && cpLoss >= blunderCPLoss && total > blunderCap {
		total = blunderCap
	}

	return models.PlanExecutionScore{
		Total:      total,
		Soundness:  soundness,
		Alignment:  alignment,
		Popularity: popularity,
		Reasoning:  reasoning,
		Category:   models.CategorizeScore(total),
		Rubric:     rubric,
		CPLoss:     cpLoss,
		Verified:   verified,
	}
}

// centipawnLoss evaluates the position before and after the move and returns
// the signed drop in the mover's evaluation. Both evaluations are from the
// side-to-move's perspective, so the mover's post-move score is the negation
// of the opponent's.
func (s *Scorer) centipawnLoss(ctx context.Context, mc MoveContext) (int, bool) {
	depth := DepthForELO(mc.LearnerELO)

	before, okBefore := s.evaluator.Evaluate(ctx, mc.FENBefore, depth)
	if !okBefore {
		return 0, false
	}
	after, okAfter := s.evaluator.Evaluate(ctx, mc.FENAfter, depth)
	if !okAfter {
		return 0, false
	}

	return before + after, true
}

func isBookMove(mc MoveContext) bool {
	for _, m := range mc.BookMoves {
		if m.SAN == mc.PlayedSAN {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
