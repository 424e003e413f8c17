package coach

import (
	"fmt"
	"strings"

	"github.com/example/openingcoach/pkg/models"
)

// BuildAlignmentPrompt assembles the structured judge request for one move:
// position context, the opening's strategic plan, human-play statistics, book
// hints, the scoring rubric, and the exact JSON format line. The engine block
// carries only pre-computed book hints: the live evaluation runs concurrently
// with the judge call, so its numbers cannot appear here.
func BuildAlignmentPrompt(mc MoveContext) string {
	var b strings.Builder

	b.WriteString(boardContextBlock(mc))
	b.WriteString("\n\nTHE OPENING PLAN:\n")
	b.WriteString(openingPlanBlock(mc.Opening))
	b.WriteString("\n\nHUMAN PLAY DATA:\n")
	b.WriteString(humanPlayBlock(mc))
	b.WriteString("\n\nENGINE DATA:\n")
	b.WriteString(engineHintBlock(mc))
	b.WriteString("\n\n")
	b.WriteString(rubricBlock)
	b.WriteString("\n\n")
	b.WriteString(reasoningBlock)
	b.WriteString("\n\n")
	b.WriteString(jsonFormatLine)

	return b.String()
}

// BuildCoachingPrompt assembles the request for learner-facing coaching text
// in the REFS/COACHING format the validator expects
func BuildCoachingPrompt(mc MoveContext) string {
	return fmt.Sprintf(
		"You are a chess coach. Your student (ELO ~%d) is learning the %s.\n"+
			"Position: %s\n"+
			"The student just played: %s\n"+
			"Board:\n%s\n"+
			"First list every piece and square you mention on a line starting with REFS: "+
			"(or REFS: none), then give 2-3 beginner-friendly sentences on a line starting "+
			"with COACHING:.",
		mc.LearnerELO, mc.Opening.Name, mc.FENAfter, mc.PlayedSAN, BoardSummary(mc.FENAfter))
}

const rubricBlock = "EVALUATION RUBRIC -- Score 0-100 on plan alignment:\n" +
	"1. Development progress: Does this move develop a piece or improve piece activity?\n" +
	"2. Pawn structure alignment: Does this maintain or advance the opening's target pawn structure?\n" +
	"3. Strategic goal advancement: Does this move work toward the opening's specific objectives?\n" +
	"4. King safety: Does this move contribute to getting the king safe?\n" +
	"5. Was there a significantly better plan-aligned alternative?"

const reasoningBlock = "REASONING REQUIREMENTS:\n" +
	"- Lead with what this move accomplishes for the plan\n" +
	"- If alignment < 80, briefly mention ONE better alternative and what it achieves -- phrase it " +
	"as a constructive tip rather than criticizing the played move\n" +
	"- Do NOT say \"However\" or contradict yourself\n" +
	"- Keep reasoning to 2-3 sentences, suitable for a beginner"

const jsonFormatLine = "Respond in EXACTLY this JSON format (no markdown, no extra text):\n" +
	`{"alignment": <0-100>, "reasoning": "<2-3 sentence explanation>", ` +
	`"rubric": {"development": <true/false>, "pawnStructure": <true/false>, ` +
	`"strategicGoal": <true/false>, "kingSafety": "<positive/negative/neutral>"}}`

func boardContextBlock(mc MoveContext) string {
	color := "White"
	if !mc.Opening.LearnerIsWhite() {
		color = "Black"
	}
	return fmt.Sprintf(
		"OPENING: %s -- %s\n"+
			"STUDENT: %s, ELO ~%d\n"+
			"MOVE PLAYED: %s (%s) at ply %d (move %d)\n"+
			"MOVE HISTORY: %s\n\n"+
			"BOARD BEFORE MOVE:\n%s\n\n"+
			"BOARD AFTER MOVE:\n%s",
		mc.Opening.Name, mc.Opening.Description,
		color, mc.LearnerELO,
		mc.PlayedSAN, mc.PlayedUCI, mc.Ply, mc.Ply/2+1,
		strings.Join(mc.MoveHistorySAN, " "),
		BoardSummary(mc.FENBefore), BoardSummary(mc.FENAfter))
}

func openingPlanBlock(opening *models.Opening) string {
	plan := opening.Plan
	var parts []string
	if plan.Summary != "" {
		parts = append(parts, "Summary: "+plan.Summary)
	}
	if len(plan.StrategicGoals) > 0 {
		var goals []string
		for _, g := range plan.StrategicGoals {
			goals = append(goals, fmt.Sprintf("%d. %s", g.Priority, g.Description))
		}
		parts = append(parts, "Strategic Goals (in priority order):\n"+strings.Join(goals, "\n"))
	}
	if plan.PawnStructureTarget != "" {
		parts = append(parts, "Pawn Structure Target: "+plan.PawnStructureTarget)
	}
	if len(plan.KeySquares) > 0 {
		parts = append(parts, "Key Squares: "+strings.Join(plan.KeySquares, ", "))
	}
	if len(plan.PieceTargets) > 0 {
		var targets []string
		for _, t := range plan.PieceTargets {
			targets = append(targets, fmt.Sprintf("%s -> %s (%s)",
				t.Piece, strings.Join(t.IdealSquares, "/"), t.Reasoning))
		}
		parts = append(parts, "Piece Development Targets:\n"+strings.Join(targets, "\n"))
	}
	if len(parts) == 0 {
		return "No plan data available."
	}
	return strings.Join(parts, "\n")
}

func humanPlayBlock(mc MoveContext) string {
	if len(mc.Continuations) == 0 {
		return "No book statistics for this position."
	}
	total := 0
	for _, c := range mc.Continuations {
		total += c.Weight
	}
	var lines []string
	for _, c := range mc.Continuations {
		share := 0.0
		if total > 0 {
			share = float64(c.Weight) / float64(total)
		}
		lines = append(lines, fmt.Sprintf("%s: %.0f%% of book games", c.SAN, share*100))
	}
	return "Book continuations at this position:\n" + strings.Join(lines, "\n")
}

// engineHintBlock surfaces the hints that are known before the live engine
// evaluation resolves: the book's preferred continuation and whether the
// played move is part of the recorded repertoire
func engineHintBlock(mc MoveContext) string {
	if len(mc.Continuations) == 0 {
		return "No pre-computed analysis for this position."
	}
	best := mc.Continuations[0]
	inBook := false
	for _, c := range mc.Continuations {
		if c.Weight > best.Weight {
			best = c
		}
		if c.UCI == mc.PlayedUCI {
			inBook = true
		}
	}
	status := "is not a recorded book continuation"
	if inBook {
		status = "is a recorded book continuation"
	}
	return fmt.Sprintf("Book-preferred move: %s\nThe played move %s %s.", best.SAN, mc.PlayedSAN, status)
}

// Fallback reasoning templates keyed by soundness band, used whenever the
// judge is absent or its output cannot be salvaged
func templateReasoning(soundness int, playedSAN string) string {
	switch {
	case soundness >= 85:
		return fmt.Sprintf("%s is a solid choice that keeps your position healthy and your plan on track.", playedSAN)
	case soundness >= 60:
		return fmt.Sprintf("%s is playable but slightly loosens your position. Look for moves that develop a piece or fight for the center.", playedSAN)
	case soundness >= 40:
		return fmt.Sprintf("%s gives your opponent chances. Take a moment to check what your opponent's last move threatened.", playedSAN)
	default:
		return fmt.Sprintf("%s loses material or badly weakens your position. Compare it with the recommended line to see what it overlooks.", playedSAN)
	}
}

// bookMoveReasoning celebrates an exact book move, preferring the curated
// per-move explanation when the repertoire carries one
func bookMoveReasoning(mc MoveContext) string {
	for _, m := range mc.BookMoves {
		if m.SAN == mc.PlayedSAN && m.Explanation != "" {
			return m.Explanation
		}
	}
	return fmt.Sprintf("%s follows the %s main theory. You are executing the opening plan exactly as intended.",
		mc.PlayedSAN, mc.Opening.Name)
}
