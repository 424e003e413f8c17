package coach

import "math"

// Tolerance curve: linear from 130 centipawns at ELO 400 down to 50 at
// ELO 1400, clamped outside that range. Lower-rated learners get a wider
// band before losing soundness points.
const (
	toleranceMinELO = 400
	toleranceMaxELO = 1400
	toleranceAtMin  = 130.0
	toleranceAtMax  = 50.0
)

// NeutralSoundness is reported when the evaluator cannot verify the move
const NeutralSoundness = 50

// ToleranceForELO interpolates the centipawn tolerance for a learner rating
func ToleranceForELO(elo int) float64 {
	clamped := elo
	if clamped < toleranceMinELO {
		clamped = toleranceMinELO
	}
	if clamped > toleranceMaxELO {
		clamped = toleranceMaxELO
	}
	slope := (toleranceAtMin - toleranceAtMax) / float64(toleranceMaxELO-toleranceMinELO)
	return toleranceAtMin - float64(clamped-toleranceMinELO)*slope
}

// Soundness maps centipawn loss to a 0-100 ceiling via exponential decay
// scaled by the learner's tolerance band
func Soundness(cpLoss int, elo int) int {
	if cpLoss <= 0 {
		return 100
	}
	tolerance := ToleranceForELO(elo)
	score := int(100 * math.Exp(-float64(cpLoss)/tolerance))
	if score < 0 {
		score = 0
	}
	return score
}

// DepthForELO picks the engine search depth for a learner rating. Beginners
// need a more forgiving evaluation, not deeper truth.
func DepthForELO(elo int) int {
	switch {
	case elo < 800:
		return 8
	case elo < 1200:
		return 10
	case elo < 1600:
		return 12
	default:
		return 14
	}
}
