package progression

import (
	"github.com/example/openingcoach/pkg/models"
)

// Per-phase promotion gates: the composite score the learner must reach and
// the minimum games played in the current phase.
type gate struct {
	minComposite float64
	minGames     int
}

var phaseGates = map[models.Phase]gate{
	models.PhaseLearningMainLine:  {minComposite: 60, minGames: 3},
	models.PhaseNaturalDeviations: {minComposite: 70, minGames: 5},
	models.PhaseWiderVariations:   {minComposite: 75, minGames: 8},
}

// Composite blends recent accuracy, win rate, and an experience ramp that
// saturates at ten games: 0.4*accuracy + 0.3*winRate*100 + 0.3*min(games/10,1)*100.
func Composite(p *models.LineProgress) float64 {
	experience := float64(p.GamesPlayed) / 10.0
	if experience > 1 {
		experience = 1
	}
	return 0.4*p.MeanAccuracy() + 0.3*p.WinRate()*100 + 0.3*experience*100
}

// RecordGame folds one finished game into a line's progress and applies the
// phase gate. At most one promotion happens per call, and phases never
// regress. Returns the phase held before the call and whether it advanced.
func RecordGame(p *models.LineProgress, accuracy float64, won bool) (models.Phase, bool) {
	previous := p.Phase

	p.GamesPlayed++
	if won {
		p.GamesWon++
	}
	p.RecordAccuracy(accuracy)

	if p.Phase >= models.PhaseFreePlay {
		return previous, false
	}

	g, ok := phaseGates[p.Phase]
	if !ok {
		return previous, false
	}
	if p.GamesPlayed >= g.minGames && Composite(p) >= g.minComposite {
		p.Phase++
		return previous, true
	}
	return previous, false
}

// CanPromote reports whether the line would pass its current gate without
// recording a new game
func CanPromote(p *models.LineProgress) bool {
	if p.Phase >= models.PhaseFreePlay {
		return false
	}
	g, ok := phaseGates[p.Phase]
	if !ok {
		return false
	}
	return p.GamesPlayed >= g.minGames && Composite(p) >= g.minComposite
}

// OverallPhase aggregates an opening's per-line progress into the single
// phase shown to the learner: the minimum phase across unlocked lines, so an
// opening is only as far along as its weakest studied line.
func OverallPhase(lines []models.LineProgress) models.Phase {
	phase := models.PhaseFreePlay
	seen := false
	for i := range lines {
		if !lines[i].Unlocked {
			continue
		}
		seen = true
		if lines[i].Phase < phase {
			phase = lines[i].Phase
		}
	}
	if !seen {
		return models.PhaseLearningMainLine
	}
	return phase
}

// UnlockNext marks child lines available once their parent reaches the
// natural-deviations phase. Returns the IDs of lines newly unlocked.
func UnlockNext(opening *models.Opening, progress map[string]*models.LineProgress) []string {
	var unlocked []string
	for _, line := range opening.Lines {
		p, tracked := progress[line.ID]
		if tracked && p.Unlocked {
			continue
		}

		if line.ParentLineID == "" {
			// Main line is always available
			if tracked {
				p.Unlocked = true
			}
			unlocked = append(unlocked, line.ID)
			continue
		}

		parent, ok := progress[line.ParentLineID]
		if !ok || !parent.Unlocked {
			continue
		}
		if parent.Phase >= models.PhaseNaturalDeviations {
			if tracked {
				p.Unlocked = true
			}
			unlocked = append(unlocked, line.ID)
		}
	}
	return unlocked
}
