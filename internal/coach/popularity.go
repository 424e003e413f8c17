package coach

// Popularity adjustments keyed by how often humans play the move in book.
// These shift the PES total by a small bounded delta, never dominating the
// soundness/alignment band.
const (
	PopularityNotInBook = -5
	PopularityTopMove   = 10
	PopularityTop3      = 5
	PopularityRare      = 2
)

// PopularityAdjustment converts a played move's book-weight rank and share
// into its bounded adjustment. rank is the move's 1-based position when
// continuations are ordered by weight descending; rank <= 0 means the move
// is not in book at all.
func PopularityAdjustment(rank int) int {
	switch {
	case rank <= 0:
		return PopularityNotInBook
	case rank == 1:
		return PopularityTopMove
	case rank <= 3:
		return PopularityTop3
	default:
		return PopularityRare
	}
}

// WeightRank finds the 1-based weight rank of the played move (by UCI) among
// the recorded continuations; 0 when absent
func WeightRank(playedUCI string, continuations []ContinuationWeight) int {
	rank := 0
	playedWeight := -1
	for _, c := range continuations {
		if c.UCI == playedUCI {
			playedWeight = c.Weight
			break
		}
	}
	if playedWeight < 0 {
		return 0
	}
	rank = 1
	for _, c := range continuations {
		if c.UCI != playedUCI && c.Weight > playedWeight {
			rank++
		}
	}
	return rank
}

// ContinuationWeight pairs a book continuation with its play frequency weight
type ContinuationWeight struct {
	UCI    string
	SAN    string
	Weight int
}
