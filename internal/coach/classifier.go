package coach

// MoveCategory labels one played move. Exactly one category applies per move;
// Deviation only ever applies to the non-learner side.
type MoveCategory int

const (
	GoodMove MoveCategory = iota
	OkayMove
	Mistake
	OpponentMove
	Deviation
)

// String returns the storage/display name for a category
func (c MoveCategory) String() string {
	switch c {
	case GoodMove:
		return "good_move"
	case OkayMove:
		return "okay_move"
	case Mistake:
		return "mistake"
	case OpponentMove:
		return "opponent_move"
	case Deviation:
		return "deviation"
	}
	return "unknown"
}

// okayMoveTolerance is the centipawn band around zero within which an
// off-book learner move is still acceptable
const okayMoveTolerance = 30

// Classify labels the just-played move. Pure function: identical inputs
// always yield identical output.
//
// bookSANs are the recorded continuations at the move's ply. scoreDelta is
// signed so that positive favors the learner.
func Classify(playedSAN string, isLearnerMove bool, scoreDelta int, bookSANs []string) MoveCategory {
	inBook := false
	for _, san := range bookSANs {
		if san == playedSAN {
			inBook = true
			break
		}
	}

	if !isLearnerMove {
		if !inBook {
			return Deviation
		}
		return OpponentMove
	}

	if inBook {
		return GoodMove
	}
	if scoreDelta >= -okayMoveTolerance && scoreDelta <= okayMoveTolerance {
		return OkayMove
	}
	return Mistake
}
