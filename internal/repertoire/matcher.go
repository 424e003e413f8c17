package repertoire

import (
	"sort"

	"github.com/example/openingcoach/pkg/models"
)

// MatchResult is the outcome of matching a move sequence against one opening.
// Ephemeral: recomputed per move, never persisted.
type MatchResult struct {
	Opening       *models.Opening
	MatchDepth    int      // plies matched, always <= len(input)
	OnMainLine    bool     // every matched node had isMainLine set
	VariationName string   // deepest variation name seen along the walk
	MatchedMoves  []string // the UCI prefix that matched
	Node          *models.OpeningNode // node reached at MatchDepth
	Continuations []*models.OpeningNode
}

// Line returns the named line whose moves extend the matched prefix, if any
func (m *MatchResult) Line() *models.OpeningLine {
	var fallback *models.OpeningLine
	for i := range m.Opening.Lines {
		line := &m.Opening.Lines[i]
		if len(line.Moves) < m.MatchDepth {
			continue
		}
		matches := true
		for j, uci := range m.MatchedMoves {
			if line.Moves[j].UCI != uci {
				matches = false
				break
			}
		}
		if matches {
			if fallback == nil {
				fallback = line
			}
			// Prefer the main line among candidates
			if line.ParentLineID == "" {
				return line
			}
		}
	}
	return fallback
}

// Match walks the move sequence (UCI strings) against every opening tree and
// returns all openings that matched at least one ply, most specific first:
// deeper matches before shallower, matches that still have continuations
// before exhausted ones, main-line matches before off-main-line ones.
func (r *Repertoire) Match(moves []string) []MatchResult {
	var results []MatchResult

	for _, opening := range r.openings {
		result := walkOpening(opening, moves)
		if result.MatchDepth > 0 {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchDepth != b.MatchDepth {
			return a.MatchDepth > b.MatchDepth
		}
		aCont, bCont := len(a.Continuations) > 0, len(b.Continuations) > 0
		if aCont != bCont {
			return aCont
		}
		if a.OnMainLine != b.OnMainLine {
			return a.OnMainLine
		}
		return false
	})

	return results
}

// walkOpening matches one opening's tree against the move sequence
func walkOpening(opening *models.Opening, moves []string) MatchResult {
	node := opening.Tree
	result := MatchResult{
		Opening:    opening,
		OnMainLine: true,
		Node:       node,
	}

	for _, uci := range moves {
		child := node.ChildByUCI(uci)
		if child == nil {
			break
		}
		node = child
		result.MatchDepth++
		result.MatchedMoves = append(result.MatchedMoves, uci)
		result.Node = node
		if !node.IsMainLine {
			result.OnMainLine = false
		}
		// Variation names persist until a deeper node redefines them
		if node.VariationName != "" {
			result.VariationName = node.VariationName
		}
	}

	result.Continuations = node.Children
	return result
}

// Divergence finds the deepest ply at which some opening still had
// continuations for the given sequence. The bool result is false only for an
// empty sequence, where the divergence ply is absent rather than zero.
func (r *Repertoire) Divergence(moves []string) (int, bool) {
	if len(moves) == 0 {
		return 0, false
	}

	// Matchability is monotone over prefixes, so binary search for the
	// longest fully-matched prefix.
	lo, hi := 0, len(moves)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if r.anyFullMatch(moves[:mid]) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, true
}

// anyFullMatch reports whether any opening matches every ply of the prefix
func (r *Repertoire) anyFullMatch(prefix []string) bool {
	for _, opening := range r.openings {
		if walkOpening(opening, prefix).MatchDepth == len(prefix) {
			return true
		}
	}
	return false
}

// BookMovesAt drops the last move of the sequence and returns every recorded
// continuation at the resulting position across all openings, deduplicated by
// SAN. Nil for an empty sequence: with no move played there is no position
// behind it to look up.
func (r *Repertoire) BookMovesAt(moves []string) []models.MoveRef {
	if len(moves) == 0 {
		return nil
	}
	return r.ContinuationsAfter(moves[:len(moves)-1])
}

// ContinuationsAfter returns all recorded continuations once the full prefix
// has been matched, deduplicated by SAN across openings
func (r *Repertoire) ContinuationsAfter(prefix []string) []models.MoveRef {
	var continuations []models.MoveRef
	seen := make(map[string]bool)

	for _, opening := range r.openings {
		result := walkOpening(opening, prefix)
		if result.MatchDepth != len(prefix) {
			continue
		}
		for _, child := range result.Continuations {
			if child.Move == nil || seen[child.Move.SAN] {
				continue
			}
			seen[child.Move.SAN] = true
			continuations = append(continuations, *child.Move)
		}
	}
	return continuations
}
