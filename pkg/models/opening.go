package models

// MoveRef identifies a single chess move inside an opening tree
type MoveRef struct {
	UCI         string `json:"uci"`
	SAN         string `json:"san"`
	Explanation string `json:"explanation,omitempty"`
}

// OpeningNode represents one ply in a branching opening tree
type OpeningNode struct {
	ID            string         `json:"id"`
	Move          *MoveRef       `json:"move,omitempty"` // nil for the synthetic root
	IsMainLine    bool           `json:"isMainLine"`
	Weight        int            `json:"weight"` // relative play frequency, >= 0
	VariationName string         `json:"variationName,omitempty"`
	Children      []*OpeningNode `json:"children,omitempty"`
}

// ChildByUCI returns the child whose move matches the given UCI string
func (n *OpeningNode) ChildByUCI(uci string) *OpeningNode {
	for _, c := range n.Children {
		if c.Move != nil && c.Move.UCI == uci {
			return c
		}
	}
	return nil
}

// TotalChildWeight sums the weights of all continuations from this node
func (n *OpeningNode) TotalChildWeight() int {
	total := 0
	for _, c := range n.Children {
		total += c.Weight
	}
	return total
}

// StrategicGoal is one prioritized objective of an opening plan
type StrategicGoal struct {
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// PieceTarget describes where a piece wants to go in this opening
type PieceTarget struct {
	Piece        string   `json:"piece"`
	IdealSquares []string `json:"idealSquares"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// OpeningPlan holds the strategic plan the alignment judge scores against
type OpeningPlan struct {
	Summary             string          `json:"summary"`
	StrategicGoals      []StrategicGoal `json:"strategicGoals"`
	PawnStructureTarget string          `json:"pawnStructureTarget"`
	KeySquares          []string        `json:"keySquares"`
	PieceTargets        []PieceTarget   `json:"pieceTargets"`
	TypicalPlans        []string        `json:"typicalPlans"`
	CommonMistakes      []string        `json:"commonMistakes"`
	HistoricalNote      string          `json:"historicalNote,omitempty"`
}

// OpponentResponse catalogues one common reply the opponent may choose
type OpponentResponse struct {
	ID             string  `json:"id"`
	Move           MoveRef `json:"move"`
	Name           string  `json:"name"`
	ECO            string  `json:"eco,omitempty"`
	Frequency      float64 `json:"frequency"`
	Description    string  `json:"description"`
	PlanAdjustment string  `json:"planAdjustment"`
}

// OpeningLine is a named path from the root to a specific leaf
type OpeningLine struct {
	ID           string    `json:"id"`
	ParentLineID string    `json:"parentLineId,omitempty"`
	Name         string    `json:"name"`
	Moves        []MoveRef `json:"moves"`
}

// Opening represents one named repertoire entry
type Opening struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Color             string             `json:"color"` // "white" or "black"
	Difficulty        int                `json:"difficulty"` // 1-5
	Plan              OpeningPlan        `json:"plan"`
	Tree              *OpeningNode       `json:"tree,omitempty"`
	MainLine          []MoveRef          `json:"mainLine"` // flat fallback when no tree
	Lines             []OpeningLine      `json:"lines,omitempty"`
	OpponentResponses []OpponentResponse `json:"opponentResponses,omitempty"`
	Version           int                `json:"version,omitempty"`
}

// LearnerIsWhite reports whether the learner plays this opening as White
func (o *Opening) LearnerIsWhite() bool {
	return o.Color != "black"
}

// LearnerMovesAt reports whether the given ply belongs to the learner's side
func (o *Opening) LearnerMovesAt(ply int) bool {
	if o.LearnerIsWhite() {
		return ply%2 == 0
	}
	return ply%2 == 1
}
