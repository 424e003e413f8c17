package repertoire

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/notnil/chess"

	"github.com/example/openingcoach/pkg/models"
)

// MinMainLinePlies is the minimum flat main line length for tree-less openings
const MinMainLinePlies = 6

// Repertoire is the immutable set of known openings, loaded once at startup.
// It is read-only shared state and safe for concurrent use after Load.
type Repertoire struct {
	openings []*models.Opening
	byID     map[string]*models.Opening
}

// Load reads every *.json opening file in dir and builds the repertoire
func Load(dir string) (*Repertoire, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read openings directory: %v", err)
	}

	var openings []*models.Opening
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		opening, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %v", entry.Name(), err)
		}
		openings = append(openings, opening)
	}

	if len(openings) == 0 {
		return nil, fmt.Errorf("no opening files found in %s", dir)
	}

	return New(openings)
}

// LoadFile reads and validates a single opening JSON file
func LoadFile(path string) (*models.Opening, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	var opening models.Opening
	if err := json.Unmarshal(data, &opening); err != nil {
		return nil, fmt.Errorf("failed to parse opening JSON: %v", err)
	}

	return &opening, nil
}

// New builds a repertoire from already-parsed openings, normalizing and
// validating each one
func New(openings []*models.Opening) (*Repertoire, error) {
	byID := make(map[string]*models.Opening, len(openings))
	for _, opening := range openings {
		if err := normalize(opening); err != nil {
			return nil, fmt.Errorf("opening %q: %v", opening.ID, err)
		}
		if _, exists := byID[opening.ID]; exists {
			return nil, fmt.Errorf("duplicate opening id %q", opening.ID)
		}
		byID[opening.ID] = opening
	}
	return &Repertoire{openings: openings, byID: byID}, nil
}

// Openings returns all loaded openings
func (r *Repertoire) Openings() []*models.Opening {
	return r.openings
}

// ByID returns the opening with the given id, or nil
func (r *Repertoire) ByID(id string) *models.Opening {
	return r.byID[id]
}

// normalize validates an opening and fills in derived structure: a tree
// synthesized from the flat main line when absent, and named lines walked
// from the tree when not provided.
func normalize(opening *models.Opening) error {
	if opening.ID == "" {
		return fmt.Errorf("missing id")
	}
	if opening.Difficulty < 1 || opening.Difficulty > 5 {
		return fmt.Errorf("difficulty %d out of range 1-5", opening.Difficulty)
	}
	if opening.Color != "white" && opening.Color != "black" {
		return fmt.Errorf("invalid color %q", opening.Color)
	}

	if opening.Tree == nil {
		if len(opening.MainLine) < MinMainLinePlies {
			return fmt.Errorf("main line has %d plies, need at least %d when no tree is present",
				len(opening.MainLine), MinMainLinePlies)
		}
		opening.Tree = treeFromMainLine(opening.ID, opening.MainLine)
	}

	if err := validateNode(opening.Tree, chess.NewGame()); err != nil {
		return err
	}

	if len(opening.Lines) == 0 {
		opening.Lines = linesFromTree(opening)
	}

	if len(opening.MainLine) == 0 {
		opening.MainLine = mainLineFromTree(opening.Tree)
	}

	return nil
}

// treeFromMainLine synthesizes a single-branch tree from a flat move list
func treeFromMainLine(openingID string, moves []models.MoveRef) *models.OpeningNode {
	root := &models.OpeningNode{
		ID:         openingID + "/root",
		IsMainLine: true,
	}
	node := root
	for i := range moves {
		move := moves[i]
		child := &models.OpeningNode{
			ID:         fmt.Sprintf("%s/%s", node.ID, move.UCI),
			Move:       &move,
			IsMainLine: true,
			Weight:     1,
		}
		node.Children = []*models.OpeningNode{child}
		node = child
	}
	return root
}

// validateNode checks tree invariants and replays every branch to confirm
// each recorded move is legal from its position
func validateNode(node *models.OpeningNode, game *chess.Game) error {
	if node.Weight < 0 {
		return fmt.Errorf("node %s: negative weight %d", node.ID, node.Weight)
	}

	seen := make(map[string]bool, len(node.Children))
	for _, child := range node.Children {
		if child.Move == nil {
			return fmt.Errorf("node %s: child %s has no move", node.ID, child.ID)
		}
		if seen[child.Move.UCI] {
			return fmt.Errorf("node %s: duplicate child move %s", node.ID, child.Move.UCI)
		}
		seen[child.Move.UCI] = true

		branch := game.Clone()
		if err := applyUCI(branch, child.Move.UCI); err != nil {
			return fmt.Errorf("node %s: illegal move %s: %v", child.ID, child.Move.UCI, err)
		}
		if err := validateNode(child, branch); err != nil {
			return err
		}
	}
	return nil
}

// applyUCI pushes a single UCI move onto the game
func applyUCI(game *chess.Game, uci string) error {
	for _, move := range game.ValidMoves() {
		if move.String() == uci {
			return game.Move(move)
		}
	}
	return fmt.Errorf("no legal move %s in position", uci)
}

// linesFromTree derives a named OpeningLine for every leaf of the tree.
// The line name is the deepest variation name seen on the path, falling
// back to the opening's own name for the main line.
func linesFromTree(opening *models.Opening) []models.OpeningLine {
	var lines []models.OpeningLine
	var mainLineID string

	var walk func(node *models.OpeningNode, path []models.MoveRef, name string, mainline bool)
	walk = func(node *models.OpeningNode, path []models.MoveRef, name string, mainline bool) {
		if node.Move != nil {
			path = append(path, *node.Move)
		}
		if node.VariationName != "" {
			name = node.VariationName
		}
		mainline = mainline && node.IsMainLine

		if len(node.Children) == 0 {
			lineName := name
			if lineName == "" {
				if mainline {
					lineName = opening.Name + " Main Line"
				} else {
					lineName = opening.Name + " Sideline"
				}
			}
			moves := make([]models.MoveRef, len(path))
			copy(moves, path)
			line := models.OpeningLine{
				ID:    node.ID,
				Name:  lineName,
				Moves: moves,
			}
			if mainline && mainLineID == "" {
				mainLineID = node.ID
			} else {
				line.ParentLineID = mainLineID
			}
			lines = append(lines, line)
			return
		}
		for _, child := range node.Children {
			walk(child, path, name, mainline)
		}
	}

	walk(opening.Tree, nil, "", true)
	return lines
}

// mainLineFromTree extracts the flat main line by following isMainLine children
func mainLineFromTree(root *models.OpeningNode) []models.MoveRef {
	var moves []models.MoveRef
	node := root
	for len(node.Children) > 0 {
		next := node.Children[0]
		for _, child := range node.Children {
			if child.IsMainLine {
				next = child
				break
			}
		}
		moves = append(moves, *next.Move)
		node = next
	}
	return moves
}
