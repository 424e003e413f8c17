package coach

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/notnil/chess"
)

// PieceRef is one piece+square claim extracted from judge text
type PieceRef struct {
	Piece  string // lowercase piece name
	Square string // lowercase algebraic square
}

var (
	refsLineRe     = regexp.MustCompile(`(?im)^[ \t]*REFS\s*[:=]\s*(.*)$`)
	coachingLineRe = regexp.MustCompile(`(?ims)^[ \t]*COACHING\s*[:=]\s*(.*)`)

	// Natural-language references: "bishop e5", "the knight on c3",
	// "white's pawn d4"
	pieceRefRe = regexp.MustCompile(
		`(?i)(?:(?:white|black)['\x{2019}]?s?\s+)?(?:the\s+|a\s+)?` +
			`(king|queen|rook|bishop|knight|pawn)(?:\s+on)?\s+([a-h][1-8])`)

	// SAN-style single-letter references: "Nf3", "Be5". Word boundaries,
	// not consuming groups: adjacent refs like "Nf3 Be5" must all match.
	sanRefRe = regexp.MustCompile(`\b([KQRBNP])([a-h][1-8])\b`)
)

var sanLetterToName = map[string]string{
	"K": "king", "Q": "queen", "R": "rook",
	"B": "bishop", "N": "knight", "P": "pawn",
}

var pieceNameToType = map[string]chess.PieceType{
	"king":   chess.King,
	"queen":  chess.Queen,
	"rook":   chess.Rook,
	"bishop": chess.Bishop,
	"knight": chess.Knight,
	"pawn":   chess.Pawn,
}

// ParseRefsCoaching splits a judge response into its REFS and COACHING
// sections. ok is false when either labeled line is missing.
func ParseRefsCoaching(response string) (refs, coaching string, ok bool) {
	if m := refsLineRe.FindStringSubmatch(response); m != nil {
		refs = strings.TrimSpace(m[1])
		ok = true
	}
	if m := coachingLineRe.FindStringSubmatch(response); m != nil {
		coaching = strings.TrimSpace(m[1])
	} else {
		ok = false
	}
	return refs, coaching, ok
}

// ExtractPieceRefs pulls every piece+square claim out of free text, both
// natural-language ("bishop on e5") and SAN-style ("Be5") forms, deduplicated
// in order of first appearance
func ExtractPieceRefs(text string) []PieceRef {
	var refs []PieceRef
	seen := make(map[PieceRef]bool)

	for _, m := range pieceRefRe.FindAllStringSubmatch(text, -1) {
		ref := PieceRef{Piece: strings.ToLower(m[1]), Square: strings.ToLower(m[2])}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for _, m := range sanRefRe.FindAllStringSubmatch(text, -1) {
		ref := PieceRef{Piece: sanLetterToName[m[1]], Square: strings.ToLower(m[2])}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// ValidateCoaching checks a structured judge response against the literal
// board state. Returns the coaching text and true when every referenced
// square holds the claimed piece; otherwise returns false so the caller can
// substitute a deterministic template. Empty or "none" refs are accepted.
func ValidateCoaching(response, fen string) (string, bool) {
	refs, coaching, ok := ParseRefsCoaching(response)
	if !ok || coaching == "" {
		return "", false
	}

	trimmed := strings.ToLower(strings.TrimSpace(refs))
	if trimmed == "" || trimmed == "none" {
		return coaching, true
	}

	board, err := boardFromFEN(fen)
	if err != nil {
		return "", false
	}

	claims := ExtractPieceRefs(refs)
	if len(claims) == 0 {
		// No parseable claims to verify
		return coaching, true
	}

	for _, claim := range claims {
		if !pieceAt(board, claim) {
			return "", false
		}
	}
	return coaching, true
}

// HallucinationScore grades reference accuracy 0-3 for diagnostics:
// 0 clean, 1 wrong piece type on an occupied square, 2 piece exists but on a
// different square, 3 phantom piece. Returns the worst score found.
func HallucinationScore(text, fen string) int {
	board, err := boardFromFEN(fen)
	if err != nil {
		return 0
	}

	worst := 0
	for _, ref := range ExtractPieceRefs(text) {
		pieceType, ok := pieceNameToType[ref.Piece]
		if !ok {
			continue
		}
		sq, ok := parseSquare(ref.Square)
		if !ok {
			continue
		}

		piece := board.Piece(sq)
		if piece != chess.NoPiece && piece.Type() == pieceType {
			continue
		}

		score := 0
		if piece != chess.NoPiece {
			// Occupied, but by a different piece type
			score = 1
		} else if pieceTypeOnBoard(board, pieceType) {
			score = 2
		} else {
			score = 3
		}
		if score > worst {
			worst = score
		}
	}
	return worst
}

// BoardSummary renders a human-readable piece listing for prompts, e.g.
// "White: King g1, Knight f3, Pawns e4 d2 ..."
func BoardSummary(fen string) string {
	board, err := boardFromFEN(fen)
	if err != nil {
		return fmt.Sprintf("Invalid FEN: %s", fen)
	}

	pieceOrder := []chess.PieceType{
		chess.King, chess.Queen, chess.Rook, chess.Bishop, chess.Knight, chess.Pawn,
	}

	var lines []string
	for _, side := range []struct {
		color chess.Color
		name  string
	}{{chess.White, "White"}, {chess.Black, "Black"}} {
		var segments []string
		for _, pt := range pieceOrder {
			squares := squaresOf(board, pt, side.color)
			if len(squares) == 0 {
				continue
			}
			name := pieceDisplayName(pt)
			if pt == chess.Pawn {
				segments = append(segments, "Pawns "+strings.Join(squares, " "))
			} else {
				for _, sq := range squares {
					segments = append(segments, name+" "+sq)
				}
			}
		}
		lines = append(lines, side.name+": "+strings.Join(segments, ", "))
	}
	return strings.Join(lines, "\n")
}

func boardFromFEN(fen string) (*chess.Board, error) {
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %v", err)
	}
	game := chess.NewGame(option)
	return game.Position().Board(), nil
}

// pieceAt reports whether the claimed piece type sits on the claimed square
func pieceAt(board *chess.Board, claim PieceRef) bool {
	pieceType, ok := pieceNameToType[claim.Piece]
	if !ok {
		return false
	}
	sq, ok := parseSquare(claim.Square)
	if !ok {
		return false
	}
	piece := board.Piece(sq)
	return piece != chess.NoPiece && piece.Type() == pieceType
}

func parseSquare(s string) (chess.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, false
	}
	return chess.Square(int(s[1]-'1')*8 + int(s[0]-'a')), true
}

func pieceTypeOnBoard(board *chess.Board, pt chess.PieceType) bool {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if piece := board.Piece(sq); piece != chess.NoPiece && piece.Type() == pt {
			return true
		}
	}
	return false
}

// squaresOf lists the squares holding a piece type for one color, file-major
func squaresOf(board *chess.Board, pt chess.PieceType, color chess.Color) []string {
	var squares []string
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece != chess.NoPiece && piece.Type() == pt && piece.Color() == color {
			squares = append(squares, sq.String())
		}
	}
	sort.Slice(squares, func(i, j int) bool {
		if squares[i][0] != squares[j][0] {
			return squares[i][0] < squares[j][0]
		}
		return squares[i][1] < squares[j][1]
	})
	return squares
}

func pieceDisplayName(pt chess.PieceType) string {
	switch pt {
	case chess.King:
		return "King"
	case chess.Queen:
		return "Queen"
	case chess.Rook:
		return "Rook"
	case chess.Bishop:
		return "Bishop"
	case chess.Knight:
		return "Knight"
	case chess.Pawn:
		return "Pawn"
	}
	return "Piece"
}
