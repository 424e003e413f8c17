package coach

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/openingcoach/pkg/models"
)

// AlignmentReply is the decoded judge response for one alignment request
type AlignmentReply struct {
	Alignment int
	Reasoning string
	Rubric    *models.AlignmentRubric
}

var (
	fencedJSONRe    = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")
	thinkCloseRe    = regexp.MustCompile(`(?s)</think>\s*`)
	alignmentNumRe  = regexp.MustCompile(`"?alignment"?\s*[:=]\s*"?(\d{1,3})`)
	reasoningTextRe = regexp.MustCompile(`"?reasoning"?\s*[:=]\s*"((?:[^"\\]|\\.)*)"`)
	bareTrueRe      = regexp.MustCompile(`\bTrue\b`)
	bareFalseRe     = regexp.MustCompile(`\bFalse\b`)
	bareEnumRe      = regexp.MustCompile(`(:\s*)(positive|negative|neutral)(\s*[,}])`)
)

// DecodeAlignment extracts an alignment score and reasoning from raw judge
// output. The chain, in order: fenced JSON, outermost brace span with common
// malformations repaired, then a regex salvage of just the alignment number
// and reasoning string. Returns false only when nothing usable was found.
func DecodeAlignment(raw string) (AlignmentReply, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return AlignmentReply{}, false
	}

	// Ignore any thinking preamble
	if loc := thinkCloseRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
	}

	// Fenced JSON first
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if reply, ok := decodeAlignmentJSON(m[1]); ok {
			return reply, true
		}
	}

	// Outermost { ... } span
	if span := outermostBraceSpan(text); span != "" {
		if reply, ok := decodeAlignmentJSON(span); ok {
			return reply, true
		}
		if reply, ok := decodeAlignmentJSON(repairJSON(span)); ok {
			return reply, true
		}
	}

	// Whole text as JSON, repaired
	if reply, ok := decodeAlignmentJSON(repairJSON(text)); ok {
		return reply, true
	}

	// Regex salvage
	if m := alignmentNumRe.FindStringSubmatch(text); m != nil {
		score, _ := strconv.Atoi(m[1])
		reply := AlignmentReply{Alignment: clampScore(score)}
		if rm := reasoningTextRe.FindStringSubmatch(text); rm != nil {
			reply.Reasoning = unescapeJSONString(rm[1])
		}
		return reply, true
	}

	return AlignmentReply{}, false
}

// decodeAlignmentJSON parses one candidate JSON document
func decodeAlignmentJSON(candidate string) (AlignmentReply, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return AlignmentReply{}, false
	}

	var parsed struct {
		Alignment interface{} `json:"alignment"`
		Reasoning string      `json:"reasoning"`
		Rubric    *struct {
			Development   bool   `json:"development"`
			PawnStructure bool   `json:"pawnStructure"`
			StrategicGoal bool   `json:"strategicGoal"`
			KingSafety    string `json:"kingSafety"`
		} `json:"rubric"`
	}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return AlignmentReply{}, false
	}

	score, ok := coerceScore(parsed.Alignment)
	if !ok {
		return AlignmentReply{}, false
	}

	reply := AlignmentReply{
		Alignment: clampScore(score),
		Reasoning: strings.TrimSpace(parsed.Reasoning),
	}
	if parsed.Rubric != nil {
		reply.Rubric = &models.AlignmentRubric{
			Development:   parsed.Rubric.Development,
			PawnStructure: parsed.Rubric.PawnStructure,
			StrategicGoal: parsed.Rubric.StrategicGoal,
			KingSafety:    coerceKingSafety(parsed.Rubric.KingSafety),
		}
	}
	return reply, true
}

// coerceScore accepts numbers or numeric strings for the alignment value
func coerceScore(v interface{}) (int, bool) {
	switch s := v.(type) {
	case float64:
		return int(s), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func coerceKingSafety(s string) models.KingSafety {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return models.KingSafetyPositive
	case "negative":
		return models.KingSafetyNegative
	default:
		return models.KingSafetyNeutral
	}
}

// outermostBraceSpan returns the first balanced top-level {...} span
func outermostBraceSpan(text string) string {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, ch := range text {
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				return text[start : i+1]
			}
			if depth < 0 {
				depth = 0
			}
		}
	}
	return ""
}

// repairJSON fixes the malformations small judges actually produce: Python
// capitalization of booleans, unquoted kingSafety enum values, and stray
// trailing braces past the balanced span.
func repairJSON(candidate string) string {
	s := bareTrueRe.ReplaceAllString(candidate, "true")
	s = bareFalseRe.ReplaceAllString(s, "false")
	s = bareEnumRe.ReplaceAllString(s, `$1"$2"$3`)

	// Trim stray trailing braces beyond balance
	depth := 0
	end := len(s)
	for i, ch := range s {
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i + 1
			}
			if depth < 0 {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return strings.TrimSpace(s[:end])
}

func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
