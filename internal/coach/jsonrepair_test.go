package coach

import "testing"

func TestDecodeAlignment_CleanJSON(t *testing.T) {
	raw := `{"alignment": 85, "reasoning": "Develops the bishop toward its ideal diagonal.", ` +
		`"rubric": {"development": true, "pawnStructure": true, "strategicGoal": true, "kingSafety": "neutral"}}`

	reply, ok := DecodeAlignment(raw)
	if !ok {
		t.Fatal("expected successful decode")
	}
	if reply.Alignment != 85 {
		t.Errorf("alignment = %d, want 85", reply.Alignment)
	}
	if reply.Rubric == nil || !reply.Rubric.Development {
		t.Errorf("rubric = %+v", reply.Rubric)
	}
}

func TestDecodeAlignment_FencedJSON(t *testing.T) {
	raw := "Here is my assessment:\n```json\n{\"alignment\": 72, \"reasoning\": \"Good central control.\"}\n```"
	reply, ok := DecodeAlignment(raw)
	if !ok || reply.Alignment != 72 {
		t.Fatalf("reply = %+v ok=%v", reply, ok)
	}
}

func TestDecodeAlignment_SurroundingProse(t *testing.T) {
	raw := `Sure! {"alignment": 60, "reasoning": "Reasonable but passive."} Hope that helps.`
	reply, ok := DecodeAlignment(raw)
	if !ok || reply.Alignment != 60 {
		t.Fatalf("reply = %+v ok=%v", reply, ok)
	}
}

func TestDecodeAlignment_RepairsPythonBooleans(t *testing.T) {
	raw := `{"alignment": 55, "reasoning": "ok", "rubric": {"development": True, "pawnStructure": False, "strategicGoal": True, "kingSafety": "neutral"}}`
	reply, ok := DecodeAlignment(raw)
	if !ok {
		t.Fatal("expected repair to succeed")
	}
	if reply.Rubric == nil || !reply.Rubric.Development || reply.Rubric.PawnStructure {
		t.Errorf("rubric = %+v", reply.Rubric)
	}
}

func TestDecodeAlignment_RepairsUnquotedEnum(t *testing.T) {
	raw := `{"alignment": 40, "reasoning": "risky", "rubric": {"development": false, "pawnStructure": false, "strategicGoal": false, "kingSafety": negative}}`
	reply, ok := DecodeAlignment(raw)
	if !ok {
		t.Fatal("expected repair to succeed")
	}
	if reply.Rubric == nil || reply.Rubric.KingSafety != "negative" {
		t.Errorf("rubric = %+v", reply.Rubric)
	}
}

func TestDecodeAlignment_StrayTrailingBrace(t *testing.T) {
	raw := `{"alignment": 66, "reasoning": "fine"}}`
	reply, ok := DecodeAlignment(raw)
	if !ok || reply.Alignment != 66 {
		t.Fatalf("reply = %+v ok=%v", reply, ok)
	}
}

func TestDecodeAlignment_RegexSalvage(t *testing.T) {
	// Broken JSON that still contains the fields
	raw := `alignment: 47, "reasoning": "Blocks your own bishop." and some trailing junk`
	reply, ok := DecodeAlignment(raw)
	if !ok {
		t.Fatal("expected regex salvage")
	}
	if reply.Alignment != 47 {
		t.Errorf("alignment = %d, want 47", reply.Alignment)
	}
	if reply.Reasoning != "Blocks your own bishop." {
		t.Errorf("reasoning = %q", reply.Reasoning)
	}
}

func TestDecodeAlignment_ThinkingPreamble(t *testing.T) {
	raw := "<think>Let me look at the pawn structure...</think>\n{\"alignment\": 90, \"reasoning\": \"Textbook development.\"}"
	reply, ok := DecodeAlignment(raw)
	if !ok || reply.Alignment != 90 {
		t.Fatalf("reply = %+v ok=%v", reply, ok)
	}
}

func TestDecodeAlignment_Clamps(t *testing.T) {
	reply, ok := DecodeAlignment(`{"alignment": 250, "reasoning": "x"}`)
	if !ok || reply.Alignment != 100 {
		t.Fatalf("reply = %+v ok=%v", reply, ok)
	}
}

func TestDecodeAlignment_TotalFailure(t *testing.T) {
	for _, raw := range []string{"", "   ", "no numbers here at all", "<think>only thinking</think>"} {
		if _, ok := DecodeAlignment(raw); ok {
			t.Errorf("expected failure for %q", raw)
		}
	}
}
