package coach

import (
	"strings"
	"testing"
)

func TestBuildAlignmentPrompt_IncludesBookHints(t *testing.T) {
	prompt := BuildAlignmentPrompt(bookContext())

	if !strings.Contains(prompt, "ENGINE DATA:") {
		t.Fatal("prompt missing ENGINE DATA block")
	}
	if !strings.Contains(prompt, "Book-preferred move: Bc4") {
		t.Errorf("prompt should name Bc4 as the book-preferred move:\n%s", prompt)
	}
	if !strings.Contains(prompt, "is a recorded book continuation") {
		t.Errorf("book move should be flagged as a recorded continuation:\n%s", prompt)
	}
}

func TestBuildAlignmentPrompt_OffBookMove(t *testing.T) {
	prompt := BuildAlignmentPrompt(offBookContext())

	if !strings.Contains(prompt, "is not a recorded book continuation") {
		t.Errorf("off-book move should be flagged as unrecorded:\n%s", prompt)
	}
}

func TestEngineHintBlock_NoContinuations(t *testing.T) {
	mc := bookContext()
	mc.Continuations = nil

	if got := engineHintBlock(mc); !strings.Contains(got, "No pre-computed analysis") {
		t.Errorf("engineHintBlock = %q, want fallback text", got)
	}
}
