package quiz

import (
	"math/rand"
	"testing"

	"github.com/example/openingcoach/pkg/models"
)

func TestAnswerMatches(t *testing.T) {
	tests := []struct {
		expected string
		answer   string
		want     bool
	}{
		{"Bc4", "Bc4", true},
		{"Bc4", " Bc4 ", true},
		{"Nf3", "Nf3!", true},
		{"Qxf7#", "Qf7", true},
		{"O-O", "0-0", true},
		{"Bc4", "Bb5", false},
		{"e4", "e5", false},
	}
	for _, tt := range tests {
		if got := AnswerMatches(tt.expected, tt.answer); got != tt.want {
			t.Errorf("AnswerMatches(%q, %q) = %v, want %v", tt.expected, tt.answer, got, tt.want)
		}
	}
}

func TestBuildOptions(t *testing.T) {
	item := models.ReviewItem{
		ID:          1,
		FEN:         "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		ExpectedSAN: "Bc4",
	}

	rnd := rand.New(rand.NewSource(1))
	options, correct, err := buildOptions(item, rnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(options) != 4 {
		t.Fatalf("options = %v, want 4 entries", options)
	}
	if options[correct] != "Bc4" {
		t.Errorf("options[%d] = %q, want Bc4", correct, options[correct])
	}

	seen := make(map[string]bool)
	for _, o := range options {
		if seen[o] {
			t.Errorf("duplicate option %q", o)
		}
		seen[o] = true
	}
}

func TestBuildOptions_BadFEN(t *testing.T) {
	item := models.ReviewItem{ID: 2, FEN: "broken", ExpectedSAN: "e4"}
	if _, _, err := buildOptions(item, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for invalid FEN")
	}
}
