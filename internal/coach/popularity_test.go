package coach

import "testing"

func TestPopularityAdjustment(t *testing.T) {
	tests := []struct {
		rank int
		want int
	}{
		{0, PopularityNotInBook},
		{-1, PopularityNotInBook},
		{1, PopularityTopMove},
		{2, PopularityTop3},
		{3, PopularityTop3},
		{4, PopularityRare},
		{9, PopularityRare},
	}
	for _, tt := range tests {
		if got := PopularityAdjustment(tt.rank); got != tt.want {
			t.Errorf("PopularityAdjustment(%d) = %d, want %d", tt.rank, got, tt.want)
		}
	}
}

func TestWeightRank(t *testing.T) {
	conts := []ContinuationWeight{
		{UCI: "g1f3", SAN: "Nf3", Weight: 60},
		{UCI: "f1c4", SAN: "Bc4", Weight: 25},
		{UCI: "b1c3", SAN: "Nc3", Weight: 10},
		{UCI: "d2d3", SAN: "d3", Weight: 5},
	}

	tests := []struct {
		uci  string
		want int
	}{
		{"g1f3", 1},
		{"f1c4", 2},
		{"b1c3", 3},
		{"d2d3", 4},
		{"e2e4", 0},
	}
	for _, tt := range tests {
		if got := WeightRank(tt.uci, conts); got != tt.want {
			t.Errorf("WeightRank(%q) = %d, want %d", tt.uci, got, tt.want)
		}
	}
}

func TestWeightRank_TiedWeights(t *testing.T) {
	conts := []ContinuationWeight{
		{UCI: "g1f3", Weight: 50},
		{UCI: "f1c4", Weight: 50},
	}
	// Ties share the top rank: neither is strictly outweighed
	if got := WeightRank("f1c4", conts); got != 1 {
		t.Errorf("tied WeightRank = %d, want 1", got)
	}
}

func TestWeightRank_Empty(t *testing.T) {
	if got := WeightRank("e2e4", nil); got != 0 {
		t.Errorf("WeightRank on nil = %d, want 0", got)
	}
}
