package engine

import (
	"context"
	"testing"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		line  string
		want  int
		valid bool
	}{
		{"info depth 10 seldepth 14 score cp 35 nodes 12345 pv e2e4", 35, true},
		{"info depth 12 score cp -120 nodes 999", -120, true},
		{"info depth 20 score mate 3 pv d8h4", mateScore, true},
		{"info depth 20 score mate -2", -mateScore, true},
		{"info depth 5 nodes 100 pv e2e4", 0, false},
		{"bestmove e2e4", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseScore(tt.line)
		if ok != tt.valid || got != tt.want {
			t.Errorf("parseScore(%q) = (%d, %v), want (%d, %v)", tt.line, got, ok, tt.want, tt.valid)
		}
	}
}

func TestEvaluate_Unavailable(t *testing.T) {
	e := &UCI{}
	if _, ok := e.Evaluate(context.Background(), "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 10); ok {
		t.Error("unstarted engine should report unavailability")
	}
}
