package coach

import "testing"

func TestToleranceForELO(t *testing.T) {
	tests := []struct {
		elo  int
		want float64
	}{
		{400, 130},
		{1400, 50},
		{900, 90},
		{200, 130},  // clamped low
		{2000, 50},  // clamped high
	}
	for _, tt := range tests {
		if got := ToleranceForELO(tt.elo); got != tt.want {
			t.Errorf("ToleranceForELO(%d) = %v, want %v", tt.elo, got, tt.want)
		}
	}
}

func TestSoundness_Monotonic(t *testing.T) {
	for _, elo := range []int{500, 800, 1000, 1200} {
		prev := 101
		for _, loss := range []int{0, 10, 30, 50, 80, 120, 200, 300} {
			got := Soundness(loss, elo)
			if got > prev {
				t.Errorf("soundness increased at elo=%d loss=%d: %d > %d", elo, loss, got, prev)
			}
			if got < 0 || got > 100 {
				t.Errorf("soundness out of range: %d", got)
			}
			prev = got
		}
	}
}

func TestSoundness_PerfectAtZeroLoss(t *testing.T) {
	if got := Soundness(0, 1000); got != 100 {
		t.Errorf("Soundness(0) = %d, want 100", got)
	}
	if got := Soundness(-50, 1000); got != 100 {
		t.Errorf("Soundness(-50) = %d, want 100", got)
	}
}

func TestSoundness_BeginnersMoreForgiving(t *testing.T) {
	// The same loss should cost a 500-rated learner fewer points than a
	// 1200-rated one
	if low, high := Soundness(80, 500), Soundness(80, 1200); low <= high {
		t.Errorf("expected wider tolerance at lower ELO: got %d (500) vs %d (1200)", low, high)
	}
}

func TestDepthForELO(t *testing.T) {
	if DepthForELO(500) >= DepthForELO(1800) {
		t.Error("expected shallower depth for beginners")
	}
	for _, elo := range []int{100, 800, 1200, 1600, 2400} {
		d := DepthForELO(elo)
		if d < 6 || d > 20 {
			t.Errorf("DepthForELO(%d) = %d out of sane range", elo, d)
		}
	}
}
