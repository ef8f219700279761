package score

import (
	"math"
	"testing"

	"github.com/articulab/speechgrade/internal/config"
)

func perfectClarity() ClarityMetrics {
	return ClarityMetrics{SNR: 15, HNR: 12, Entropy: 6, Confidence: 0.9, STOI: 0.95}
}

func TestCombinePerfectMatch(t *testing.T) {
	t.Parallel()

	s := NewCompositeScorer(config.DefaultScoring())
	m := perfectClarity()
	got := s.Combine(m, m, SimilarityResult{Embedding: 1, Text: 1})
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical clips with perfect similarity: got %v, want 1.0", got)
	}
}

func TestCombineDegradedSampleScoresLower(t *testing.T) {
	t.Parallel()

	s := NewCompositeScorer(config.DefaultScoring())
	ref := perfectClarity()
	sam := ref
	sam.SNR = ref.SNR / 2
	sam.Entropy = ref.Entropy * 2
	sim := SimilarityResult{Embedding: 0.8, Text: 0.8}

	full := s.Combine(ref, ref, sim)
	degraded := s.Combine(ref, sam, sim)
	if degraded >= full {
		t.Errorf("degraded sample should score lower: %v >= %v", degraded, full)
	}
}

func TestCombineIsFinite(t *testing.T) {
	t.Parallel()

	s := NewCompositeScorer(config.DefaultScoring())
	cases := []struct {
		name     string
		ref, sam ClarityMetrics
		sim      SimilarityResult
	}{
		{"all zero", ClarityMetrics{}, ClarityMetrics{}, SimilarityResult{}},
		{"negative reference", ClarityMetrics{SNR: -3, HNR: -1}, perfectClarity(), SimilarityResult{}},
		{"negative embedding", perfectClarity(), perfectClarity(), SimilarityResult{Embedding: -1, Text: 0}},
		{"nan reference", ClarityMetrics{SNR: math.NaN()}, perfectClarity(), SimilarityResult{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := s.Combine(tc.ref, tc.sam, tc.sim)
			if !isFinite(got) {
				t.Errorf("got non-finite index %v", got)
			}
		})
	}
}

func TestNormalizeRatio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		n, d float64
		want float64
	}{
		{"within range", 5, 10, 0.5},
		{"clipped at one", 20, 10, 1},
		{"negative numerator", -5, 10, 0},
		{"zero denominator", 5, 0, 0},
		{"negative denominator", 5, -10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeRatio(tc.n, tc.d); got != tc.want {
				t.Errorf("normalizeRatio(%v, %v) = %v, want %v", tc.n, tc.d, got, tc.want)
			}
		})
	}
}

func TestClassifyThresholds(t *testing.T) {
	t.Parallel()

	c := NewLevelClassifier(config.DefaultScoring())
	cases := []struct {
		index float64
		want  int
	}{
		{0.95, 1},
		{0.85, 1},
		{0.84, 2},
		{0.65, 2},
		{0.45, 3},
		{0.25, 4},
		{0.24, 5},
		{0.0, 5},
	}
	for _, tc := range cases {
		level, idx := c.Classify(tc.index, 1.0)
		if level != tc.want {
			t.Errorf("Classify(%v, 1.0) = level %d, want %d", tc.index, level, tc.want)
		}
		if idx != tc.index {
			t.Errorf("Classify(%v, 1.0) changed index to %v", tc.index, idx)
		}
	}
}

func TestClassifyLowTextCaps(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultScoring()
	c := NewLevelClassifier(cfg)

	level, idx := c.Classify(0.9, 0.28)
	if idx > cfg.Overrides.LowTextCap {
		t.Errorf("low text similarity should cap the index: got %v", idx)
	}
	if level <= 2 {
		t.Errorf("low text similarity should not allow level %d", level)
	}

	level, idx = c.Classify(0.9, 0.1)
	if idx > cfg.Overrides.VeryLowTextCap {
		t.Errorf("very low text similarity should cap the index: got %v", idx)
	}
	if level != 4 && level != 5 {
		t.Errorf("very low text similarity should force level 4 or 5, got %d", level)
	}
}

func TestClassifyGuardForcesDowngrade(t *testing.T) {
	t.Parallel()

	// Disable the index caps so the guard is the only protection left.
	cfg := config.DefaultScoring()
	cfg.Overrides.LowText = 0
	cfg.Overrides.VeryLowText = 0
	c := NewLevelClassifier(cfg)

	level, idx := c.Classify(0.95, 0.1)
	if level != cfg.Overrides.GuardLevel {
		t.Errorf("guard should force level %d, got %d", cfg.Overrides.GuardLevel, level)
	}
	if idx != cfg.Overrides.GuardIndex {
		t.Errorf("guard should force index %v, got %v", cfg.Overrides.GuardIndex, idx)
	}
}

func TestClassifyLevelAlwaysInRange(t *testing.T) {
	t.Parallel()

	c := NewLevelClassifier(config.DefaultScoring())
	for _, index := range []float64{-1, 0, 0.2, 0.25, 0.5, 0.85, 1, 2} {
		for _, text := range []float64{0, 0.1, 0.25, 0.5, 1} {
			level, idx := c.Classify(index, text)
			if level < 1 || level > 5 {
				t.Errorf("Classify(%v, %v) = level %d, out of range", index, text, level)
			}
			if !isFinite(idx) {
				t.Errorf("Classify(%v, %v) = non-finite index %v", index, text, idx)
			}
		}
	}
}
