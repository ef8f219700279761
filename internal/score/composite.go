package score

import "github.com/articulab/speechgrade/internal/config"

// embeddingFusion is the share of the fused similarity taken from the
// acoustic embedding; the rest comes from text similarity. An even
// split keeps either estimate from dominating the similarity slot.
const embeddingFusion = 0.5

// CompositeScorer folds the clarity ratios and similarity estimates
// into a single [0,1]-ish index using the configured weight vector.
type CompositeScorer struct {
	cfg config.ScoringConfig
}

func NewCompositeScorer(cfg config.ScoringConfig) CompositeScorer {
	return CompositeScorer{cfg: cfg}
}

// Combine computes the weighted composite index. Clarity metrics enter
// as sample-to-reference ratios, entropy inverted since lower entropy
// means cleaner speech.
func (s CompositeScorer) Combine(ref, sample ClarityMetrics, sim SimilarityResult) float64 {
	w := s.cfg.Weights
	idx := w.SNR*normalizeRatio(sample.SNR, ref.SNR) +
		w.HNR*normalizeRatio(sample.HNR, ref.HNR) +
		w.Entropy*normalizeRatio(ref.Entropy, sample.Entropy) +
		w.Confidence*normalizeRatio(sample.Confidence, ref.Confidence) +
		w.STOI*normalizeRatio(sample.STOI, ref.STOI) +
		w.Similarity*FuseSimilarity(sim) +
		w.Text*sim.Text
	if !isFinite(idx) {
		return 0
	}
	return idx
}

// FuseSimilarity blends the acoustic and text similarities into the
// single estimate the composite weight applies to.
func FuseSimilarity(sim SimilarityResult) float64 {
	return embeddingFusion*sim.Embedding + (1-embeddingFusion)*sim.Text
}

// normalizeRatio clips n/d to [0,1]. A non-positive reference value
// carries no usable scale, so the ratio degrades to zero.
func normalizeRatio(n, d float64) float64 {
	if d <= 0 {
		return 0
	}
	r := n / d
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// LevelClassifier maps a composite index to a 1..5 level, applying the
// low-text-similarity overrides that keep a fluent-sounding but wrong
// utterance from scoring well.
type LevelClassifier struct {
	cfg config.ScoringConfig
}

func NewLevelClassifier(cfg config.ScoringConfig) LevelClassifier {
	return LevelClassifier{cfg: cfg}
}

// Classify returns the level and the possibly capped index. Caps apply
// before the threshold lookup; the final guard reruns after it so a
// low-text result can never land on level 1 or 2.
func (c LevelClassifier) Classify(index, textSim float64) (int, float64) {
	o := c.cfg.Overrides
	if textSim < o.LowText {
		index = min(index, o.LowTextCap)
	}
	if textSim < o.VeryLowText {
		index = min(index, o.VeryLowTextCap)
	}
	level := c.levelFor(index)
	if textSim < o.GuardText && level <= 2 {
		level = o.GuardLevel
		index = o.GuardIndex
	}
	return level, index
}

func (c LevelClassifier) levelFor(index float64) int {
	l := c.cfg.Levels
	switch {
	case index >= l.Level1:
		return 1
	case index >= l.Level2:
		return 2
	case index >= l.Level3:
		return 3
	case index >= l.Level4:
		return 4
	default:
		return 5
	}
}
