// Package score holds the pronunciation scoring pipeline: text and
// acoustic similarity, clarity feature extraction, the composite index
// with level classification, and suggestion generation.
package score

import "math"

// ClarityMetrics carries the per-clip acoustic clarity features. All
// fields live on fixed scales so they can be compared ref-to-sample.
type ClarityMetrics struct {
	SNR        float64 `json:"snr"`
	HNR        float64 `json:"hnr"`
	Entropy    float64 `json:"entropy"`
	Confidence float64 `json:"conf"`
	STOI       float64 `json:"stoi"`
}

// DefaultClarity returns the fallback metrics used when a clip cannot
// be analyzed. HNR defaults to a neutral 5.0 dB rather than zero since
// zero already means "as much noise as harmonics".
func DefaultClarity() ClarityMetrics {
	return ClarityMetrics{HNR: 5.0}
}

// SimilarityResult pairs the two similarity estimates with the
// transcripts they were derived from. Embedding is a raw cosine and may
// be negative; Text is always in [0,1].
type SimilarityResult struct {
	Embedding     float64 `json:"emb"`
	Text          float64 `json:"text"`
	ReferenceText string  `json:"txt_ref"`
	SampleText    string  `json:"txt_sam"`
}

// Result is the full outcome of one analysis run.
type Result struct {
	Similarity    SimilarityResult `json:"similarity"`
	ClarityRef    ClarityMetrics   `json:"clarity_ref"`
	ClaritySample ClarityMetrics   `json:"clarity_sam"`
	Index         float64          `json:"index"`
	Level         int              `json:"level"`
	Suggestions   string           `json:"suggestions"`
	AnalysisTime  float64          `json:"analysis_time"`
	// Error is empty on success, including partial degradation. It is
	// only set when the whole pipeline failed and the result carries
	// nothing but defaults.
	Error string `json:"error,omitempty"`
}

// Degraded reports whether the result came from a total pipeline
// failure rather than a (possibly partial) analysis.
func (r *Result) Degraded() bool { return r.Error != "" }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
