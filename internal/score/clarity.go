package score

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/articulab/speechgrade/internal/config"
	"github.com/articulab/speechgrade/internal/dsp"
	"github.com/articulab/speechgrade/internal/observe"
	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/asr"
)

// FeatureExtractor computes the per-clip clarity metrics. Each metric
// is computed independently: when one fails only that field keeps its
// default and the others come out as usual.
type FeatureExtractor struct {
	cfg     config.ScoringConfig
	metrics *observe.Metrics
}

func NewFeatureExtractor(cfg config.ScoringConfig, metrics *observe.Metrics) *FeatureExtractor {
	return &FeatureExtractor{cfg: cfg, metrics: metrics}
}

// Extract computes clarity metrics for a clip. The transcription is
// only used for the recognizer confidence metric and may be nil, in
// which case confidence stays at its zero default.
func (e *FeatureExtractor) Extract(ctx context.Context, clip *audio.Clip, tr *asr.Transcription) ClarityMetrics {
	m := DefaultClarity()
	if clip == nil || len(clip.Samples) == 0 {
		return m
	}
	m.SNR = guard(ctx, e.metrics, stageSNR, m.SNR, func() (float64, error) {
		return signalToNoise(clip.Samples)
	})
	m.HNR = guard(ctx, e.metrics, stageHNR, m.HNR, func() (float64, error) {
		return e.harmonicity(clip)
	})
	m.Entropy = guard(ctx, e.metrics, stageEntropy, m.Entropy, func() (float64, error) {
		return spectralEntropy(clip.Samples)
	})
	m.Confidence = guard(ctx, e.metrics, stageConfidence, m.Confidence, func() (float64, error) {
		return recognizerConfidence(tr), nil
	})
	m.STOI = guard(ctx, e.metrics, stageSTOI, m.STOI, func() (float64, error) {
		// Self-comparison. A clean recording stays near 1, heavy
		// distortion and dropouts pull the per-band correlations down.
		return dsp.STOI(clip.Samples, clip.Samples, clip.SampleRate)
	})
	return m
}

// signalToNoise estimates SNR in dB against a noise floor taken as the
// 10th percentile of the absolute amplitude.
func signalToNoise(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, errors.New("empty clip")
	}
	var power float64
	abs := make([]float64, len(samples))
	for i, s := range samples {
		power += s * s
		abs[i] = math.Abs(s)
	}
	power /= float64(len(samples))
	floor := percentile(abs, 0.10)
	snr := 10 * math.Log10(power/(floor*floor+1e-6))
	if !isFinite(snr) {
		return 0, errors.New("non-finite snr")
	}
	return snr, nil
}

// harmonicity averages the voiced-frame HNR track. Frames the tracker
// marks unvoiced are dropped, and an average outside the plausible
// range configured for speech falls back to the neutral default.
func (e *FeatureExtractor) harmonicity(clip *audio.Clip) (float64, error) {
	track, err := dsp.HarmonicityTrack(clip.Samples, clip.SampleRate)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for _, v := range track {
		if v == dsp.UnvoicedHNR || math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return DefaultClarity().HNR, nil
	}
	mean := sum / float64(n)
	if mean < e.cfg.HNRMin || mean > e.cfg.HNRMax {
		return DefaultClarity().HNR, nil
	}
	return mean, nil
}

// spectralEntropy is the Shannon entropy of the normalized magnitude
// spectrum. Pure tones score near zero, broadband noise scores high.
// The clip is Hamming-windowed before the FFT to limit leakage.
func spectralEntropy(samples []float64) (float64, error) {
	windowed := make([]float64, len(samples))
	win := dsp.Hamming(len(samples))
	for i, s := range samples {
		windowed[i] = s * win[i]
	}
	mag, err := dsp.Magnitude(windowed)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range mag {
		total += v
	}
	var h float64
	for _, v := range mag {
		p := v / (total + 1e-12)
		h -= p * math.Log2(p+1e-12)
	}
	if !isFinite(h) {
		return 0, errors.New("non-finite entropy")
	}
	return h, nil
}

// recognizerConfidence prefers per-word confidences. When the
// recognizer emits none it falls back to a logistic squash of the
// per-segment average log-probability, and to zero with no segments.
func recognizerConfidence(tr *asr.Transcription) float64 {
	if tr == nil || len(tr.Segments) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, seg := range tr.Segments {
		for _, w := range seg.Words {
			sum += w.Confidence
			n++
		}
	}
	if n > 0 {
		return sum / float64(n)
	}
	for _, seg := range tr.Segments {
		sum += 1.0 / (1.0 + math.Exp(-seg.AvgLogProb))
	}
	return sum / float64(len(tr.Segments))
}

// percentile returns the q-quantile (q in [0,1]) of values using linear
// interpolation between closest ranks. values is not modified.
func percentile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
