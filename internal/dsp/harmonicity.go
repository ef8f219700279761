package dsp

import (
	"fmt"
	"math"
)

// UnvoicedHNR is the sentinel emitted for frames where no periodic component
// is detected, matching the convention of Praat-style harmonicity analysis.
// Consumers must filter it out before averaging.
const UnvoicedHNR = -200.0

// Harmonicity analysis parameters. Frames are 40 ms with 10 ms hop; the pitch
// search range covers typical speech (60–500 Hz).
const (
	hnrFrameMs    = 40
	hnrHopMs      = 10
	hnrMinPitchHz = 60
	hnrMaxPitchHz = 500

	// voicingThreshold is the minimum normalised autocorrelation peak for a
	// frame to count as voiced.
	voicingThreshold = 0.30
)

// HarmonicityTrack computes a per-frame harmonics-to-noise ratio (dB) using
// short-time normalised autocorrelation. Unvoiced or silent frames yield
// UnvoicedHNR; numerically degenerate frames may yield NaN. Fails if the clip
// is shorter than one analysis frame.
func HarmonicityTrack(samples []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dsp: invalid sample rate %d", sampleRate)
	}
	frameLen := sampleRate * hnrFrameMs / 1000
	hop := sampleRate * hnrHopMs / 1000
	if frameLen <= 0 || hop <= 0 || len(samples) < frameLen {
		return nil, fmt.Errorf("dsp: clip shorter than one %d ms analysis frame", hnrFrameMs)
	}

	minLag := sampleRate / hnrMaxPitchHz
	maxLag := sampleRate / hnrMinPitchHz
	if maxLag >= frameLen {
		maxLag = frameLen - 1
	}
	if minLag < 1 {
		minLag = 1
	}

	var track []float64
	for start := 0; start+frameLen <= len(samples); start += hop {
		frame := samples[start : start+frameLen]
		r := peakAutocorrelation(frame, minLag, maxLag)
		if r < voicingThreshold {
			track = append(track, UnvoicedHNR)
			continue
		}
		if r >= 1 {
			// Perfectly periodic within float precision; cap rather than
			// emitting +Inf.
			r = 1 - 1e-12
		}
		track = append(track, 10*math.Log10(r/(1-r)))
	}
	return track, nil
}

// peakAutocorrelation returns the maximum normalised autocorrelation of frame
// over lags [minLag, maxLag]. Returns 0 for silent frames.
func peakAutocorrelation(frame []float64, minLag, maxLag int) float64 {
	var energy float64
	var mean float64
	for _, s := range frame {
		mean += s
	}
	mean /= float64(len(frame))

	centered := make([]float64, len(frame))
	for i, s := range frame {
		centered[i] = s - mean
		energy += centered[i] * centered[i]
	}
	if energy <= 1e-12 {
		return 0
	}

	best := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var acc float64
		for i := 0; i+lag < len(centered); i++ {
			acc += centered[i] * centered[i+lag]
		}
		if r := acc / energy; r > best {
			best = r
		}
	}
	return best
}
