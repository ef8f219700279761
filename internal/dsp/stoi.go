package dsp

import (
	"errors"
	"math"
)

// Short-time objective intelligibility parameters: 32 ms Hann frames with 50%
// overlap, 15 one-third-octave bands starting at 150 Hz, and 30-frame
// (≈480 ms) analysis segments.
const (
	stoiWindowSize = 512
	stoiHopSize    = 256
	stoiBands      = 15
	stoiBandLowHz  = 150.0
	stoiSegFrames  = 30
)

// STOI computes a short-time objective intelligibility index between a clean
// reference signal and a degraded signal of the same length, in [0, 1].
// Identical inputs score ~1.0, which makes the self-comparison variant a
// clip-quality sanity check rather than a relative measure.
func STOI(clean, degraded []float64, sampleRate int) (float64, error) {
	if len(clean) != len(degraded) {
		return 0, errors.New("dsp: stoi inputs must have equal length")
	}
	if sampleRate <= 0 {
		return 0, errors.New("dsp: stoi requires a positive sample rate")
	}

	window := Hann(stoiWindowSize)
	specClean, err := STFT(clean, stoiWindowSize, stoiHopSize, window)
	if err != nil {
		return 0, err
	}
	specDeg, err := STFT(degraded, stoiWindowSize, stoiHopSize, window)
	if err != nil {
		return 0, err
	}

	bands := thirdOctaveBands(stoiWindowSize/2+1, sampleRate)
	envClean := bandEnvelopes(specClean, bands)
	envDeg := bandEnvelopes(specDeg, bands)

	frames := len(envClean)
	if frames < stoiSegFrames {
		return 0, errors.New("dsp: stoi input too short for one analysis segment")
	}

	var sum float64
	var count int
	for seg := 0; seg+stoiSegFrames <= frames; seg += stoiSegFrames {
		for b := range stoiBands {
			x := make([]float64, stoiSegFrames)
			y := make([]float64, stoiSegFrames)
			for t := range stoiSegFrames {
				x[t] = envClean[seg+t][b]
				y[t] = envDeg[seg+t][b]
			}
			if r, ok := correlation(x, y); ok {
				sum += r
				count++
			}
		}
	}
	if count == 0 {
		return 0, errors.New("dsp: stoi found no bands with signal energy")
	}

	score := sum / float64(count)
	// Negative correlations carry no intelligibility information.
	return math.Max(0, math.Min(1, score)), nil
}

// thirdOctaveBands returns, per band, the FFT bin range [lo, hi) covering 15
// one-third-octave bands starting at stoiBandLowHz.
func thirdOctaveBands(nBins, sampleRate int) [][2]int {
	binHz := float64(sampleRate) / 2 / float64(nBins-1)
	bands := make([][2]int, stoiBands)
	for b := range stoiBands {
		cf := stoiBandLowHz * math.Pow(2, float64(b)/3)
		loHz := cf / math.Pow(2, 1.0/6)
		hiHz := cf * math.Pow(2, 1.0/6)
		lo := int(math.Ceil(loHz / binHz))
		hi := int(math.Ceil(hiHz / binHz))
		if lo < 0 {
			lo = 0
		}
		if hi > nBins {
			hi = nBins
		}
		if hi <= lo {
			hi = lo + 1
		}
		bands[b] = [2]int{lo, hi}
	}
	return bands
}

// bandEnvelopes reduces a time-major magnitude spectrogram to per-frame
// one-third-octave band magnitudes (root of summed band power).
func bandEnvelopes(spec [][]float64, bands [][2]int) [][]float64 {
	env := make([][]float64, len(spec))
	for t, frame := range spec {
		row := make([]float64, len(bands))
		for b, rng := range bands {
			var acc float64
			for bin := rng[0]; bin < rng[1] && bin < len(frame); bin++ {
				acc += frame[bin] * frame[bin]
			}
			row[b] = math.Sqrt(acc)
		}
		env[t] = row
	}
	return env
}

// correlation returns the Pearson correlation of x and y. ok is false when
// either sequence has no variance (e.g. digital silence in a band).
func correlation(x, y []float64) (float64, bool) {
	n := float64(len(x))
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= n
	my /= n

	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx <= 1e-20 || syy <= 1e-20 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}
