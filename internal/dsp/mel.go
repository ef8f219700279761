package dsp

import (
	"fmt"
	"math"
)

// Log-mel parameters matching Whisper-family feature extraction at 16 kHz.
const (
	MelWindowSize = 400
	MelHopSize    = 160
	MelBands      = 80
)

// LogMelSpectrogram computes a time-major log-mel spectrogram
// (mel[frame][band]) with MelBands bands, suitable as encoder input for
// Whisper-style acoustic models. Values are log10 power, floored 8 dB below
// the clip maximum and rescaled the way Whisper does.
func LogMelSpectrogram(samples []float64, sampleRate int) ([][]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dsp: invalid sample rate %d", sampleRate)
	}
	stft, err := STFT(samples, MelWindowSize, MelHopSize, Hann(MelWindowSize))
	if err != nil {
		return nil, fmt.Errorf("dsp: mel stft: %w", err)
	}

	bins := MelWindowSize/2 + 1
	bank := melFilterBank(MelBands, bins, sampleRate)

	mel := make([][]float64, len(stft))
	maxVal := math.Inf(-1)
	for t, frame := range stft {
		row := make([]float64, MelBands)
		for b, filter := range bank {
			var acc float64
			for _, fw := range filter {
				acc += frame[fw.bin] * frame[fw.bin] * fw.weight
			}
			v := math.Log10(math.Max(acc, 1e-10))
			row[b] = v
			if v > maxVal {
				maxVal = v
			}
		}
		mel[t] = row
	}

	// Whisper normalisation: clamp to max-8 and map into roughly [-1, 1].
	for _, row := range mel {
		for i, v := range row {
			if v < maxVal-8 {
				v = maxVal - 8
			}
			row[i] = (v + 4) / 4
		}
	}
	return mel, nil
}

// filterWeight is one (bin, weight) tap of a triangular mel filter.
type filterWeight struct {
	bin    int
	weight float64
}

// melFilterBank builds nBands triangular filters over nBins FFT bins spanning
// 0 Hz to Nyquist.
func melFilterBank(nBands, nBins, sampleRate int) [][]filterWeight {
	nyquist := float64(sampleRate) / 2
	melMax := hzToMel(nyquist)

	// Band edge frequencies in Hz, evenly spaced on the mel scale.
	edges := make([]float64, nBands+2)
	for i := range edges {
		edges[i] = melToHz(melMax * float64(i) / float64(nBands+1))
	}

	binHz := nyquist / float64(nBins-1)
	bank := make([][]filterWeight, nBands)
	for b := range nBands {
		lo, mid, hi := edges[b], edges[b+1], edges[b+2]
		var taps []filterWeight
		for bin := range nBins {
			f := float64(bin) * binHz
			var w float64
			switch {
			case f <= lo || f >= hi:
				continue
			case f < mid:
				w = (f - lo) / (mid - lo)
			default:
				w = (hi - f) / (hi - mid)
			}
			if w > 0 {
				taps = append(taps, filterWeight{bin: bin, weight: w})
			}
		}
		bank[b] = taps
	}
	return bank
}

func hzToMel(hz float64) float64  { return 2595 * math.Log10(1+hz/700) }
func melToHz(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }
