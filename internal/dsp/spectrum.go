package dsp

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Magnitude computes the one-sided magnitude spectrum of samples via a real
// FFT. The result has len(samples)/2 + 1 bins (DC through Nyquist).
func Magnitude(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, errors.New("dsp: empty input")
	}
	spec := fft.FFTReal(samples)
	half := len(spec)/2 + 1
	mag := make([]float64, half)
	for i := range half {
		mag[i] = cmplx.Abs(spec[i])
	}
	return mag, nil
}

// STFT computes a time-major magnitude spectrogram: stft[frame][bin].
// window must have length windowSize. Trailing samples that do not fill a
// whole window are discarded.
func STFT(samples []float64, windowSize, hopSize int, window []float64) ([][]float64, error) {
	if windowSize <= 0 || hopSize <= 0 {
		return nil, errors.New("dsp: windowSize and hopSize must be positive")
	}
	if len(window) != windowSize {
		return nil, errors.New("dsp: window length must equal windowSize")
	}
	if len(samples) < windowSize {
		return nil, errors.New("dsp: input shorter than window size")
	}

	frame := make([]float64, windowSize)
	var out [][]float64
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		copy(frame, samples[start:start+windowSize])
		for i := range windowSize {
			frame[i] *= window[i]
		}
		mag, err := Magnitude(frame)
		if err != nil {
			return nil, err
		}
		out = append(out, mag)
	}
	return out, nil
}
