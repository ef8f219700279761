// Package dsp contains the signal-processing primitives behind the clarity
// metrics: windowing, FFT magnitude spectra, short-time analysis, log-mel
// spectrograms, an autocorrelation harmonicity track, and a one-third-octave
// intelligibility index.
//
// Everything here is pure Go over float64 slices. The only external
// dependency is the go-dsp FFT.
package dsp

import "math"

// Hamming returns a Hamming window of length n.
func Hamming(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	w := make([]float64, n)
	for i := range n {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Hann returns a Hann window of length n.
func Hann(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	w := make([]float64, n)
	for i := range n {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
