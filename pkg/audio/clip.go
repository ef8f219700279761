// Package audio provides the Clip type consumed by the scoring pipeline and
// the WAV decoding / resampling helpers that produce it.
//
// Every Clip handed to the analysis code is mono float64 PCM at the engine
// sample rate (16 kHz). Decoding normalises arbitrary WAV input — stereo,
// other sample rates, 8/16/24/32-bit — into that canonical form so the DSP
// layer never has to branch on format.
package audio

import (
	"math"
	"time"
)

// EngineSampleRate is the sample rate (Hz) all clips are resampled to before
// analysis. Whisper-family models and the clarity metrics both expect 16 kHz
// mono input.
const EngineSampleRate = 16000

// Clip is a decoded, mono, analysis-ready waveform. Samples are in [-1, 1].
//
// A Clip is read-only by convention: the scoring pipeline never mutates or
// retains it beyond a single analysis call. Callers own the backing slice.
type Clip struct {
	// Samples is the mono PCM data, one float64 per sample, nominally in [-1, 1].
	Samples []float64

	// SampleRate is the sample rate in Hz. Clips produced by Decode are always
	// EngineSampleRate.
	SampleRate int
}

// Duration returns the clip length as a time.Duration.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// RMS returns the root-mean-square amplitude of the clip, or 0 for an empty clip.
func (c *Clip) RMS() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.Samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(c.Samples)))
}

// Float32 returns a float32 copy of the samples. whisper.cpp inference wants
// float32 input; the rest of the pipeline stays in float64.
func (c *Clip) Float32() []float32 {
	out := make([]float32, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = float32(s)
	}
	return out
}
