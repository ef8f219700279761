package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

// ErrEmptyClip is returned when a WAV file decodes to zero samples.
var ErrEmptyClip = errors.New("audio: clip contains no samples")

// Decode parses WAV bytes and returns a mono Clip resampled to
// EngineSampleRate. Multi-channel input is downmixed by averaging channels;
// sample values are normalised to [-1, 1] based on the source bit depth.
func Decode(data []byte) (*Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyClip
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", srcRate)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	// Full-scale divisor for the source bit depth (e.g. 32768 for 16-bit).
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	mono := make([]float64, frames)
	for i := range frames {
		var acc float64
		for ch := range channels {
			acc += float64(buf.Data[i*channels+ch])
		}
		mono[i] = acc / float64(channels) / scale
	}

	if srcRate != EngineSampleRate {
		mono = ResampleMono(mono, srcRate, EngineSampleRate)
	}
	if len(mono) == 0 {
		return nil, ErrEmptyClip
	}
	return &Clip{Samples: mono, SampleRate: EngineSampleRate}, nil
}
