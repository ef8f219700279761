package audio_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/articulab/speechgrade/pkg/audio"
)

// encodeWAV writes an int16 WAV file with the given format and returns its bytes.
func encodeWAV(t *testing.T, sampleRate, channels int, data []int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp wav: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav buffer: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav file: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav file: %v", err)
	}
	return raw
}

// sineInt16 produces n samples of an int16 sine wave at freq Hz.
func sineInt16(n, sampleRate int, freq float64) []int {
	out := make([]int, n)
	for i := range n {
		out[i] = int(20000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestDecode_Mono16k(t *testing.T) {
	t.Parallel()

	raw := encodeWAV(t, 16000, 1, sineInt16(16000, 16000, 440))
	clip, err := audio.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}

	if clip.SampleRate != audio.EngineSampleRate {
		t.Errorf("SampleRate: want %d, got %d", audio.EngineSampleRate, clip.SampleRate)
	}
	if got := len(clip.Samples); got != 16000 {
		t.Errorf("sample count: want 16000, got %d", got)
	}
	for i, s := range clip.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d out of [-1,1]: %v", i, s)
		}
	}
	if clip.RMS() < 0.1 {
		t.Errorf("RMS of a loud sine should be well above 0.1, got %v", clip.RMS())
	}
}

func TestDecode_StereoDownmix(t *testing.T) {
	t.Parallel()

	// Interleaved stereo with L = -R: downmix must cancel to silence.
	const frames = 800
	data := make([]int, frames*2)
	for i := range frames {
		data[i*2] = 10000
		data[i*2+1] = -10000
	}

	clip, err := audio.Decode(encodeWAV(t, 16000, 2, data))
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if len(clip.Samples) != frames {
		t.Fatalf("frame count: want %d, got %d", frames, len(clip.Samples))
	}
	for i, s := range clip.Samples {
		if math.Abs(s) > 1e-9 {
			t.Fatalf("downmixed sample %d should be 0, got %v", i, s)
		}
	}
}

func TestDecode_Resamples48kTo16k(t *testing.T) {
	t.Parallel()

	clip, err := audio.Decode(encodeWAV(t, 48000, 1, sineInt16(48000, 48000, 440)))
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if clip.SampleRate != 16000 {
		t.Errorf("SampleRate: want 16000, got %d", clip.SampleRate)
	}
	// 1 s of audio at any source rate stays 1 s after resampling.
	if got := len(clip.Samples); got < 15900 || got > 16100 {
		t.Errorf("sample count after resample: want ~16000, got %d", got)
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := audio.Decode([]byte("definitely not a wav file")); err == nil {
		t.Fatal("Decode of garbage bytes should fail")
	}
}

func TestResampleMono_Identity(t *testing.T) {
	t.Parallel()

	in := []float64{0, 0.5, -0.5, 1}
	out := audio.ResampleMono(in, 16000, 16000)
	if &out[0] != &in[0] {
		t.Error("same-rate resample should return the input slice unchanged")
	}
}

func TestResampleMono_Halves(t *testing.T) {
	t.Parallel()

	in := make([]float64, 1000)
	out := audio.ResampleMono(in, 32000, 16000)
	if len(out) != 500 {
		t.Errorf("resampled length: want 500, got %d", len(out))
	}
}
