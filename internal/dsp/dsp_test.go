package dsp

import (
	"math"
	"math/rand"
	"testing"
)

// sine returns n samples of a sine wave at freq Hz.
func sine(n, sampleRate int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range n {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// noise returns n samples of deterministic pseudo-random noise.
func noise(n int, amp float64) []float64 {
	rng := rand.New(rand.NewSource(42))
	out := make([]float64, n)
	for i := range n {
		out[i] = amp * (2*rng.Float64() - 1)
	}
	return out
}

func TestHamming(t *testing.T) {
	t.Parallel()

	w := Hamming(512)
	if len(w) != 512 {
		t.Fatalf("window length: want 512, got %d", len(w))
	}
	if math.Abs(w[0]-0.08) > 1e-9 {
		t.Errorf("Hamming endpoint: want 0.08, got %v", w[0])
	}
	mid := w[255]
	if mid < 0.99 {
		t.Errorf("Hamming midpoint should approach 1, got %v", mid)
	}
}

func TestMagnitude_PeaksAtToneFrequency(t *testing.T) {
	t.Parallel()

	const sr = 16000
	// 1000 Hz tone over 1024 samples → peak at bin 1000*1024/16000 = 64.
	mag, err := Magnitude(sine(1024, sr, 1000, 1))
	if err != nil {
		t.Fatalf("Magnitude: unexpected error: %v", err)
	}
	if len(mag) != 513 {
		t.Fatalf("magnitude bins: want 513, got %d", len(mag))
	}
	best := 0
	for i := range mag {
		if mag[i] > mag[best] {
			best = i
		}
	}
	if best != 64 {
		t.Errorf("spectral peak: want bin 64, got %d", best)
	}
}

func TestMagnitude_EmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := Magnitude(nil); err == nil {
		t.Fatal("empty input should fail")
	}
}

func TestSTFT_FrameCount(t *testing.T) {
	t.Parallel()

	spec, err := STFT(make([]float64, 4096), 1024, 256, Hamming(1024))
	if err != nil {
		t.Fatalf("STFT: unexpected error: %v", err)
	}
	// Frames at starts 0, 256, ..., 3072 → 13 frames.
	if len(spec) != 13 {
		t.Errorf("frame count: want 13, got %d", len(spec))
	}
}

func TestSTFT_InputTooShort(t *testing.T) {
	t.Parallel()

	if _, err := STFT(make([]float64, 100), 1024, 256, Hamming(1024)); err == nil {
		t.Fatal("STFT on input shorter than window should fail")
	}
}

func TestHarmonicityTrack_VoicedVsNoise(t *testing.T) {
	t.Parallel()

	const sr = 16000

	voiced, err := HarmonicityTrack(sine(sr, sr, 150, 0.5), sr)
	if err != nil {
		t.Fatalf("HarmonicityTrack: unexpected error: %v", err)
	}
	if len(voiced) == 0 {
		t.Fatal("expected frames for a 1 s clip")
	}
	var voicedFrames int
	for _, v := range voiced {
		if v != UnvoicedHNR && !math.IsNaN(v) {
			voicedFrames++
			if v < 10 {
				t.Errorf("pure tone frame HNR should be high, got %v", v)
			}
		}
	}
	if voicedFrames == 0 {
		t.Error("a pure tone should produce voiced frames")
	}

	// White noise has no periodic component: most frames stay unvoiced.
	unvoiced, err := HarmonicityTrack(noise(sr, 0.5), sr)
	if err != nil {
		t.Fatalf("HarmonicityTrack: unexpected error: %v", err)
	}
	var sentinels int
	for _, v := range unvoiced {
		if v == UnvoicedHNR {
			sentinels++
		}
	}
	if sentinels < len(unvoiced)/2 {
		t.Errorf("noise should be mostly unvoiced: %d of %d frames", sentinels, len(unvoiced))
	}
}

func TestHarmonicityTrack_TooShort(t *testing.T) {
	t.Parallel()

	if _, err := HarmonicityTrack(make([]float64, 10), 16000); err == nil {
		t.Fatal("clip shorter than one analysis frame should fail")
	}
	if _, err := HarmonicityTrack(sine(16000, 16000, 150, 0.5), 0); err == nil {
		t.Fatal("zero sample rate should fail")
	}
}

func TestLogMelSpectrogram_Shape(t *testing.T) {
	t.Parallel()

	const sr = 16000
	mel, err := LogMelSpectrogram(sine(sr, sr, 440, 0.5), sr)
	if err != nil {
		t.Fatalf("LogMelSpectrogram: unexpected error: %v", err)
	}
	if len(mel) == 0 {
		t.Fatal("expected at least one mel frame")
	}
	for _, row := range mel {
		if len(row) != MelBands {
			t.Fatalf("mel bands: want %d, got %d", MelBands, len(row))
		}
	}
	// ~1 s at 160-sample hop → just under 100 frames.
	if len(mel) < 90 || len(mel) > 100 {
		t.Errorf("mel frame count: want ~97, got %d", len(mel))
	}
}

func TestSTOI_SelfComparisonNearOne(t *testing.T) {
	t.Parallel()

	const sr = 16000
	clip := sine(sr*2, sr, 220, 0.4)
	for i := range clip {
		// Add a little wideband content so multiple bands carry energy.
		clip[i] += 0.1 * math.Sin(2*math.Pi*1700*float64(i)/float64(sr))
	}

	score, err := STOI(clip, clip, sr)
	if err != nil {
		t.Fatalf("STOI: unexpected error: %v", err)
	}
	if score < 0.99 || score > 1.0 {
		t.Errorf("self-comparison STOI: want ~1.0, got %v", score)
	}
}

func TestSTOI_DegradedScoresLower(t *testing.T) {
	t.Parallel()

	const sr = 16000
	clean := sine(sr*2, sr, 220, 0.4)
	degraded := noise(sr*2, 0.4)

	self, err := STOI(clean, clean, sr)
	if err != nil {
		t.Fatalf("STOI(clean, clean): %v", err)
	}
	cross, err := STOI(clean, degraded, sr)
	if err != nil {
		t.Fatalf("STOI(clean, degraded): %v", err)
	}
	if cross >= self {
		t.Errorf("noise substitution should lower the index: self=%v cross=%v", self, cross)
	}
}

func TestSTOI_LengthMismatch(t *testing.T) {
	t.Parallel()

	if _, err := STOI(make([]float64, 100), make([]float64, 200), 16000); err == nil {
		t.Fatal("mismatched lengths should fail")
	}
}
