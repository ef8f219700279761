package score

import (
	"errors"
	"math"
	"testing"

	acousticmock "github.com/articulab/speechgrade/pkg/provider/acoustic/mock"
)

func TestEmbeddingScorerIdenticalClips(t *testing.T) {
	t.Parallel()

	provider := &acousticmock.Provider{
		SpectrogramResult: [][]float64{{1, 2, 3}, {4, 5, 6}},
		EncodeResult:      [][]float64{{1, 0}, {0, 1}},
	}
	s := NewEmbeddingScorer(provider, 0)
	clip := toneClip(220, 0.1)

	got, err := s.Score(t.Context(), clip, clip)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical embeddings: got %v, want 1.0", got)
	}
}

func TestEmbeddingScorerOppositeEmbeddings(t *testing.T) {
	t.Parallel()

	provider := &acousticmock.Provider{
		SpectrogramResult: [][]float64{{1}},
		EncodeResults: [][][]float64{
			{{1, 2}},
			{{-1, -2}},
		},
	}
	s := NewEmbeddingScorer(provider, 0)
	clip := toneClip(220, 0.1)

	got, err := s.Score(t.Context(), clip, clip)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(got+1.0) > 1e-9 {
		t.Errorf("opposite embeddings: got %v, want -1.0", got)
	}
}

func TestEmbeddingScorerZeroVector(t *testing.T) {
	t.Parallel()

	provider := &acousticmock.Provider{
		SpectrogramResult: [][]float64{{1}},
		EncodeResults: [][][]float64{
			{{0, 0}},
			{{1, 2}},
		},
	}
	s := NewEmbeddingScorer(provider, 0)
	clip := toneClip(220, 0.1)

	got, err := s.Score(t.Context(), clip, clip)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 0 {
		t.Errorf("zero-norm embedding: got %v, want 0", got)
	}
}

func TestEmbeddingScorerPadsSpectrogram(t *testing.T) {
	t.Parallel()

	provider := &acousticmock.Provider{
		SpectrogramResult: [][]float64{{1, 1}, {2, 2}},
		EncodeResult:      [][]float64{{1, 0}},
	}
	s := NewEmbeddingScorer(provider, 5)
	clip := toneClip(220, 0.1)

	if _, err := s.Score(t.Context(), clip, clip); err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, call := range provider.EncodeCalls {
		if len(call.Frames) != 5 {
			t.Fatalf("encoder received %d frames, want 5", len(call.Frames))
		}
		for _, v := range call.Frames[4] {
			if v != 0 {
				t.Errorf("padding frame should be zero, got %v", call.Frames[4])
			}
		}
	}
}

func TestEmbeddingScorerTrimsSpectrogram(t *testing.T) {
	t.Parallel()

	provider := &acousticmock.Provider{
		SpectrogramResult: [][]float64{{1}, {2}, {3}, {4}},
		EncodeResult:      [][]float64{{1, 0}},
	}
	s := NewEmbeddingScorer(provider, 2)
	clip := toneClip(220, 0.1)

	if _, err := s.Score(t.Context(), clip, clip); err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, call := range provider.EncodeCalls {
		if len(call.Frames) != 2 {
			t.Fatalf("encoder received %d frames, want 2", len(call.Frames))
		}
	}
}

func TestEmbeddingScorerPropagatesProviderErrors(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("model server unavailable")
	provider := &acousticmock.Provider{
		SpectrogramResult: [][]float64{{1}},
		EncodeErr:         wantErr,
	}
	s := NewEmbeddingScorer(provider, 0)
	clip := toneClip(220, 0.1)

	if _, err := s.Score(t.Context(), clip, clip); !errors.Is(err, wantErr) {
		t.Errorf("got error %v, want %v", err, wantErr)
	}
}

func TestEmbeddingScorerDimensionMismatch(t *testing.T) {
	t.Parallel()

	provider := &acousticmock.Provider{
		SpectrogramResult: [][]float64{{1}},
		EncodeResults: [][][]float64{
			{{1, 2}},
			{{1, 2, 3}},
		},
	}
	s := NewEmbeddingScorer(provider, 0)
	clip := toneClip(220, 0.1)

	if _, err := s.Score(t.Context(), clip, clip); err == nil {
		t.Error("expected an error for mismatched embedding dimensions")
	}
}
