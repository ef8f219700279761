package score

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/acoustic"
)

// EmbeddingScorer measures how alike two clips sound, independent of
// the words recognized in them. Both clips go through the acoustic
// encoder, the resulting frame embeddings are mean-pooled and compared
// by cosine similarity.
type EmbeddingScorer struct {
	provider  acoustic.Provider
	padFrames int
}

func NewEmbeddingScorer(provider acoustic.Provider, padFrames int) *EmbeddingScorer {
	return &EmbeddingScorer{provider: provider, padFrames: padFrames}
}

// Score returns the raw cosine similarity of the pooled embeddings.
// The value is in [-1,1]; callers decide how to fold it into a score.
func (s *EmbeddingScorer) Score(ctx context.Context, ref, sample *audio.Clip) (float64, error) {
	if s.provider == nil {
		return 0, errors.New("no acoustic provider configured")
	}
	refVec, err := s.embed(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("embedding reference clip: %w", err)
	}
	samVec, err := s.embed(ctx, sample)
	if err != nil {
		return 0, fmt.Errorf("embedding sample clip: %w", err)
	}
	return cosine(refVec, samVec)
}

func (s *EmbeddingScorer) embed(ctx context.Context, clip *audio.Clip) ([]float64, error) {
	frames, err := s.provider.Spectrogram(clip)
	if err != nil {
		return nil, err
	}
	frames = padOrTrim(frames, s.padFrames)
	embeddings, err := s.provider.Encode(ctx, frames)
	if err != nil {
		return nil, err
	}
	return meanPool(embeddings)
}

// padOrTrim forces the spectrogram to exactly n frames. Encoders with a
// fixed receptive field need identical input lengths for the two clips,
// otherwise pooled embeddings drift apart on duration alone.
func padOrTrim(frames [][]float64, n int) [][]float64 {
	if n <= 0 || len(frames) == n {
		return frames
	}
	if len(frames) > n {
		return frames[:n]
	}
	dim := 0
	if len(frames) > 0 {
		dim = len(frames[0])
	}
	padded := make([][]float64, n)
	copy(padded, frames)
	for i := len(frames); i < n; i++ {
		padded[i] = make([]float64, dim)
	}
	return padded
}

func meanPool(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, errors.New("encoder returned no embeddings")
	}
	dim := len(vectors[0])
	pooled := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("ragged embeddings: got %d and %d dims", dim, len(v))
		}
		for i, x := range v {
			pooled[i] += x
		}
	}
	for i := range pooled {
		pooled[i] /= float64(len(vectors))
	}
	return pooled, nil
}

func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
