// Package acoustic defines the Provider interface for acoustic-embedding
// backends.
//
// An acoustic provider turns a clip into a time-by-feature spectral
// representation and encodes such a representation into a sequence of
// embedding vectors. The scoring pipeline mean-pools the encoder output and
// compares clips by cosine similarity, so the only hard requirement on an
// implementation is that both clips of one comparison go through the same
// model and feature space.
package acoustic

import (
	"context"

	"github.com/articulab/speechgrade/pkg/audio"
)

// Provider is the abstraction over any acoustic-embedding backend.
//
// Implementations must be safe for concurrent use; heavyweight local models
// should be leased through a model pool by the caller.
type Provider interface {
	// Spectrogram computes the time-major spectral representation
	// (frames × features) the encoder expects for the given clip.
	Spectrogram(clip *audio.Clip) ([][]float64, error)

	// Encode runs the model encoder over a spectral representation and
	// returns a sequence of embedding vectors (frames × dims). The time axis
	// of frames must already be padded or trimmed to the encoder's expected
	// length by the caller.
	Encode(ctx context.Context, frames [][]float64) ([][]float64, error)
}
