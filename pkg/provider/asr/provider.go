// Package asr defines the Provider interface for batch speech recognition
// backends.
//
// Unlike a streaming dialogue system, the scoring engine transcribes complete
// clips: one call, one authoritative transcription with per-segment and
// per-word detail. The clarity metrics derive recognizer confidence from the
// word confidences when available and from segment log-probabilities
// otherwise.
//
// Implementations must be safe for concurrent use, but note that heavyweight
// local models (whisper.cpp) are typically leased through a model pool so
// that concurrent jobs never interleave on one instance.
package asr

import (
	"context"

	"github.com/articulab/speechgrade/pkg/audio"
)

// Word holds per-word recognition detail.
type Word struct {
	// Word is the recognised token text.
	Word string

	// Confidence is the recognizer's probability for this word in [0, 1].
	Confidence float64
}

// Segment is one decoded utterance span.
type Segment struct {
	// Text is the segment transcript.
	Text string

	// AvgLogProb is the mean log-probability of the segment's tokens. Used as
	// a confidence proxy (via a logistic transform) when word-level
	// confidences are unavailable.
	AvgLogProb float64

	// Words contains per-word detail. May be nil for backends that do not
	// expose token probabilities.
	Words []Word
}

// Transcription is the full recognition result for one clip.
//
// A failed decode is represented in-band: backends emit a bracketed marker
// (e.g. "[inaudible]") in Text rather than an error, so downstream text
// similarity deterministically collapses to zero instead of aborting the run.
type Transcription struct {
	// Text is the concatenated transcript of all segments, trimmed.
	Text string

	// Segments holds per-segment detail in decode order.
	Segments []Segment
}

// Provider is the abstraction over any batch speech-recognition backend.
type Provider interface {
	// Transcribe decodes the whole clip and returns the transcription.
	// The clip must be mono 16 kHz. Returns an error only for infrastructure
	// failures (model unavailable, ctx cancelled); unintelligible audio is
	// reported in-band via a bracketed marker in Transcription.Text.
	Transcribe(ctx context.Context, clip *audio.Clip) (*Transcription, error)
}
