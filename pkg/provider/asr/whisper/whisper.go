// Package whisper implements asr.Provider with the whisper.cpp CGO bindings.
//
// The whisper.cpp static library (libwhisper.a) and headers (whisper.h) must
// be available at link time via LIBRARY_PATH and C_INCLUDE_PATH. The model is
// loaded once at construction and shared by all Transcribe calls; each call
// creates its own whisper context, which is the binding's unit of
// thread-safety.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/asr"
)

const defaultLanguage = "zh"

// FailedDecodeMarker is emitted as the transcription text when whisper
// produces no usable output. The leading bracket is the in-band failure
// convention consumed by the text-similarity scorer.
const FailedDecodeMarker = "[inaudible]"

// Compile-time assertion that Provider satisfies asr.Provider.
var _ asr.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the transcription language code (e.g. "zh", "en").
// Defaults to "zh", the locale of the therapy course material.
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// Provider implements asr.Provider using a locally loaded whisper.cpp model.
type Provider struct {
	model    whisperlib.Model
	language string
}

// New loads the whisper.cpp model at modelPath. The caller must call Close
// when the provider is no longer needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Provider{model: model, language: defaultLanguage}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe implements asr.Provider. It runs batch inference over the whole
// clip and converts whisper segments and token probabilities into the asr
// result shape. A decode that yields no text returns a transcription whose
// Text is FailedDecodeMarker rather than an error.
func (p *Provider) Transcribe(ctx context.Context, clip *audio.Clip) (*asr.Transcription, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	if clip == nil || len(clip.Samples) == 0 {
		return &asr.Transcription{Text: FailedDecodeMarker}, nil
	}

	wctx, err := p.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whisper: failed to set language, using model default",
			"language", p.language, "error", err)
	}

	if err := wctx.Process(clip.Float32(), nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var (
		segments []asr.Segment
		sb       strings.Builder
	)
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		segments = append(segments, convertSegment(seg))
		sb.WriteString(seg.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return &asr.Transcription{Text: FailedDecodeMarker}, nil
	}
	return &asr.Transcription{Text: text, Segments: segments}, nil
}

// convertSegment maps a whisper segment to the asr shape, deriving per-word
// confidences from token probabilities and the segment AvgLogProb from the
// mean token log-probability. Special tokens ("[_BEG_]" etc.) are skipped.
func convertSegment(seg whisperlib.Segment) asr.Segment {
	out := asr.Segment{Text: strings.TrimSpace(seg.Text)}

	var logSum float64
	var n int
	for _, tok := range seg.Tokens {
		if strings.HasPrefix(tok.Text, "[_") {
			continue
		}
		p := float64(tok.P)
		out.Words = append(out.Words, asr.Word{
			Word:       strings.TrimSpace(tok.Text),
			Confidence: p,
		})
		logSum += math.Log(math.Max(p, 1e-10))
		n++
	}
	if n > 0 {
		out.AvgLogProb = logSum / float64(n)
	}
	return out
}
