// Package mock provides a test double for the asr.Provider interface.
//
// Use Provider in unit tests to feed controlled transcriptions without a live
// recognition backend and to verify the clips the pipeline submits.
package mock

import (
	"context"
	"sync"

	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/asr"
)

// Compile-time assertion that Provider satisfies asr.Provider.
var _ asr.Provider = (*Provider)(nil)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Clip is the clip passed to Transcribe.
	Clip *audio.Clip
}

// Provider is a mock implementation of asr.Provider.
// Zero values cause Transcribe to return an empty transcription.
type Provider struct {
	mu sync.Mutex

	// Results is consumed one per Transcribe call, in order. When exhausted
	// (or nil), Result is returned instead.
	Results []*asr.Transcription

	// Result is the fallback transcription returned when Results is exhausted.
	Result *asr.Transcription

	// Err, if non-nil, is returned as the error from every Transcribe call.
	Err error

	// Calls records every invocation of Transcribe in order.
	Calls []TranscribeCall
}

// Transcribe implements asr.Provider.
func (p *Provider) Transcribe(ctx context.Context, clip *audio.Clip) (*asr.Transcription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, TranscribeCall{Ctx: ctx, Clip: clip})
	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Results) > 0 {
		r := p.Results[0]
		p.Results = p.Results[1:]
		return r, nil
	}
	if p.Result != nil {
		return p.Result, nil
	}
	return &asr.Transcription{}, nil
}
