// Package mock provides a test double for the acoustic.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/acoustic"
)

// Compile-time assertion that Provider satisfies acoustic.Provider.
var _ acoustic.Provider = (*Provider)(nil)

// EncodeCall records a single invocation of Encode.
type EncodeCall struct {
	// Ctx is the context passed to Encode.
	Ctx context.Context
	// Frames is the spectral input passed to Encode.
	Frames [][]float64
}

// Provider is a mock implementation of acoustic.Provider.
//
// Spectrogram returns SpectrogramResults one per call (falling back to
// SpectrogramResult), Encode returns EncodeResults one per call (falling back
// to EncodeResult). Set the Err fields to inject failures.
type Provider struct {
	mu sync.Mutex

	// SpectrogramResults is consumed one per Spectrogram call, in order.
	SpectrogramResults [][][]float64

	// SpectrogramResult is the fallback when SpectrogramResults is exhausted.
	SpectrogramResult [][]float64

	// SpectrogramErr, if non-nil, is returned from every Spectrogram call.
	SpectrogramErr error

	// EncodeResults is consumed one per Encode call, in order.
	EncodeResults [][][]float64

	// EncodeResult is the fallback when EncodeResults is exhausted.
	EncodeResult [][]float64

	// EncodeErr, if non-nil, is returned from every Encode call.
	EncodeErr error

	// SpectrogramCalls counts Spectrogram invocations.
	SpectrogramCalls int

	// EncodeCalls records every invocation of Encode in order.
	EncodeCalls []EncodeCall
}

// Spectrogram implements acoustic.Provider.
func (p *Provider) Spectrogram(_ *audio.Clip) ([][]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SpectrogramCalls++
	if p.SpectrogramErr != nil {
		return nil, p.SpectrogramErr
	}
	if len(p.SpectrogramResults) > 0 {
		r := p.SpectrogramResults[0]
		p.SpectrogramResults = p.SpectrogramResults[1:]
		return r, nil
	}
	return p.SpectrogramResult, nil
}

// Encode implements acoustic.Provider.
func (p *Provider) Encode(ctx context.Context, frames [][]float64) ([][]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EncodeCalls = append(p.EncodeCalls, EncodeCall{Ctx: ctx, Frames: frames})
	if p.EncodeErr != nil {
		return nil, p.EncodeErr
	}
	if len(p.EncodeResults) > 0 {
		r := p.EncodeResults[0]
		p.EncodeResults = p.EncodeResults[1:]
		return r, nil
	}
	return p.EncodeResult, nil
}
