package resilience

import (
	"context"

	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/asr"
)

// ASRFallback implements [asr.Provider] with automatic failover across multiple
// recognition backends. Each backend has its own circuit breaker.
type ASRFallback struct {
	group *FallbackGroup[asr.Provider]
}

// Compile-time interface assertion.
var _ asr.Provider = (*ASRFallback)(nil)

// NewASRFallback creates an [ASRFallback] with primary as the preferred backend.
func NewASRFallback(primary asr.Provider, primaryName string, cfg FallbackConfig) *ASRFallback {
	return &ASRFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional recognition provider as a fallback.
func (f *ASRFallback) AddFallback(name string, provider asr.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe runs the clip through the first healthy recognizer.
func (f *ASRFallback) Transcribe(ctx context.Context, clip *audio.Clip) (*asr.Transcription, error) {
	return ExecuteWithResult(f.group, func(p asr.Provider) (*asr.Transcription, error) {
		return p.Transcribe(ctx, clip)
	})
}
