package resilience

import (
	"context"

	"github.com/articulab/speechgrade/pkg/provider/suggest"
)

// SuggestFallback implements [suggest.Provider] with automatic failover across
// multiple generative backends. Each backend has its own circuit breaker, so a
// rate-limited primary is bypassed until it recovers.
type SuggestFallback struct {
	group *FallbackGroup[suggest.Provider]
}

// Compile-time interface assertion.
var _ suggest.Provider = (*SuggestFallback)(nil)

// NewSuggestFallback creates a [SuggestFallback] with primary as the preferred
// backend.
func NewSuggestFallback(primary suggest.Provider, primaryName string, cfg FallbackConfig) *SuggestFallback {
	return &SuggestFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional generative provider as a fallback.
func (f *SuggestFallback) AddFallback(name string, provider suggest.Provider) {
	f.group.AddFallback(name, provider)
}

// Generate produces a suggestion from the first healthy backend.
func (f *SuggestFallback) Generate(ctx context.Context, prompt string) (string, error) {
	return ExecuteWithResult(f.group, func(p suggest.Provider) (string, error) {
		return p.Generate(ctx, prompt)
	})
}
