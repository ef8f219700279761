// Package mock provides a test double for the suggest.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/articulab/speechgrade/pkg/provider/suggest"
)

// Compile-time assertion that Provider satisfies suggest.Provider.
var _ suggest.Provider = (*Provider)(nil)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	// Ctx is the context passed to Generate.
	Ctx context.Context
	// Prompt is the prompt passed to Generate.
	Prompt string
}

// Provider is a mock implementation of suggest.Provider.
type Provider struct {
	mu sync.Mutex

	// Text is returned from Generate when Err is nil.
	Text string

	// Err, if non-nil, is returned as the error from every Generate call.
	Err error

	// Calls records every invocation of Generate in order.
	Calls []GenerateCall
}

// Generate implements suggest.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, GenerateCall{Ctx: ctx, Prompt: prompt})
	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}
