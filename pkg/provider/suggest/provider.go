// Package suggest defines the Provider interface for generative suggestion
// backends.
//
// The scoring pipeline builds a therapist-voiced prompt from the final
// scoring payload and asks a generative model for practice advice. The call
// is strictly best-effort: on any failure the pipeline substitutes a canned
// per-level message, so implementations should surface errors rather than
// retry internally.
package suggest

import "context"

// Provider is the abstraction over any generative-text backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Generate sends the prompt to the model and returns the generated text.
	// Any failure (network, auth, quota, malformed response) is returned as
	// an error; the caller decides the fallback.
	Generate(ctx context.Context, prompt string) (string, error)
}
