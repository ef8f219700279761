// Package melhttp implements acoustic.Provider for Whisper-family encoders.
//
// The spectral representation is an 80-band log-mel spectrogram computed
// locally (no model required), while encoding is delegated to a model server
// exposing POST /encode — the same split the original analysis stack uses,
// where the mel transform is cheap CPU work and the encoder is the
// heavyweight shared model.
//
// Usage:
//
//	p, err := melhttp.New("http://localhost:9090",
//	    melhttp.WithTimeout(30*time.Second),
//	)
//	frames, err := p.Spectrogram(clip)
//	vectors, err := p.Encode(ctx, pad(frames))
package melhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/articulab/speechgrade/internal/dsp"
	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/acoustic"
)

const defaultTimeout = 60 * time.Second

// Compile-time assertion that Provider satisfies acoustic.Provider.
var _ acoustic.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Defaults to 60 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.client.Timeout = d }
}

// WithModel sets the model identifier forwarded to the encoder server.
// When empty the server uses whichever model it was started with.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// Provider implements acoustic.Provider against an HTTP encoder server.
type Provider struct {
	serverURL string
	model     string
	client    *http.Client
}

// New constructs a Provider targeting the encoder server at serverURL.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("melhttp: serverURL must not be empty")
	}
	p := &Provider{
		serverURL: serverURL,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Spectrogram implements acoustic.Provider by computing the log-mel
// spectrogram locally.
func (p *Provider) Spectrogram(clip *audio.Clip) ([][]float64, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, errors.New("melhttp: empty clip")
	}
	mel, err := dsp.LogMelSpectrogram(clip.Samples, clip.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("melhttp: spectrogram: %w", err)
	}
	return mel, nil
}

// encodeRequest is the JSON body for POST /encode.
type encodeRequest struct {
	Model  string      `json:"model,omitempty"`
	Frames [][]float64 `json:"frames"`
}

// encodeResponse is the JSON body returned by the encoder server.
type encodeResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Encode implements acoustic.Provider by POSTing the frames to the encoder
// server and returning the embedding sequence.
func (p *Provider) Encode(ctx context.Context, frames [][]float64) ([][]float64, error) {
	if len(frames) == 0 {
		return nil, errors.New("melhttp: no frames to encode")
	}

	body, err := json.Marshal(encodeRequest{Model: p.model, Frames: frames})
	if err != nil {
		return nil, fmt.Errorf("melhttp: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/encode", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("melhttp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("melhttp: encode request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("melhttp: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("melhttp: encoder server returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var decoded encodeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("melhttp: decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("melhttp: encoder error: %s", decoded.Error)
	}
	if len(decoded.Embeddings) == 0 {
		return nil, errors.New("melhttp: encoder returned no embeddings")
	}
	return decoded.Embeddings, nil
}

// truncate shortens raw to at most n bytes for error messages.
func truncate(raw []byte, n int) string {
	if len(raw) > n {
		raw = raw[:n]
	}
	return string(raw)
}
