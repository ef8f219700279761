package asr

import (
	"context"

	"github.com/articulab/speechgrade/internal/modelpool"
	"github.com/articulab/speechgrade/pkg/audio"
)

// Pooled is a Provider that leases an underlying provider from a pool
// for the duration of each call. Concurrent analyses then share a
// bounded set of loaded models instead of loading one each.
type Pooled struct {
	pool *modelpool.Pool[Provider]
}

var _ Provider = (*Pooled)(nil)

func NewPooled(pool *modelpool.Pool[Provider]) *Pooled {
	return &Pooled{pool: pool}
}

func (p *Pooled) Transcribe(ctx context.Context, clip *audio.Clip) (*Transcription, error) {
	var tr *Transcription
	err := p.pool.With(ctx, func(inner Provider) error {
		var err error
		tr, err = inner.Transcribe(ctx, clip)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}
