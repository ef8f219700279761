package score

import (
	"context"
	"log/slog"

	"github.com/articulab/speechgrade/internal/observe"
)

// Stage names as recorded on the stage failure counter.
const (
	stageTranscribe = "transcribe"
	stageTextSim    = "text_similarity"
	stageEmbedding  = "embedding"
	stageClarity    = "clarity"
	stageSNR        = "snr"
	stageHNR        = "hnr"
	stageEntropy    = "entropy"
	stageConfidence = "confidence"
	stageSTOI       = "stoi"
	stageSuggestion = "suggestion"
)

// guard runs fn with failure containment. Errors and panics both
// degrade to the fallback value so that one broken stage never takes
// the rest of the pipeline down with it.
func guard[T any](ctx context.Context, m *observe.Metrics, stage string, fallback T, fn func() (T, error)) (out T) {
	out = fallback
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "stage panicked, keeping fallback", "stage", stage, "panic", r)
			if m != nil {
				m.RecordStageFailure(ctx, stage)
			}
		}
	}()
	v, err := fn()
	if err != nil {
		slog.WarnContext(ctx, "stage failed, keeping fallback", "stage", stage, "error", err)
		if m != nil {
			m.RecordStageFailure(ctx, stage)
		}
		return fallback
	}
	return v
}
