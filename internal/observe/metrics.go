// Package observe provides observability primitives for the scoring engine:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all engine metrics.
const meterName = "github.com/articulab/speechgrade"

// Metrics holds all OpenTelemetry metric instruments for the engine.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscriptionDuration tracks speech-recognition latency per clip.
	TranscriptionDuration metric.Float64Histogram

	// ClarityDuration tracks acoustic feature extraction latency per clip.
	ClarityDuration metric.Float64Histogram

	// EmbeddingDuration tracks spectrogram+encode+cosine latency per pair.
	EmbeddingDuration metric.Float64Histogram

	// SuggestionDuration tracks generative suggestion latency.
	SuggestionDuration metric.Float64Histogram

	// AnalysisDuration tracks end-to-end grading latency per job.
	AnalysisDuration metric.Float64Histogram

	// --- Counters ---

	// Analyses counts completed grading jobs. Use with attributes:
	//   attribute.String("level", ...), attribute.String("status", ...)
	Analyses metric.Int64Counter

	// StageFailures counts contained per-stage degradations. Use with attribute:
	//   attribute.String("stage", ...)
	StageFailures metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveAnalyses tracks grading jobs currently in flight.
	ActiveAnalyses metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// batch audio analysis: sub-second DSP stages up to multi-second model calls.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	histograms := []struct {
		target *metric.Float64Histogram
		name   string
		desc   string
	}{
		{&met.TranscriptionDuration, "speechgrade.transcription.duration", "Latency of speech recognition per clip."},
		{&met.ClarityDuration, "speechgrade.clarity.duration", "Latency of acoustic feature extraction per clip."},
		{&met.EmbeddingDuration, "speechgrade.embedding.duration", "Latency of embedding similarity per clip pair."},
		{&met.SuggestionDuration, "speechgrade.suggestion.duration", "Latency of generative suggestion calls."},
		{&met.AnalysisDuration, "speechgrade.analysis.duration", "End-to-end grading latency per job."},
	}
	for _, h := range histograms {
		if *h.target, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	if met.Analyses, err = m.Int64Counter("speechgrade.analyses",
		metric.WithDescription("Completed grading jobs by level and status."),
	); err != nil {
		return nil, err
	}
	if met.StageFailures, err = m.Int64Counter("speechgrade.stage.failures",
		metric.WithDescription("Contained per-stage degradations by stage."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("speechgrade.provider.errors",
		metric.WithDescription("Provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.ActiveAnalyses, err = m.Int64UpDownCounter("speechgrade.active_analyses",
		metric.WithDescription("Grading jobs currently in flight."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordAnalysis records one completed grading job with its level and status
// ("ok" or "degraded").
func (m *Metrics) RecordAnalysis(ctx context.Context, level int, status string) {
	m.Analyses.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int("level", level),
			attribute.String("status", status),
		),
	)
}

// RecordStageFailure records one contained stage degradation.
func (m *Metrics) RecordStageFailure(ctx context.Context, stage string) {
	m.StageFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordProviderError records one provider error by provider name and kind.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
