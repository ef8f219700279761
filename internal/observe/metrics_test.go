package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics_CreatesAllInstruments(t *testing.T) {
	t.Parallel()

	mp := sdkmetric.NewMeterProvider()
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	if m.TranscriptionDuration == nil || m.ClarityDuration == nil ||
		m.EmbeddingDuration == nil || m.SuggestionDuration == nil ||
		m.AnalysisDuration == nil {
		t.Error("one or more histograms are nil")
	}
	if m.Analyses == nil || m.StageFailures == nil || m.ProviderErrors == nil {
		t.Error("one or more counters are nil")
	}
	if m.ActiveAnalyses == nil {
		t.Error("ActiveAnalyses gauge is nil")
	}
}

func TestRecordAnalysis_Exports(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordAnalysis(ctx, 3, "ok")
	m.RecordStageFailure(ctx, "suggestion")
	m.RecordProviderError(ctx, "whisper", "asr")
	m.AnalysisDuration.Record(ctx, 1.5)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	found := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, met := range scope.Metrics {
			found[met.Name] = true
		}
	}
	for _, name := range []string{
		"speechgrade.analyses",
		"speechgrade.stage.failures",
		"speechgrade.provider.errors",
		"speechgrade.analysis.duration",
	} {
		if !found[name] {
			t.Errorf("metric %q was not exported", name)
		}
	}
}
