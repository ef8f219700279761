package score

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/articulab/speechgrade/internal/config"
	"github.com/articulab/speechgrade/internal/observe"
	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/acoustic"
	"github.com/articulab/speechgrade/pkg/provider/asr"
	"github.com/articulab/speechgrade/pkg/provider/suggest"
)

// transcribeErrorText is the in-band marker substituted for a transcript
// when the recognizer itself errors, so downstream text scoring treats
// the clip as unintelligible rather than as silence.
const transcribeErrorText = "[transcription error]"

// degradedSuggestion is served when the whole pipeline fails.
const degradedSuggestion = "系統分析失敗，請檢查音檔。"

// degradedTranscript fills the transcript fields of a failure result.
const degradedTranscript = "錯誤"

// Analyzer runs the full scoring pipeline over a reference and a sample
// clip. Every stage is failure-contained: provider errors degrade the
// affected fields to defaults, and only an unrecoverable panic yields a
// degraded result with Error set.
type Analyzer struct {
	asr        asr.Provider
	embeddings *EmbeddingScorer
	text       TextScorer
	features   *FeatureExtractor
	composite  CompositeScorer
	classifier LevelClassifier
	suggester  *SuggestionGenerator
	metrics    *observe.Metrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMetrics attaches pipeline instrumentation.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New builds an Analyzer from the scoring configuration and the three
// providers. suggestProvider may be nil; suggestions then always come
// from the fallback table.
func New(cfg config.ScoringConfig, asrProvider asr.Provider, acousticProvider acoustic.Provider, suggestProvider suggest.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		asr:        asrProvider,
		embeddings: NewEmbeddingScorer(acousticProvider, cfg.PadFrames),
		composite:  NewCompositeScorer(cfg),
		classifier: NewLevelClassifier(cfg),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.features = NewFeatureExtractor(cfg, a.metrics)
	a.suggester = NewSuggestionGenerator(suggestProvider, cfg.FallbackSuggestions, a.metrics)
	return a
}

// Analyze scores the sample clip against the reference. It never
// returns an error: total failure produces a fully populated result
// with level 5 and the Error field set.
func (a *Analyzer) Analyze(ctx context.Context, ref, sample *audio.Clip) (res *Result) {
	start := time.Now()
	if a.metrics != nil {
		a.metrics.ActiveAnalyses.Add(ctx, 1)
		defer a.metrics.ActiveAnalyses.Add(ctx, -1)
	}
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "analysis failed", "panic", r)
			res = a.degraded(fmt.Sprintf("%v", r), time.Since(start))
		}
		if a.metrics != nil {
			a.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())
			status := "ok"
			if res.Degraded() {
				status = "degraded"
			}
			a.metrics.RecordAnalysis(ctx, res.Level, status)
		}
	}()

	res = &Result{}
	trRef, refText := a.transcribe(ctx, ref)
	trSam, samText := a.transcribe(ctx, sample)
	res.Similarity = a.similarity(ctx, ref, sample, refText, samText)

	res.ClarityRef = a.timedClarity(ctx, ref, trRef)
	res.ClaritySample = a.timedClarity(ctx, sample, trSam)

	index := a.composite.Combine(res.ClarityRef, res.ClaritySample, res.Similarity)
	res.Level, res.Index = a.classifier.Classify(index, res.Similarity.Text)

	sugStart := time.Now()
	res.Suggestions = a.suggester.Generate(ctx, res)
	if a.metrics != nil {
		a.metrics.SuggestionDuration.Record(ctx, time.Since(sugStart).Seconds())
	}

	res.AnalysisTime = time.Since(start).Seconds()
	slog.InfoContext(ctx, "analysis complete",
		"level", res.Level,
		"index", res.Index,
		"text_similarity", res.Similarity.Text,
		"duration", res.AnalysisTime)
	return res
}

// similarity scores the transcripts and the acoustic embeddings. Any
// partial failure degrades the corresponding field and the rest
// proceeds.
func (a *Analyzer) similarity(ctx context.Context, ref, sample *audio.Clip, refText, samText string) SimilarityResult {
	sim := SimilarityResult{
		ReferenceText: refText,
		SampleText:    samText,
	}
	sim.Text = guard(ctx, a.metrics, stageTextSim, 0.0, func() (float64, error) {
		return a.text.Score(sim.ReferenceText, sim.SampleText), nil
	})

	embStart := time.Now()
	sim.Embedding = guard(ctx, a.metrics, stageEmbedding, 0.0, func() (float64, error) {
		v, err := a.embeddings.Score(ctx, ref, sample)
		if err != nil && a.metrics != nil {
			a.metrics.RecordProviderError(ctx, "acoustic", "encode")
		}
		return v, err
	})
	if a.metrics != nil {
		a.metrics.EmbeddingDuration.Record(ctx, time.Since(embStart).Seconds())
	}
	return sim
}

// transcribe runs the recognizer once per clip. On failure the text
// degrades to an in-band error marker and the transcription is nil, so
// text scoring treats the clip as unintelligible and confidence stays
// at its zero default.
func (a *Analyzer) transcribe(ctx context.Context, clip *audio.Clip) (*asr.Transcription, string) {
	start := time.Now()
	tr := guard[*asr.Transcription](ctx, a.metrics, stageTranscribe, nil, func() (*asr.Transcription, error) {
		t, err := a.asr.Transcribe(ctx, clip)
		if err != nil && a.metrics != nil {
			a.metrics.RecordProviderError(ctx, "asr", "transcribe")
		}
		return t, err
	})
	if a.metrics != nil {
		a.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	}
	if tr == nil {
		return nil, transcribeErrorText
	}
	return tr, tr.Text
}

func (a *Analyzer) timedClarity(ctx context.Context, clip *audio.Clip, tr *asr.Transcription) ClarityMetrics {
	start := time.Now()
	m := a.features.Extract(ctx, clip, tr)
	if a.metrics != nil {
		a.metrics.ClarityDuration.Record(ctx, time.Since(start).Seconds())
	}
	return m
}

func (a *Analyzer) degraded(cause string, elapsed time.Duration) *Result {
	return &Result{
		Similarity: SimilarityResult{
			ReferenceText: degradedTranscript,
			SampleText:    degradedTranscript,
		},
		Level:        5,
		Suggestions:  degradedSuggestion,
		AnalysisTime: elapsed.Seconds(),
		Error:        cause,
	}
}
