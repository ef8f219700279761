package score

import (
	"context"
	"fmt"
	"strings"

	"github.com/articulab/speechgrade/internal/observe"
	"github.com/articulab/speechgrade/pkg/provider/suggest"
)

// defaultFallbacks maps each level to a canned suggestion used when the
// language model is unavailable or fails.
var defaultFallbacks = map[int]string{
	1: "發音表現優秀！繼續保持練習。",
	2: "發音良好，可以針對細節微調。",
	3: "發音有進步空間，建議每天練習 10-15 分鐘。",
	4: "需要加強練習，建議從基本發音開始。",
	5: "建議尋求專業語音治療師協助。",
}

// genericSuggestion covers levels outside the fallback table.
const genericSuggestion = "請持續練習發音。"

// SuggestionGenerator turns a scored result into practice advice. A
// failing or missing provider degrades to a canned per-level message,
// never to an error: suggestions are best-effort by contract.
type SuggestionGenerator struct {
	provider  suggest.Provider
	fallbacks map[int]string
	metrics   *observe.Metrics
}

// NewSuggestionGenerator builds a generator. provider may be nil, in
// which case every call serves a fallback. overrides replace individual
// entries of the built-in fallback table.
func NewSuggestionGenerator(provider suggest.Provider, overrides map[int]string, metrics *observe.Metrics) *SuggestionGenerator {
	fallbacks := make(map[int]string, len(defaultFallbacks))
	for k, v := range defaultFallbacks {
		fallbacks[k] = v
	}
	for k, v := range overrides {
		fallbacks[k] = v
	}
	return &SuggestionGenerator{provider: provider, fallbacks: fallbacks, metrics: metrics}
}

// Generate returns advice for the given result. It never fails.
func (g *SuggestionGenerator) Generate(ctx context.Context, res *Result) string {
	fallback := g.Fallback(res.Level)
	if g.provider == nil {
		return fallback
	}
	return guard(ctx, g.metrics, stageSuggestion, fallback, func() (string, error) {
		text, err := g.provider.Generate(ctx, buildPrompt(res))
		if err != nil {
			if g.metrics != nil {
				g.metrics.RecordProviderError(ctx, "suggest", "generate")
			}
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", fmt.Errorf("provider returned empty suggestion")
		}
		return text, nil
	})
}

// Fallback returns the canned suggestion for a level.
func (g *SuggestionGenerator) Fallback(level int) string {
	if msg, ok := g.fallbacks[level]; ok {
		return msg
	}
	return genericSuggestion
}

func buildPrompt(res *Result) string {
	return fmt.Sprintf(`你是語音治療師，為 Level %d 的患者提供建議。
參考發音：%s
實際發音：%s
音質相似度：%.2f
文字準確度：%.2f

請用溫暖鼓勵的語氣，提供 3-4 個實用的練習建議。`,
		res.Level,
		res.Similarity.ReferenceText,
		res.Similarity.SampleText,
		FuseSimilarity(res.Similarity),
		res.Similarity.Text,
	)
}
