// Command speechgrade scores a pronunciation sample against a reference
// recording and prints the analysis result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/articulab/speechgrade/internal/config"
	"github.com/articulab/speechgrade/internal/health"
	"github.com/articulab/speechgrade/internal/modelpool"
	"github.com/articulab/speechgrade/internal/observe"
	"github.com/articulab/speechgrade/internal/resilience"
	"github.com/articulab/speechgrade/internal/score"
	"github.com/articulab/speechgrade/pkg/audio"
	"github.com/articulab/speechgrade/pkg/provider/acoustic"
	"github.com/articulab/speechgrade/pkg/provider/acoustic/melhttp"
	"github.com/articulab/speechgrade/pkg/provider/asr"
	"github.com/articulab/speechgrade/pkg/provider/asr/whisper"
	"github.com/articulab/speechgrade/pkg/provider/suggest"
	"github.com/articulab/speechgrade/pkg/provider/suggest/anyllm"
	oaisuggest "github.com/articulab/speechgrade/pkg/provider/suggest/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: speechgrade [-config config.yaml] reference.wav sample.wav")
		return 2
	}
	refPath, samPath := flag.Arg(0), flag.Arg(1)

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "speechgrade: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	slog.Info("speechgrade starting",
		"reference", refPath,
		"sample", samPath,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	if cfg.Server.MetricsAddr != "" {
		go serveMetrics(cfg.Server.MetricsAddr, health.New(readinessChecks(cfg)...))
	}

	// ── Load clips ────────────────────────────────────────────────────────────
	ref, err := loadClip(refPath)
	if err != nil {
		slog.Error("failed to load reference clip", "path", refPath, "err", err)
		return 1
	}
	sam, err := loadClip(samPath)
	if err != nil {
		slog.Error("failed to load sample clip", "path", samPath, "err", err)
		return 1
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	pools := modelpool.NewRegistry[asr.Provider]()
	defer func() {
		if err := pools.Close(); err != nil {
			slog.Warn("model pool close error", "err", err)
		}
	}()

	asrProvider, err := buildASRProvider(cfg, pools)
	if err != nil {
		slog.Error("failed to build asr provider", "err", err)
		return 1
	}
	acousticProvider, err := buildAcousticProvider(cfg)
	if err != nil {
		slog.Error("failed to build acoustic provider", "err", err)
		return 1
	}
	suggestProvider, err := buildSuggestProvider(cfg)
	if err != nil {
		// The pipeline serves canned suggestions without a backend.
		slog.Warn("suggestion provider unavailable, using fallbacks", "err", err)
		suggestProvider = nil
	}

	// ── Analyze ───────────────────────────────────────────────────────────────
	analyzer := score.New(cfg.Scoring, asrProvider, acousticProvider, suggestProvider,
		score.WithMetrics(observe.DefaultMetrics()))
	result := analyzer.Analyze(ctx, ref, sam)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		slog.Error("failed to encode result", "err", err)
		return 1
	}
	if result.Degraded() {
		return 1
	}
	return 0
}

func loadClip(path string) (*audio.Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return audio.Decode(data)
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildASRProvider constructs the recognizer behind a model pool so that
// repeated or concurrent runs sharing a model ID share loaded instances.
func buildASRProvider(cfg *config.Config, pools *modelpool.Registry[asr.Provider]) (asr.Provider, error) {
	entry := cfg.Providers.ASR
	switch entry.Name {
	case "whisper":
		pool, err := pools.GetOrCreate(entry.ModelID, entry.PoolSize,
			func() (asr.Provider, error) {
				var opts []whisper.Option
				if entry.Language != "" {
					opts = append(opts, whisper.WithLanguage(entry.Language))
				}
				return whisper.New(entry.ModelPath, opts...)
			},
			modelpool.WithCloser[asr.Provider](func(p asr.Provider) error {
				if c, ok := p.(*whisper.Provider); ok {
					return c.Close()
				}
				return nil
			}),
		)
		if err != nil {
			return nil, err
		}
		return asr.NewPooled(pool), nil
	default:
		return nil, fmt.Errorf("unknown asr provider %q", entry.Name)
	}
}

func buildAcousticProvider(cfg *config.Config) (acoustic.Provider, error) {
	entry := cfg.Providers.Acoustic
	switch entry.Name {
	case "melhttp":
		var opts []melhttp.Option
		if entry.Model != "" {
			opts = append(opts, melhttp.WithModel(entry.Model))
		}
		return melhttp.New(entry.ServerURL, opts...)
	default:
		return nil, fmt.Errorf("unknown acoustic provider %q", entry.Name)
	}
}

func buildSuggestProvider(cfg *config.Config) (suggest.Provider, error) {
	entry := cfg.Providers.Suggest
	primary, err := buildSuggestBackend(entry.Name, entry.APIKey, entry.Model)
	if err != nil {
		return nil, err
	}
	if entry.Fallback == nil {
		return primary, nil
	}
	backup, err := buildSuggestBackend(entry.Fallback.Name, entry.Fallback.APIKey, entry.Fallback.Model)
	if err != nil {
		return nil, err
	}
	group := resilience.NewSuggestFallback(primary, entry.Name, resilience.FallbackConfig{})
	group.AddFallback(entry.Fallback.Name, backup)
	return group, nil
}

func buildSuggestBackend(name, apiKey, model string) (suggest.Provider, error) {
	switch name {
	case "gemini", "anthropic", "ollama":
		var opts []anyllmlib.Option
		if apiKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(apiKey))
		}
		return anyllm.New(name, model, opts...)
	case "openai":
		return oaisuggest.New(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown suggest provider %q", name)
	}
}

// ── Metrics and health ────────────────────────────────────────────────────────

func serveMetrics(addr string, h *health.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	h.Register(mux)
	slog.Info("metrics listener starting", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics listener stopped", "err", err)
	}
}

// readinessChecks probes the dependencies the pipeline cannot run without:
// the local recognizer model file and the acoustic encoder server.
func readinessChecks(cfg *config.Config) []health.Checker {
	return []health.Checker{
		{
			Name: "asr_model",
			Check: func(context.Context) error {
				_, err := os.Stat(cfg.Providers.ASR.ModelPath)
				return err
			},
		},
		{
			Name: "acoustic_server",
			Check: func(ctx context.Context) error {
				req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.Providers.Acoustic.ServerURL, nil)
				if err != nil {
					return err
				}
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					return err
				}
				return resp.Body.Close()
			},
		},
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
