// Package config provides the configuration schema, loader, and defaults for
// the speechgrade scoring engine.
//
// Every empirically tuned scoring constant — composite weights, level
// thresholds, text-similarity override caps — lives in [ScoringConfig] so
// that retuning is a config change, not a code change. The defaults reproduce
// the values the therapy application was calibrated with; treat changing them
// as a policy decision.
package config

// LogLevel controls log verbosity for the engine.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for speechgrade.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Scoring   ScoringConfig   `yaml:"scoring"`
}

// ServerConfig holds logging and metrics settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address the Prometheus /metrics endpoint listens
	// on (e.g. ":2112"). Empty disables the metrics listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ProvidersConfig declares the external collaborators of the pipeline.
type ProvidersConfig struct {
	ASR      ASRConfig      `yaml:"asr"`
	Acoustic AcousticConfig `yaml:"acoustic"`
	Suggest  SuggestConfig  `yaml:"suggest"`
}

// ASRConfig selects and configures the speech-recognition backend.
type ASRConfig struct {
	// Name selects the backend implementation. Currently "whisper".
	Name string `yaml:"name"`

	// ModelPath is the filesystem path of the whisper.cpp model file.
	ModelPath string `yaml:"model_path"`

	// ModelID keys the shared model pool (e.g. "small"). Jobs requesting the
	// same ModelID share model instances.
	ModelID string `yaml:"model_id"`

	// Language is the transcription locale (e.g. "zh"). Defaults to "zh".
	Language string `yaml:"language"`

	// PoolSize bounds concurrent use of the loaded model. 1 (the default)
	// serialises all inference on a single shared instance.
	PoolSize int `yaml:"pool_size"`
}

// AcousticConfig configures the embedding encoder backend.
type AcousticConfig struct {
	// Name selects the backend implementation. Currently "melhttp".
	Name string `yaml:"name"`

	// ServerURL is the base URL of the encoder model server.
	ServerURL string `yaml:"server_url"`

	// Model is the model identifier forwarded to the encoder server.
	Model string `yaml:"model"`
}

// SuggestConfig configures the generative suggestion backend.
type SuggestConfig struct {
	// Name selects the backend: "gemini", "openai", "anthropic", "ollama".
	Name string `yaml:"name"`

	// APIKey authenticates against the backend. When empty the backend's
	// usual environment variable is consulted.
	APIKey string `yaml:"api_key"`

	// Model is the generative model identifier
	// (e.g. "gemini-1.5-flash-latest").
	Model string `yaml:"model"`

	// Fallback optionally configures a secondary backend tried when the
	// primary fails or its circuit breaker is open.
	Fallback *SuggestBackend `yaml:"fallback"`
}

// SuggestBackend identifies a single generative backend.
type SuggestBackend struct {
	Name   string `yaml:"name"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ScoringConfig centralises the tuned constants of the scoring pipeline.
type ScoringConfig struct {
	Weights   Weights        `yaml:"weights"`
	Levels    LevelConfig    `yaml:"levels"`
	Overrides OverrideConfig `yaml:"overrides"`

	// PadFrames is the fixed time-axis length spectral representations are
	// padded or trimmed to before encoding.
	PadFrames int `yaml:"pad_frames"`

	// HNRMin and HNRMax bound the plausible range for a mean
	// harmonics-to-noise ratio; means outside it fall back to the default.
	HNRMin float64 `yaml:"hnr_min"`
	HNRMax float64 `yaml:"hnr_max"`

	// FallbackSuggestions maps level (1–5) to the canned message used when
	// suggestion generation fails. Missing levels use built-in defaults.
	FallbackSuggestions map[int]string `yaml:"fallback_suggestions"`
}

// Weights are the composite-index weights. They apply, in order, to the SNR,
// HNR, entropy, confidence, and STOI ratios, the fused similarity, and the
// text similarity.
type Weights struct {
	SNR        float64 `yaml:"snr"`
	HNR        float64 `yaml:"hnr"`
	Entropy    float64 `yaml:"entropy"`
	Confidence float64 `yaml:"confidence"`
	STOI       float64 `yaml:"stoi"`
	Similarity float64 `yaml:"similarity"`
	Text       float64 `yaml:"text"`
}

// LevelConfig holds the descending index thresholds for levels 1–4.
// An index below Level4 classifies as level 5.
type LevelConfig struct {
	Level1 float64 `yaml:"level1"`
	Level2 float64 `yaml:"level2"`
	Level3 float64 `yaml:"level3"`
	Level4 float64 `yaml:"level4"`
}

// OverrideConfig holds the text-similarity override policy: caps applied to
// the index when the transcript barely matches, and the final guard that
// prevents strong acoustic scores from masking a wrong transcript.
type OverrideConfig struct {
	// LowText / LowTextCap: text similarity below LowText caps the index at
	// LowTextCap.
	LowText    float64 `yaml:"low_text"`
	LowTextCap float64 `yaml:"low_text_cap"`

	// VeryLowText / VeryLowTextCap: a stricter second cap.
	VeryLowText    float64 `yaml:"very_low_text"`
	VeryLowTextCap float64 `yaml:"very_low_text_cap"`

	// GuardText is the text similarity below which a level of 1 or 2 is
	// forced to GuardLevel with the index set to GuardIndex.
	GuardText  float64 `yaml:"guard_text"`
	GuardLevel int     `yaml:"guard_level"`
	GuardIndex float64 `yaml:"guard_index"`
}

// DefaultScoring returns the calibrated production scoring constants.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Weights: Weights{
			SNR:        0.15,
			HNR:        0.10,
			Entropy:    0.15,
			Confidence: 0.15,
			STOI:       0.15,
			Similarity: 0.20,
			Text:       0.10,
		},
		Levels: LevelConfig{
			Level1: 0.85,
			Level2: 0.65,
			Level3: 0.45,
			Level4: 0.25,
		},
		Overrides: OverrideConfig{
			LowText:        0.30,
			LowTextCap:     0.40,
			VeryLowText:    0.20,
			VeryLowTextCap: 0.25,
			GuardText:      0.25,
			GuardLevel:     4,
			GuardIndex:     0.35,
		},
		PadFrames: 3000,
		HNRMin:    -50,
		HNRMax:    50,
	}
}

// Default returns a complete Config with production defaults: whisper ASR in
// the zh locale on a single-instance pool, a local encoder server, Gemini
// suggestions, and the calibrated scoring constants.
func Default() *Config {
	return &Config{
		Server: ServerConfig{LogLevel: LogInfo},
		Providers: ProvidersConfig{
			ASR: ASRConfig{
				Name:     "whisper",
				ModelID:  "small",
				Language: "zh",
				PoolSize: 1,
			},
			Acoustic: AcousticConfig{
				Name:      "melhttp",
				ServerURL: "http://localhost:9090",
			},
			Suggest: SuggestConfig{
				Name:  "gemini",
				Model: "gemini-1.5-flash-latest",
			},
		},
		Scoring: DefaultScoring(),
	}
}
