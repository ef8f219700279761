package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known backend names per provider kind.
var ValidProviderNames = map[string][]string{
	"asr":      {"whisper"},
	"acoustic": {"melhttp"},
	"suggest":  {"gemini", "openai", "anthropic", "ollama"},
}

// Load reads the YAML configuration file at path, merges it over [Default],
// and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	errs = append(errs, validateProviderName("asr", cfg.Providers.ASR.Name)...)
	errs = append(errs, validateProviderName("acoustic", cfg.Providers.Acoustic.Name)...)
	errs = append(errs, validateProviderName("suggest", cfg.Providers.Suggest.Name)...)
	if fb := cfg.Providers.Suggest.Fallback; fb != nil {
		errs = append(errs, validateProviderName("suggest", fb.Name)...)
	}

	if cfg.Providers.ASR.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("providers.asr.pool_size must be >= 1, got %d", cfg.Providers.ASR.PoolSize))
	}

	s := cfg.Scoring
	if sum := s.Weights.SNR + s.Weights.HNR + s.Weights.Entropy +
		s.Weights.Confidence + s.Weights.STOI + s.Weights.Similarity + s.Weights.Text; math.Abs(sum-1) > 1e-6 {
		errs = append(errs, fmt.Errorf("scoring.weights must sum to 1.0, got %.4f", sum))
	}
	if !(s.Levels.Level1 > s.Levels.Level2 && s.Levels.Level2 > s.Levels.Level3 && s.Levels.Level3 > s.Levels.Level4) {
		errs = append(errs, fmt.Errorf("scoring.levels thresholds must be strictly descending: %v %v %v %v",
			s.Levels.Level1, s.Levels.Level2, s.Levels.Level3, s.Levels.Level4))
	}
	if s.Overrides.VeryLowText > s.Overrides.LowText {
		errs = append(errs, fmt.Errorf("scoring.overrides.very_low_text (%v) must not exceed low_text (%v)",
			s.Overrides.VeryLowText, s.Overrides.LowText))
	}
	if s.Overrides.GuardLevel < 1 || s.Overrides.GuardLevel > 5 {
		errs = append(errs, fmt.Errorf("scoring.overrides.guard_level must be in 1..5, got %d", s.Overrides.GuardLevel))
	}
	if s.PadFrames <= 0 {
		errs = append(errs, fmt.Errorf("scoring.pad_frames must be positive, got %d", s.PadFrames))
	}
	if s.HNRMin >= s.HNRMax {
		errs = append(errs, fmt.Errorf("scoring.hnr_min (%v) must be below hnr_max (%v)", s.HNRMin, s.HNRMax))
	}
	for level := range s.FallbackSuggestions {
		if level < 1 || level > 5 {
			errs = append(errs, fmt.Errorf("scoring.fallback_suggestions key %d outside 1..5", level))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName returns an error when name is set but unrecognised.
func validateProviderName(kind, name string) []error {
	if name == "" {
		return nil
	}
	for _, valid := range ValidProviderNames[kind] {
		if name == valid {
			return nil
		}
	}
	return []error{fmt.Errorf("providers.%s.name %q is not recognised; valid values: %v", kind, name, ValidProviderNames[kind])}
}
