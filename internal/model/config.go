package model

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration, loaded once at startup and passed
// by reference into the pipeline. There is no process-wide mutable engine
// state beyond this immutable configuration.
type Config struct {
	Channels    ChannelsConfig    `yaml:"channels"`
	Rules       RulesConfig       `yaml:"rules"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Captioner   CaptionerConfig   `yaml:"captioner"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Output      OutputConfig      `yaml:"output"`
}

// ChannelsConfig holds the operating points for the score channels. The
// logic channel has no threshold: it alarms iff a conflict finding exists.
type ChannelsConfig struct {
	Tamper   ChannelConfig `yaml:"tamper"`
	Semantic ChannelConfig `yaml:"semantic"`
}

// Validate checks every channel's operating point. Any failure is fatal and
// must abort the batch before processing begins.
func (c ChannelsConfig) Validate() error {
	if err := c.Tamper.Validate(ChannelTamper); err != nil {
		return fmt.Errorf("threshold misconfiguration: %w", err)
	}
	if err := c.Semantic.Validate(ChannelSemantic); err != nil {
		return fmt.Errorf("threshold misconfiguration: %w", err)
	}
	return nil
}

// RulesConfig configures the conflict rule engine.
type RulesConfig struct {
	// Matching selects "substring" (default, faithful to the original
	// heuristics) or "word" (word-boundary matching for Latin-script
	// keywords; CJK keywords always match by substring).
	Matching string `yaml:"matching"`
	// RuleSetPath optionally loads a custom YAML rule set instead of the
	// built-in tables.
	RuleSetPath string `yaml:"ruleset_path"`
}

// ProvidersConfig configures the external score providers.
type ProvidersConfig struct {
	// TamperURL / SemanticURL point at remote scoring services. Empty means
	// the channel is unavailable and fails open.
	TamperURL   string        `yaml:"tamper_url"`
	SemanticURL string        `yaml:"semantic_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	HTTPProxy   string        `yaml:"http_proxy"`
	HTTPSProxy  string        `yaml:"https_proxy"`
	NoProxy     string        `yaml:"no_proxy"`
}

// CaptionerConfig configures the optional VLM attribute source. When the
// provider is empty, attributes come from the sample record's Meta_* columns.
type CaptionerConfig struct {
	Provider   string `yaml:"provider"` // "", "openai", "ollama"
	Model      string `yaml:"model"`
	APIKey     string `yaml:"-"` // from environment, never persisted
	BaseURL    string `yaml:"base_url"`
	Timeout    int    `yaml:"timeout"` // seconds
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
	NoProxy    string `yaml:"no_proxy"`
}

// CacheConfig controls score/caption caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig sets worker counts for batch processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig throttles calls to remote providers.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the standard operating points: tamper alarms above
// 0.5, semantic similarity alarms below 0.22, matching the calibrated
// thresholds of the reference deployment.
func DefaultConfig() *Config {
	return &Config{
		Channels: ChannelsConfig{
			Tamper:   ChannelConfig{Threshold: 0.5, Direction: HighIsRisk},
			Semantic: ChannelConfig{Threshold: 0.22, Direction: LowIsRisk},
		},
		Rules: RulesConfig{
			Matching: "substring",
		},
		Providers: ProvidersConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
		Captioner: CaptionerConfig{
			Timeout: 30,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Output: OutputConfig{},
	}
}
