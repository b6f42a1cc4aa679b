package model

import "time"

// Config is the complete runtime configuration, built once at startup
type Config struct {
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Captions     CaptionsConfig    `yaml:"captions" mapstructure:"captions"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"` // Bound on one check request
	CORSOrigins    []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// CaptionsConfig controls caption retrieval
type CaptionsConfig struct {
	Backend             string        `yaml:"backend" mapstructure:"backend"` // "ytdlp" or "innertube"
	YtDlpPath           string        `yaml:"ytdlp_path" mapstructure:"ytdlp_path"`
	TempDir             string        `yaml:"temp_dir" mapstructure:"temp_dir"` // Empty means os.TempDir()
	Languages           []string      `yaml:"languages" mapstructure:"languages"`
	MaxAttempts         int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase         time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	BackoffMax          time.Duration `yaml:"backoff_max" mapstructure:"backoff_max"`
	AttemptTimeout      time.Duration `yaml:"attempt_timeout" mapstructure:"attempt_timeout"`
	MinRawLength        int           `yaml:"min_raw_length" mapstructure:"min_raw_length"`
	MinTranscriptLength int           `yaml:"min_transcript_length" mapstructure:"min_transcript_length"`
	RespectRobots       bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// LLMConfig selects and tunes the generative-text provider
type LLMConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Model            string `yaml:"model" mapstructure:"model"`
	APIKey           string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL          string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout          int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens        int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TranscriptBudget int    `yaml:"transcript_budget" mapstructure:"transcript_budget"` // characters sent for claim extraction
	AnalysisBudget   int    `yaml:"analysis_budget" mapstructure:"analysis_budget"`     // characters of timestamped transcript for structured mode
}

// HTTPConfig holds settings for outbound HTTP
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitConfig bounds request rates, both inbound per client and outbound per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Inbound, per client IP
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	UpstreamPerSecond float64 `yaml:"upstream_per_second" mapstructure:"upstream_per_second"` // Outbound, per video host
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // text or json
	File       string `yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":5000",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   4 * time.Minute,
			RequestTimeout: 3 * time.Minute,
			CORSOrigins:    []string{"*"},
		},
		Captions: CaptionsConfig{
			Backend:             "ytdlp",
			YtDlpPath:           "yt-dlp",
			Languages:           []string{"en", "en-US", "en-GB"},
			MaxAttempts:         3,
			BackoffBase:         time.Second,
			BackoffMax:          8 * time.Second,
			AttemptTimeout:      45 * time.Second,
			MinRawLength:        50,
			MinTranscriptLength: 50,
		},
		LLM: LLMConfig{
			Provider:         "gemini",
			Model:            "gemini-1.5-flash",
			Timeout:          60,
			MaxTokens:        2048,
			TranscriptBudget: 4000,
			AnalysisBudget:   50000,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			MaxBodyBytes: 6 << 20,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 1,
			BurstSize:         5,
			UpstreamPerSecond: 2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Redacted returns a copy with secrets masked, for display
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "********"
	}
	return c
}
