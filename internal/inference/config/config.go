package config

import "time"

// Duration accepts "30s"-style strings or integer nanoseconds in JSON and
// YAML.
type Duration struct {
	Duration time.Duration
}

type EngineConfig struct {
	// Type selects the engine: "mock", "oai_http" or "gemini".
	Type string `json:"type" yaml:"type"`

	// Model is the upstream model name sent with every call.
	Model string `json:"model,omitempty" yaml:"model"`

	// BaseURL is the upstream base URL (for "oai_http" engines).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url"`

	// APIKey is the server-side credential. A per-request key from the
	// client takes precedence when present.
	APIKey string `json:"api_key,omitempty" yaml:"api_key"`

	// OpenAI-compatible endpoint path (default is used if empty).
	ChatCompletionsPath string `json:"chat_completions_path,omitempty" yaml:"chat_completions_path"`

	// Default upstream timeouts. Streaming requests should rely on caller cancellation.
	Timeout       Duration `json:"timeout,omitempty" yaml:"timeout"`
	StreamTimeout Duration `json:"stream_timeout,omitempty" yaml:"stream_timeout"`

	// MaxAttempts bounds retries of non-streaming calls on transient errors.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts"`
}
