package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got yaml kind %d", node.Kind)
	}
	if node.Tag == "!!int" {
		n, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

const (
	TypeMock    = "mock"
	TypeOAIHTTP = "oai_http"
	TypeGemini  = "gemini"

	DefaultGeminiModel = "gemini-2.5-flash"
)

// Normalize fills defaults and validates the engine configuration in place.
func (c *EngineConfig) Normalize() error {
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	c.Model = strings.TrimSpace(c.Model)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.ChatCompletionsPath = strings.TrimSpace(c.ChatCompletionsPath)

	if c.Type == "" {
		c.Type = TypeMock
	}
	if c.MaxAttempts < 0 {
		return errors.New("engine.max_attempts must be >= 0")
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.StreamTimeout.Duration < 0 {
		return errors.New("invalid engine.stream_timeout")
	}

	switch c.Type {
	case TypeMock:
		if c.Model == "" {
			c.Model = "mock-1"
		}
	case "openai_http", TypeOAIHTTP:
		// Normalize type (avoid implying OpenAI-as-provider).
		c.Type = TypeOAIHTTP
		if c.BaseURL == "" {
			return errors.New("oai_http engine missing engine.base_url")
		}
		if c.Model == "" {
			return errors.New("oai_http engine missing engine.model")
		}
		if c.ChatCompletionsPath == "" {
			c.ChatCompletionsPath = "/v1/chat/completions"
		}
		if c.Timeout.Duration <= 0 {
			c.Timeout = Duration{Duration: 60 * time.Second}
		}
	case TypeGemini:
		if c.Model == "" {
			c.Model = DefaultGeminiModel
		}
	default:
		return fmt.Errorf("unsupported engine type %q", c.Type)
	}
	return nil
}
