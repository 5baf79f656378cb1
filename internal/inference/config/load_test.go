package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationDecoding(t *testing.T) {
	var j struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"30s","b":1000000000}`), &j))
	require.Equal(t, 30*time.Second, j.A.Duration)
	require.Equal(t, time.Second, j.B.Duration)

	var y struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 1m\nb: 2000000000\n"), &y))
	require.Equal(t, time.Minute, y.A.Duration)
	require.Equal(t, 2*time.Second, y.B.Duration)

	require.Error(t, yaml.Unmarshal([]byte("a: soon\n"), &y))
}

func TestNormalize(t *testing.T) {
	c := EngineConfig{}
	require.NoError(t, c.Normalize())
	require.Equal(t, TypeMock, c.Type)
	require.Equal(t, 3, c.MaxAttempts)

	c = EngineConfig{Type: "OpenAI_HTTP", BaseURL: "http://upstream/", Model: "m"}
	require.NoError(t, c.Normalize())
	require.Equal(t, TypeOAIHTTP, c.Type)
	require.Equal(t, "http://upstream", c.BaseURL)
	require.Equal(t, "/v1/chat/completions", c.ChatCompletionsPath)
	require.Equal(t, 60*time.Second, c.Timeout.Duration)

	c = EngineConfig{Type: "oai_http", Model: "m"}
	require.Error(t, c.Normalize())

	c = EngineConfig{Type: "gemini"}
	require.NoError(t, c.Normalize())
	require.Equal(t, DefaultGeminiModel, c.Model)

	c = EngineConfig{Type: "carrier-pigeon"}
	require.Error(t, c.Normalize())
}
