package oaihttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/interview-backend/internal/inference/config"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
)

type stubUpstream func(req *http.Request) (*http.Response, error)

func (f stubUpstream) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func reply(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestEngine(t *testing.T, cfg config.EngineConfig, fn stubUpstream) *Engine {
	t.Helper()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://upstream/"
	}
	e, err := NewWithHTTPClient(cfg, &http.Client{Transport: fn})
	require.NoError(t, err)
	return e
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(config.EngineConfig{Type: config.TypeOAIHTTP})
	assert.Error(t, err)
}

func TestGenerateTextReportRequest(t *testing.T) {
	var payload map[string]any
	e := newTestEngine(t, config.EngineConfig{
		APIKey:  "server-key",
		Timeout: config.Duration{Duration: 2 * time.Second},
	}, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/chat/completions", req.URL.Path)
		assert.Equal(t, "Bearer server-key", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		fenced := "```json\\n{\\\"score\\\":80}\\n```"
		return reply(http.StatusOK, "application/json", `{"choices":[{"message":{"content":"`+fenced+`"}}]}`), nil
	})

	out, err := e.GenerateText(context.Background(), "grader", []engine.Message{
		{Role: engine.RoleSystem, Content: "grade the transcript"},
		{Role: engine.RoleUser, Content: "  "},
		{Role: engine.RoleUser, Content: "INTERVIEWER: hi"},
	}, engine.GenerateOptions{JSON: true, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, `{"score":80}`, out)

	assert.Equal(t, "grader", payload["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, payload["response_format"])
	assert.Len(t, payload["messages"], 2)
	assert.NotContains(t, payload, "stream")
}

func TestGenerateTextCallerKeyWins(t *testing.T) {
	e := newTestEngine(t, config.EngineConfig{APIKey: "server-key"}, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer caller-key", req.Header.Get("Authorization"))
		return reply(http.StatusOK, "application/json", `{"choices":[{"text":"OK"}]}`), nil
	})
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{OwnerID: "u1", EngineKey: "caller-key"})

	out, err := e.GenerateText(ctx, "m", []engine.Message{{Role: engine.RoleUser, Content: "Reply only: OK"}}, engine.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "OK", out)
}

func TestGenerateTextFailures(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		e := newTestEngine(t, config.EngineConfig{}, func(*http.Request) (*http.Response, error) {
			return reply(http.StatusTooManyRequests, "application/json", `{"error":"slow down"}`), nil
		})
		_, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: engine.RoleUser, Content: "hi"}}, engine.GenerateOptions{})
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
		assert.True(t, httpErr.Retryable())
		assert.Contains(t, httpErr.Error(), "slow down")
	})

	t.Run("unauthorized is final", func(t *testing.T) {
		e := newTestEngine(t, config.EngineConfig{}, func(*http.Request) (*http.Response, error) {
			return reply(http.StatusUnauthorized, "application/json", ``), nil
		})
		_, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: engine.RoleUser, Content: "hi"}}, engine.GenerateOptions{})
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.False(t, httpErr.Retryable())
	})

	t.Run("empty completion", func(t *testing.T) {
		e := newTestEngine(t, config.EngineConfig{}, func(*http.Request) (*http.Response, error) {
			return reply(http.StatusOK, "application/json", `{"choices":[{"message":{"content":" "}}]}`), nil
		})
		_, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: engine.RoleUser, Content: "hi"}}, engine.GenerateOptions{})
		assert.Error(t, err)
	})

	t.Run("no messages", func(t *testing.T) {
		e := newTestEngine(t, config.EngineConfig{}, func(*http.Request) (*http.Response, error) {
			t.Fatal("upstream must not be called")
			return nil, nil
		})
		_, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: engine.RoleUser, Content: " "}}, engine.GenerateOptions{})
		assert.ErrorIs(t, err, errNoMessages)
	})
}

func TestStreamTextInterviewerTurn(t *testing.T) {
	e := newTestEngine(t, config.EngineConfig{
		StreamTimeout: config.Duration{Duration: 2 * time.Second},
	}, func(req *http.Request) (*http.Response, error) {
		assert.Contains(t, req.Header.Get("Accept"), "text/event-stream")
		sse := strings.Join([]string{
			`data: {"choices":[{"delta":{"content":"Tell me "}}]}`,
			"",
			": keep-alive",
			"event: ping",
			`data: {"choices":[{"delta":{"content":"about closures."}}]}`,
			"",
			"data: [DONE]",
			"",
			`data: {"choices":[{"delta":{"content":"ignored"}}]}`,
			"",
		}, "\n")
		return reply(http.StatusOK, "text/event-stream", sse), nil
	})

	var deltas []string
	full, err := e.StreamText(context.Background(), "interviewer", []engine.Message{
		{Role: engine.RoleUser, Content: "Begin the technical interview."},
	}, engine.GenerateOptions{}, func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)
	assert.Equal(t, "Tell me about closures.", full)
	assert.Equal(t, []string{"Tell me ", "about closures."}, deltas)
}

func TestStreamTextUpstreamErrorChunk(t *testing.T) {
	e := newTestEngine(t, config.EngineConfig{}, func(*http.Request) (*http.Response, error) {
		sse := "data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n\ndata: {\"error\":{\"message\":\"overloaded\"}}\n\n"
		return reply(http.StatusOK, "text/event-stream", sse), nil
	})

	var got strings.Builder
	_, err := e.StreamText(context.Background(), "m", []engine.Message{{Role: engine.RoleUser, Content: "hi"}}, engine.GenerateOptions{}, func(d string) { got.WriteString(d) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, "par", got.String())
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(` {"a":1} `))
	assert.Equal(t, "x", stripCodeFence("```x```"))
}
