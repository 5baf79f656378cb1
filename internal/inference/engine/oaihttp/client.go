package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/interview-backend/internal/inference/config"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
)

const (
	defaultCallTimeout = 60 * time.Second
	maxErrorBody       = 1 << 20
)

var errNoMessages = errors.New("oai_http: no non-empty messages")

// Engine talks to any server that implements the OpenAI chat completions
// protocol.
type Engine struct {
	endpoint string
	apiKey   string

	// callTimeout bounds GenerateText; streamTimeout, when set, bounds
	// StreamText on top of the caller's deadline.
	callTimeout   time.Duration
	streamTimeout time.Duration

	hc *http.Client
}

func New(cfg config.EngineConfig) (*Engine, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("oai_http: base_url required")
	}
	path := strings.TrimSpace(cfg.ChatCompletionsPath)
	if path == "" {
		path = "/v1/chat/completions"
	}
	callTimeout := cfg.Timeout.Duration
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Engine{
		endpoint:      base + path,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		callTimeout:   callTimeout,
		streamTimeout: cfg.StreamTimeout.Duration,
		hc:            &http.Client{Transport: newTransport()},
	}, nil
}

// NewWithHTTPClient swaps the transport, mainly so tests can stub the
// upstream with a RoundTripper.
func NewWithHTTPClient(cfg config.EngineConfig, hc *http.Client) (*Engine, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if hc != nil {
		e.hc = hc
	}
	return e, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	msgs := toChatMessages(messages)
	if len(msgs) == 0 {
		return "", errNoMessages
	}
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	resp, err := e.post(ctx, newChatRequest(model, msgs, opts, false), "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("oai_http: decode completion: %w", err)
	}
	text := out.text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("oai_http: empty completion")
	}
	if opts.JSON {
		return stripCodeFence(text), nil
	}
	return text, nil
}

func (e *Engine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	msgs := toChatMessages(messages)
	if len(msgs) == 0 {
		return "", errNoMessages
	}
	if e.streamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.streamTimeout)
		defer cancel()
	}

	resp, err := e.post(ctx, newChatRequest(model, msgs, opts, true), "text/event-stream")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = readEvents(resp.Body, func(data string) error {
		delta, err := decodeStreamChunk(data)
		if err != nil || delta == "" {
			return err
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	// A cut connection can look like a clean EOF; trust the context.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return full.String(), nil
}

// post sends one chat completions request. Non-2xx answers come back as
// *HTTPError with the body closed.
func (e *Engine) post(ctx context.Context, body chatRequest, accept string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if key := e.keyFor(ctx); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := e.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

// keyFor prefers the caller's own key over the configured server key.
func (e *Engine) keyFor(ctx context.Context) string {
	if k := ctxutil.EngineKey(ctx); k != "" {
		return k
	}
	return e.apiKey
}
