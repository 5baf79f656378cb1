package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/yungbote/interview-backend/internal/inference/config"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
)

// Engine implements engine.Engine on the Gemini API. A per-request key on
// the context gets its own client; otherwise the configured key is used.
type Engine struct {
	apiKey string

	mu     sync.Mutex
	client *genai.Client

	newClient func(ctx context.Context, apiKey string) (*genai.Client, error)
}

func New(cfg config.EngineConfig) *Engine {
	return &Engine{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		newClient: newGenAIClient,
	}
}

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

func (e *Engine) clientFor(ctx context.Context) (*genai.Client, error) {
	if key := ctxutil.EngineKey(ctx); key != "" && key != e.apiKey {
		return e.newClient(ctx, key)
	}
	if e.apiKey == "" {
		return nil, engine.ErrMissingAPIKey
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		c, err := e.newClient(ctx, e.apiKey)
		if err != nil {
			return nil, err
		}
		e.client = c
	}
	return e.client, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	client, err := e.clientFor(ctx)
	if err != nil {
		return "", err
	}
	system, contents := buildContents(messages)
	if len(contents) == 0 {
		return "", errors.New("no messages")
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, buildConfig(system, opts))
	if err != nil {
		return "", mapError(err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty upstream completion")
	}
	return text, nil
}

func (e *Engine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	client, err := e.clientFor(ctx)
	if err != nil {
		return "", err
	}
	system, contents := buildContents(messages)
	if len(contents) == 0 {
		return "", errors.New("no messages")
	}

	var full strings.Builder
	for resp, err := range client.Models.GenerateContentStream(ctx, model, contents, buildConfig(system, opts)) {
		if err != nil {
			return "", mapError(err)
		}
		delta := resp.Text()
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return full.String(), nil
}

func buildConfig(system string, opts engine.GenerateOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		temp := float32(opts.Temperature)
		cfg.Temperature = &temp
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// buildContents folds system messages into one system instruction and maps
// the assistant role to Gemini's "model".
func buildContents(msgs []engine.Message) (string, []*genai.Content) {
	var system []string
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := "user"
		switch m.Role {
		case engine.RoleSystem:
			system = append(system, content)
			continue
		case engine.RoleAssistant:
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: content}},
		})
	}
	return strings.Join(system, "\n\n"), out
}

// APIError carries the upstream status so callers can decide on retries.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini error: status=%d: %v", e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func mapError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Err: err}
	}
	return err
}
