package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/yungbote/interview-backend/internal/inference/config"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
)

func TestBuildContents(t *testing.T) {
	system, contents := buildContents([]engine.Message{
		{Role: engine.RoleSystem, Content: "be an interviewer"},
		{Role: engine.RoleUser, Content: "Begin."},
		{Role: engine.RoleAssistant, Content: "Hello, first question."},
		{Role: engine.RoleUser, Content: "   "},
		{Role: engine.RoleSystem, Content: "stay brief"},
		{Role: engine.RoleUser, Content: "My answer."},
	})
	if system != "be an interviewer\n\nstay brief" {
		t.Fatalf("system=%q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("len(contents)=%d", len(contents))
	}
	wantRoles := []string{"user", "model", "user"}
	for i, c := range contents {
		if c.Role != wantRoles[i] {
			t.Fatalf("contents[%d].Role=%q, want %q", i, c.Role, wantRoles[i])
		}
	}
	if contents[2].Parts[0].Text != "My answer." {
		t.Fatalf("last text=%q", contents[2].Parts[0].Text)
	}
}

func TestBuildConfig(t *testing.T) {
	cfg := buildConfig("sys", engine.GenerateOptions{Temperature: 0.4, JSON: true})
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "sys" {
		t.Fatalf("system instruction=%+v", cfg.SystemInstruction)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.4) {
		t.Fatalf("temperature=%v", cfg.Temperature)
	}
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("mime=%q", cfg.ResponseMIMEType)
	}
	if cfg := buildConfig("", engine.GenerateOptions{}); cfg.SystemInstruction != nil || cfg.Temperature != nil {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestClientForKeySelection(t *testing.T) {
	var keys []string
	fake := func(ctx context.Context, apiKey string) (*genai.Client, error) {
		keys = append(keys, apiKey)
		return &genai.Client{}, nil
	}

	e := New(config.EngineConfig{Type: "gemini"})
	e.newClient = fake
	if _, err := e.clientFor(context.Background()); !errors.Is(err, engine.ErrMissingAPIKey) {
		t.Fatalf("err=%v, want ErrMissingAPIKey", err)
	}

	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{EngineKey: "user-key"})
	if _, err := e.clientFor(ctx); err != nil {
		t.Fatalf("clientFor(user key): %v", err)
	}

	e = New(config.EngineConfig{Type: "gemini", APIKey: "server-key"})
	e.newClient = fake
	a, _ := e.clientFor(context.Background())
	b, _ := e.clientFor(context.Background())
	if a != b {
		t.Fatal("server client should be reused")
	}

	want := []string{"user-key", "server-key"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("keys=%v, want %v", keys, want)
	}
}

func TestMapError(t *testing.T) {
	mapped := mapError(&genai.APIError{Code: http.StatusTooManyRequests})
	var apiErr *APIError
	if !errors.As(mapped, &apiErr) || !apiErr.Retryable() {
		t.Fatalf("mapped=%v", mapped)
	}
	plain := errors.New("dial tcp: refused")
	if mapError(plain) != plain {
		t.Fatal("non-API errors pass through")
	}
}
