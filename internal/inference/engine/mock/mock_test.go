package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/interview-backend/internal/inference/engine"
)

func TestStreamTextChunksEcho(t *testing.T) {
	e := New()
	var deltas []string
	full, err := e.StreamText(context.Background(), "m", []engine.Message{
		{Role: engine.RoleSystem, Content: "sys"},
		{Role: engine.RoleUser, Content: "tell me about goroutines please"},
	}, engine.GenerateOptions{}, func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("StreamText: %v", err)
	}
	if full != "mock: tell me about goroutines please" {
		t.Fatalf("full=%q", full)
	}
	if strings.Join(deltas, "") != full || len(deltas) < 2 {
		t.Fatalf("deltas=%q", deltas)
	}
}

func TestGenerateTextJSON(t *testing.T) {
	out, err := New().GenerateText(context.Background(), "m", nil, engine.GenerateOptions{JSON: true})
	if err != nil || out != DefaultJSONReply {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().GenerateText(ctx, "m", nil, engine.GenerateOptions{}); err == nil {
		t.Fatal("expected error on canceled context")
	}
}
