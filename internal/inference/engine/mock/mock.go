package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/interview-backend/internal/inference/engine"
)

// DefaultJSONReply is a well-formed interview report. Its title and content
// fields also make it a valid study article.
const DefaultJSONReply = `{"score":70,"strengths":["Clear communication"],"improvements":["Go deeper on trade-offs"],"summary":"Mock evaluation.","topics_evaluated":[],` +
	`"title":"Mock article","content":"## Overview\nMock content."}`

// Engine echoes the last user message, or returns JSONReply when JSON
// output is requested. It never calls the network.
type Engine struct {
	JSONReply string
}

func New() *Engine {
	return &Engine{JSONReply: DefaultJSONReply}
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_ = model

	if opts.JSON {
		return e.JSONReply, nil
	}

	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, engine.RoleUser) {
			user = messages[i].Content
			break
		}
	}
	if strings.TrimSpace(user) == "" {
		return "mock: ok", nil
	}
	return fmt.Sprintf("mock: %s", user), nil
}

func (e *Engine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	full, err := e.GenerateText(ctx, model, messages, opts)
	if err != nil {
		return "", err
	}
	if onDelta == nil {
		return full, nil
	}
	// One delta per word keeps multi-byte runes intact.
	for _, word := range strings.SplitAfter(full, " ") {
		if word == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		onDelta(word)
	}
	return full, nil
}
