package engine

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMissingAPIKey is returned when neither the engine config nor the
// request carries a credential for the upstream provider.
var ErrMissingAPIKey = errors.New("engine: no api key configured")

type Message struct {
	Role    string
	Content string
}

type GenerateOptions struct {
	Temperature float64
	// JSON asks the upstream for a JSON-only response where supported.
	JSON bool
}

type Engine interface {
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
	StreamText(ctx context.Context, model string, messages []Message, opts GenerateOptions, onDelta func(delta string)) (full string, err error)
}
