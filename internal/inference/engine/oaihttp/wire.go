package oaihttp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/interview-backend/internal/inference/engine"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	Stream         bool           `json:"stream,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

func newChatRequest(model string, msgs []chatMessage, opts engine.GenerateOptions, stream bool) chatRequest {
	req := chatRequest{Model: model, Messages: msgs, Temperature: opts.Temperature, Stream: stream}
	if opts.JSON {
		req.ResponseFormat = map[string]any{"type": "json_object"}
	}
	return req
}

// choice covers both chat ("message"/"delta") and legacy completion ("text")
// shapes that compatible servers still emit.
type choice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	Text string `json:"text"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
}

func (r chatResponse) text() string {
	for _, c := range r.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content
		}
		if strings.TrimSpace(c.Text) != "" {
			return c.Text
		}
	}
	return ""
}

type streamChunk struct {
	Choices []choice        `json:"choices"`
	Error   json.RawMessage `json:"error"`
}

// decodeStreamChunk returns the text carried by one SSE data payload.
// Unparseable keep-alive payloads yield no text and no error; an in-band
// error object ends the stream.
func decodeStreamChunk(data string) (string, error) {
	var chunk streamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", nil
	}
	if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
		return "", fmt.Errorf("oai_http: upstream stream error: %s", chunk.Error)
	}
	var b strings.Builder
	for _, c := range chunk.Choices {
		if c.Delta.Content != "" {
			b.WriteString(c.Delta.Content)
		} else {
			b.WriteString(c.Text)
		}
	}
	return b.String(), nil
}

func toChatMessages(messages []engine.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		role, content := strings.TrimSpace(m.Role), strings.TrimSpace(m.Content)
		if role != "" && content != "" {
			out = append(out, chatMessage{Role: role, Content: content})
		}
	}
	return out
}

// stripCodeFence removes a surrounding ```lang ... ``` block.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[nl+1:]
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
