package handlers

import (
	"strings"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/services"
)

type messageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Code    string `json:"code,omitempty"`
}

type sessionConfigDTO struct {
	Track      string `json:"track"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

func (d sessionConfigDTO) toConfig() services.SessionConfig {
	return services.SessionConfig{Track: d.Track, Type: d.Type, Difficulty: d.Difficulty, Language: d.Language}
}

// toTurns maps client roles onto transcript roles. Clients may use either
// the chat vocabulary (user/assistant) or ours (candidate/interviewer).
func toTurns(in []messageDTO) []interview.Turn {
	out := make([]interview.Turn, 0, len(in))
	for _, m := range in {
		role := types.RoleCandidate
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case "assistant", "model", types.RoleInterviewer:
			role = types.RoleInterviewer
		case types.RoleSystem:
			role = types.RoleSystem
		}
		out = append(out, interview.Turn{Role: role, Content: m.Content, Code: m.Code})
	}
	return out
}
