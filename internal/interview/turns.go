package interview

import (
	"strings"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
)

// OpeningPrompt is the scripted candidate turn that starts every interview.
const OpeningPrompt = "Begin the technical interview. Briefly introduce yourself and ask the first question."

const mergeSeparator = "\n\n"

// Turn is a transcript entry as exchanged with clients and the backend.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Code    string `json:"code,omitempty"`
}

func Opening() Turn {
	return Turn{Role: types.RoleCandidate, Content: OpeningPrompt}
}

// Normalize reshapes a transcript into the strictly alternating form the
// backend accepts: system and empty turns are dropped, the opening candidate
// turn is prepended unless already present, and consecutive turns of the same
// role are merged in order with a blank line between them.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(turns []Turn) []Turn {
	kept := make([]Turn, 0, len(turns)+1)
	for _, t := range turns {
		if t.Role == types.RoleSystem || strings.TrimSpace(t.Content) == "" {
			continue
		}
		if t.Role != types.RoleInterviewer {
			t.Role = types.RoleCandidate
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 || !startsWithOpening(kept[0]) {
		kept = append([]Turn{Opening()}, kept...)
	}

	out := make([]Turn, 0, len(kept))
	for _, t := range kept {
		n := len(out)
		if n > 0 && out[n-1].Role == t.Role {
			out[n-1].Content += mergeSeparator + t.Content
			if t.Code != "" {
				out[n-1].Code = t.Code
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

// PrepareContext splits a transcript into the history sent as context and
// the live prompt that triggers the next interviewer turn. An empty
// transcript yields no history and the opening turn as the live prompt.
func PrepareContext(turns []Turn) (history []Turn, live Turn) {
	if !hasContent(turns) {
		return nil, Opening()
	}
	n := Normalize(turns)
	return n[:len(n)-1], n[len(n)-1]
}

// FromStored converts persisted turns to transcript turns in seq order.
func FromStored(rows []*types.Turn) []Turn {
	out := make([]Turn, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		t := Turn{Role: r.Role, Content: r.Content}
		if r.CodeSnapshot != nil {
			t.Code = *r.CodeSnapshot
		}
		out = append(out, t)
	}
	return out
}

// TranscriptText renders a transcript as labelled paragraphs for the report
// prompt.
func TranscriptText(turns []Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Role == types.RoleSystem || strings.TrimSpace(t.Content) == "" {
			continue
		}
		label := "CANDIDATE"
		if t.Role == types.RoleInterviewer {
			label = "INTERVIEWER"
		}
		parts = append(parts, label+": "+t.Content)
	}
	return strings.Join(parts, mergeSeparator)
}

func startsWithOpening(t Turn) bool {
	return t.Role == types.RoleCandidate && strings.HasPrefix(t.Content, OpeningPrompt)
}

func hasContent(turns []Turn) bool {
	for _, t := range turns {
		if t.Role != types.RoleSystem && strings.TrimSpace(t.Content) != "" {
			return true
		}
	}
	return false
}
