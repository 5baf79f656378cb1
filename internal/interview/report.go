package interview

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
)

var ErrMalformedReport = errors.New("malformed report")

// SafeDefaultReport is returned whenever a report cannot be produced.
func SafeDefaultReport() types.Report {
	return types.Report{
		Score:           50,
		Strengths:       []string{"Took part in the session"},
		Improvements:    []string{"A detailed report could not be generated"},
		Summary:         "The session has ended. Try again for a more detailed report.",
		TopicsEvaluated: []types.TopicScore{},
	}
}

type rawReport struct {
	Score           *float64           `json:"score"`
	Strengths       []string           `json:"strengths"`
	Improvements    []string           `json:"improvements"`
	Summary         string             `json:"summary"`
	TopicsEvaluated []types.TopicScore `json:"topics_evaluated"`
}

// ExtractReport recovers a report from free-form model text. The JSON object
// is taken from the first '{' to the last '}', so prose or code fences around
// it are ignored but two separate objects are not.
func ExtractReport(text string) (types.Report, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return types.Report{}, fmt.Errorf("%w: no JSON object found", ErrMalformedReport)
	}
	var raw rawReport
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return types.Report{}, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if raw.Score == nil {
		return types.Report{}, fmt.Errorf("%w: missing score", ErrMalformedReport)
	}

	score := Clamp(int(math.Round(*raw.Score)))
	out := types.Report{
		Score:           score,
		Strengths:       cleanList(raw.Strengths),
		Improvements:    cleanList(raw.Improvements),
		Summary:         strings.TrimSpace(raw.Summary),
		TopicsEvaluated: make([]types.TopicScore, 0, len(raw.TopicsEvaluated)),
	}
	for _, t := range raw.TopicsEvaluated {
		if t.Topic == "" {
			continue
		}
		t = t.Resolve(score)
		t.Score = Clamp(t.Score)
		out.TopicsEvaluated = append(out.TopicsEvaluated, t)
	}
	return out, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
