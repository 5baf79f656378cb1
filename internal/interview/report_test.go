package interview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
)

func TestExtractReport(t *testing.T) {
	text := "Here is the evaluation:\n```json\n" + `{
  "score": 72.6,
  "strengths": ["Clear explanations", "  "],
  "improvements": ["Discuss trade-offs"],
  "summary": " Solid overall. ",
  "topics_evaluated": [
    {"topic": "Closures", "category": "JavaScript", "score": 80},
    {"topic": "Event Loop"},
    "Promises & Async",
    {"topic": "Hooks", "category": "React", "score": 140}
  ]
}` + "\n```\nGood luck!"

	r, err := ExtractReport(text)
	require.NoError(t, err)
	require.Equal(t, 73, r.Score)
	require.Equal(t, []string{"Clear explanations"}, r.Strengths)
	require.Equal(t, []string{"Discuss trade-offs"}, r.Improvements)
	require.Equal(t, "Solid overall.", r.Summary)
	require.Equal(t, []types.TopicScore{
		{Topic: "Closures", Category: "JavaScript", Score: 80},
		{Topic: "Event Loop", Category: "General", Score: 73},
		{Topic: "Promises & Async", Category: "General", Score: 73},
		{Topic: "Hooks", Category: "React", Score: 100},
	}, r.TopicsEvaluated)
}

func TestExtractReportFailures(t *testing.T) {
	cases := map[string]string{
		"no_json":       "I could not evaluate this interview.",
		"missing_score": `{"strengths": ["x"]}`,
		"broken_json":   `{"score": 70, "strengths": [}`,
		"two_objects":   `{"score": 70} and also {"score": 80}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractReport(text)
			if !errors.Is(err, ErrMalformedReport) {
				t.Fatalf("ExtractReport(%q) err=%v, want ErrMalformedReport", text, err)
			}
		})
	}
}

func TestSafeDefaultReport(t *testing.T) {
	r := SafeDefaultReport()
	require.Equal(t, 50, r.Score)
	require.NotEmpty(t, r.Strengths)
	require.NotEmpty(t, r.Improvements)
	require.NotEmpty(t, r.Summary)
	require.NotNil(t, r.TopicsEvaluated)
	require.Empty(t, r.TopicsEvaluated)
}
