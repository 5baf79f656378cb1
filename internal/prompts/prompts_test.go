package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildInterviewer(t *testing.T) {
	p, err := Build(PromptInterviewer, Input{
		Role:             "Backend Developer",
		InterviewType:    "coding",
		Difficulty:       "senior",
		Language:         "English",
		CurrentCode:      "func main() {}",
		CoveredTopicsCSV: "Goroutines, Channels",
	})
	require.NoError(t, err)
	require.Contains(t, p.System, "Backend Developer")
	require.Contains(t, p.System, "Difficulty level: senior")
	require.Contains(t, p.System, "func main() {}")
	require.Contains(t, p.System, "Goroutines, Channels")

	p, err = Build(PromptInterviewer, Input{Role: "Frontend Developer", Language: "English"})
	require.NoError(t, err)
	require.NotContains(t, p.System, "CODE CURRENTLY IN THE EDITOR")
	require.NotContains(t, p.System, "TOPICS ALREADY COVERED")

	_, err = Build(PromptInterviewer, Input{})
	require.Error(t, err)
}

func TestBuildReport(t *testing.T) {
	p, err := Build(PromptReport, Input{
		Transcript:   "CANDIDATE: hi\n\nINTERVIEWER: hello",
		TopicCatalog: "- Go: Channels",
		Difficulty:   "mid",
		Language:     "English",
	})
	require.NoError(t, err)
	require.True(t, strings.Contains(p.User, "INTERVIEWER: hello"))
	require.Contains(t, p.User, "- Go: Channels")
	require.Contains(t, p.User, `"topics_evaluated"`)

	_, err = Build(PromptReport, Input{})
	require.Error(t, err)
}

func TestBuildArticle(t *testing.T) {
	p, err := Build(PromptArticle, Input{Role: "Frontend Developer", Topic: "Closures", Category: "JavaScript", Language: "English"})
	require.NoError(t, err)
	require.Contains(t, p.System, "Frontend Developer")
	require.Contains(t, p.User, `"Closures" (category: JavaScript)`)
	require.Contains(t, p.User, `"common_questions"`)

	p, err = Build(PromptArticle, Input{Role: "Frontend Developer", Topic: "Closures"})
	require.NoError(t, err)
	require.NotContains(t, p.User, "category:")

	_, err = Build(PromptArticle, Input{Role: "Frontend Developer"})
	require.Error(t, err)
}

func TestBuildUnknown(t *testing.T) {
	_, err := Build(PromptName("nope"), Input{})
	require.Error(t, err)
}
