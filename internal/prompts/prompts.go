package prompts

import (
	"fmt"
	"strings"
	"sync"
)

var registerAllOnce sync.Once

func registerAll() {
	RegisterSpec(Spec{
		Name:    PromptInterviewer,
		Version: 1,
		System: `
You are a senior technical interviewer hiring for the position of {{.Role}}.

ROLE: Run a realistic, professional technical interview.

RULES:
- Ask ONE question at a time and wait for the answer before moving on
- Difficulty level: {{.Difficulty}}
- Interview type: {{.InterviewType}}
- If the candidate writes code in the editor, review it and give constructive feedback
- Give progressive hints when the candidate is stuck (at most 3 hints per question)
- Evaluate every answer internally but do NOT reveal scores during the interview
- Be professional but encouraging
- Communicate in {{.Language}}
- Do not repeat topics already covered

STRUCTURE:
1. Open with a short introduction that puts the candidate at ease
2. Ask questions of increasing complexity
3. Alternate theory and practice
4. For coding questions, describe clearly what must be implemented
5. Judge the approach and the reasoning, not only correctness
{{if .CurrentCode}}
CODE CURRENTLY IN THE EDITOR:
` + "```" + `
{{.CurrentCode}}
` + "```" + `
{{end}}{{if .CoveredTopicsCSV}}
TOPICS ALREADY COVERED (do not repeat):
{{.CoveredTopicsCSV}}
{{end}}`,
		Validators: []Validator{requireField("Role", func(in Input) string { return in.Role })},
	})

	RegisterSpec(Spec{
		Name:    PromptReport,
		Version: 1,
		System:  `You evaluate technical interview sessions and answer only with JSON.`,
		User: `
Analyze this technical interview session and produce a detailed evaluation report.

SESSION:
{{.Transcript}}

Answer ONLY with valid JSON in this shape:
{
  "score": <number from 0 to 100>,
  "strengths": [<2-4 specific strengths>],
  "improvements": [<2-4 specific areas to improve>],
  "summary": "<2-3 sentence summary of the overall performance>",
  "topics_evaluated": [
    {"topic": "<MUST be one of the names below>", "category": "<category name>", "score": <0-100>}
  ]
}
{{if .TopicCatalog}}
VALID TOPIC NAMES (use ONLY these exact names):
{{.TopicCatalog}}
{{end}}
EVALUATION CRITERIA:
- Technical correctness of the answers
- Code quality when present: readability, best practices, performance
- Reasoning and problem solving
- Clarity of communication

Be honest but constructive. The score must reflect the performance against the {{.Difficulty}} difficulty level.
Write the text fields in {{.Language}}.`,
		Validators: []Validator{requireField("Transcript", func(in Input) string { return in.Transcript })},
	})

	RegisterSpec(Spec{
		Name:    PromptSuggestions,
		Version: 1,
		System:  `You are a coach for technical interviews.`,
		User: `
Analyze this candidate's data and suggest 3 concrete actions to improve.

The candidate has completed {{.TotalSessions}} sessions.
Average score: {{.AvgScore}}/100.
Best score: {{.BestScore}}/100.
Interview types used: {{.ByTypeCSV}}.

Answer ONLY with a JSON array, without markdown or backticks:
[
  {"title": "Short title", "description": "What to do and why (max 2 sentences)", "priority": "high|medium|low"}
]

Be specific and actionable.`,
	})

	RegisterSpec(Spec{
		Name:    PromptArticle,
		Version: 1,
		System:  `You are an expert {{.Role}} who writes interview preparation material and answers only with JSON.`,
		User: `
Write a complete study sheet on "{{.Topic}}"{{if .Category}} (category: {{.Category}}){{end}}.
The sheet must prepare a candidate for a technical interview.

Answer ONLY with valid JSON, without markdown or backticks, in this shape:
{
  "title": "Sheet title",
  "content": "Markdown body with a clear explanation, code examples and best practices. Use ## for sections. At least 500 words.",
  "key_points": ["Key point 1", "Key point 2", "...up to 5 points"],
  "common_questions": [
    {"question": "Typical interview question?", "hint": "How to approach the answer"}
  ],
  "difficulty": "junior|mid|senior"
}

REQUIREMENTS:
- Write in {{.Language}}
- Include at least 2 code examples in the content
- Keep key points short and memorable
- Common questions must be REAL technical interview questions
- Use a professional but approachable tone`,
		Validators: []Validator{
			requireField("Topic", func(in Input) string { return in.Topic }),
			requireField("Role", func(in Input) string { return in.Role }),
		},
	})
}

func requireField(name string, get func(Input) string) Validator {
	return func(in Input) error {
		if strings.TrimSpace(get(in)) == "" {
			return fmt.Errorf("missing %s", name)
		}
		return nil
	}
}
