package prompts

type PromptName string

const (
	// Live interview
	PromptInterviewer PromptName = "interviewer"

	// Finalization
	PromptReport PromptName = "report"

	// Dashboard
	PromptSuggestions PromptName = "suggestions"

	// Study material
	PromptArticle PromptName = "article"
)
