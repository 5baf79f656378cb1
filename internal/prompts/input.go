package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Session configuration
	Role          string
	InterviewType string
	Difficulty    string
	Language      string

	// Interviewer context
	CurrentCode      string
	CoveredTopicsCSV string

	// Report
	Transcript   string
	TopicCatalog string

	// Article
	Topic    string
	Category string

	// Suggestions
	TotalSessions int
	AvgScore      string
	BestScore     string
	ByTypeCSV     string
}

// Validator rejects inputs a prompt cannot be rendered from.
type Validator func(Input) error
