package core

// FileComment represents a single piece of feedback for a specific line of a
// file, as produced by the LLM.
type FileComment struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// StructuredReview is the parsed, machine-readable review verdict extracted
// from the LLM response. Comments keep the order the model produced them in;
// they are never re-sorted after parsing.
type StructuredReview struct {
	Recommendation  string        `json:"recommendation"`
	Summary         string        `json:"summary"`
	GeneralFeedback string        `json:"general_feedback"`
	Comments        []FileComment `json:"comments"`
}

// ReviewOutcome is the result of a delegated coding-agent run: whether the
// agent succeeded, its explanation, an error message if any, and the patch it
// produced. Only consumed, never produced, by this pipeline.
type ReviewOutcome struct {
	Success     bool   `json:"success"`
	Explanation string `json:"explanation,omitempty"`
	Error       string `json:"error,omitempty"`
	Patch       string `json:"git_patch,omitempty"`
}
