package llm

import (
	"strings"

	"github.com/sevigo/pr-reviewer/internal/core"
)

// NoDescriptionPlaceholder renders in place of an absent pull request body.
const NoDescriptionPlaceholder = "No description provided."

// ReviewPromptData is the type-safe payload for rendering review prompts.
type ReviewPromptData struct {
	Number      int
	Owner       string
	Repo        string
	Title       string
	Description string
	Threads     []core.ReviewThread
	Diff        string
}

// TruncateDiff bounds a diff to max characters. Diffs over the bound are cut
// to exactly max characters with DiffTruncationMarker appended; diffs at or
// under the bound pass through unchanged. A non-positive max disables the
// bound.
func TruncateDiff(diff string, max int) string {
	if max <= 0 || len(diff) <= max {
		return diff
	}
	return diff[:max] + DiffTruncationMarker
}

// BuildReviewPrompt renders the review prompt for a change request with the
// diff bounded to maxDiffChars. Rendering is deterministic: identical inputs
// produce identical prompts.
func BuildReviewPrompt(pm *PromptManager, provider ModelProvider, cr *core.ChangeRequest, diff string, maxDiffChars int) (string, error) {
	description := strings.TrimSpace(cr.Body)
	if description == "" {
		description = NoDescriptionPlaceholder
	}

	data := ReviewPromptData{
		Number:      cr.Number,
		Owner:       cr.Owner,
		Repo:        cr.Repo,
		Title:       cr.Title,
		Description: description,
		Threads:     cr.Threads,
		Diff:        TruncateDiff(diff, maxDiffChars),
	}
	return pm.Render(CodeReviewPrompt, provider, data)
}
