package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sevigo/pr-reviewer/internal/core"
)

// ExtractCodeBlock pulls the payload out of an optionally fenced completion.
// Precedence: the first ```json fence, then the first generic ``` fence, then
// the full text verbatim. A fence with no closing marker yields everything
// after it. Pure text transform, no validation.
func ExtractCodeBlock(s string) string {
	if _, rest, ok := strings.Cut(s, "```json"); ok {
		inner, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(inner)
	}
	if _, rest, ok := strings.Cut(s, "```"); ok {
		inner, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(inner)
	}
	return strings.TrimSpace(s)
}

// ParseStructuredReview attempts strict JSON-object parsing of a completion
// into a StructuredReview. The caller keeps the raw text for the fallback
// path; a parse failure here must never fail the pipeline.
func ParseStructuredReview(raw string) (*core.StructuredReview, error) {
	extracted := ExtractCodeBlock(raw)
	if !strings.HasPrefix(extracted, "{") {
		return nil, fmt.Errorf("response does not contain a JSON object")
	}

	var review core.StructuredReview
	if err := json.Unmarshal([]byte(extracted), &review); err != nil {
		return nil, fmt.Errorf("failed to parse response as JSON: %w", err)
	}
	return &review, nil
}
