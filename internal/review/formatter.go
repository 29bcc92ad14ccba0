package review

import (
	"fmt"
	"strings"

	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/core"
)

const (
	commentTruncationNote  = "\n\n*(comment truncated)*"
	feedbackOmittedNote    = "\n\n*(specific feedback omitted due to comment size limit)*"
	patchTruncationMarker  = "(Truncated)"
	structuredReviewHeader = "## Automated Code Review"
	rawReviewHeader        = "**Automated Review**"
	outcomeHeader          = "## Automated Resolution"
)

// Formatter renders review results into bounded, fence-safe markdown
// comments. Rendering is deterministic: identical inputs produce identical
// comments.
type Formatter struct {
	maxCommentChars int
	maxPatchChars   int
}

// NewFormatter builds a Formatter from the review configuration, falling
// back to the package defaults for unset bounds.
func NewFormatter(cfg config.ReviewConfig) *Formatter {
	maxComment := cfg.MaxCommentChars
	if maxComment <= 0 {
		maxComment = config.DefaultMaxComment
	}
	maxPatch := cfg.MaxPatchChars
	if maxPatch <= 0 {
		maxPatch = config.DefaultMaxPatchChars
	}
	return &Formatter{maxCommentChars: maxComment, maxPatchChars: maxPatch}
}

// FormatStructured renders the structured review. Per-file comments keep the
// order the model produced them in. When the comment would exceed the size
// bound, the Specific Feedback section is dropped first; only then is the
// remainder hard-truncated.
func (f *Formatter) FormatStructured(review *core.StructuredReview) string {
	var b strings.Builder
	b.WriteString(structuredReviewHeader)
	b.WriteString("\n\n")

	recommendation := strings.TrimSpace(review.Recommendation)
	if recommendation == "" {
		recommendation = "N/A"
	}
	fmt.Fprintf(&b, "**Recommendation:** %s\n", recommendation)

	if s := strings.TrimSpace(review.Summary); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
		b.WriteString("\n")
	}
	if g := strings.TrimSpace(review.GeneralFeedback); g != "" {
		b.WriteString("\n")
		b.WriteString(g)
		b.WriteString("\n")
	}
	body := b.String()

	if len(review.Comments) == 0 {
		return f.cap(body)
	}

	var fb strings.Builder
	fb.WriteString("\n### Specific Feedback\n")
	for _, c := range review.Comments {
		fmt.Fprintf(&fb, "- **%s** (Line %d): %s\n", c.File, c.Line, c.Content)
	}

	full := body + fb.String()
	if len(full) <= f.maxCommentChars {
		return full
	}
	// The feedback list is the least critical trailing section.
	return f.cap(body + feedbackOmittedNote)
}

// FormatRaw wraps the raw completion text when no structure could be parsed.
// The text is preserved byte-for-byte up to the comment size bound.
func (f *Formatter) FormatRaw(raw string) string {
	return f.cap(rawReviewHeader + "\n\n" + raw)
}

// FormatOutcome renders a delegated agent run's result: status banner,
// explanation, error text, and a bounded fenced preview of the generated
// patch.
func (f *Formatter) FormatOutcome(outcome *core.ReviewOutcome) string {
	var b strings.Builder
	b.WriteString(outcomeHeader)
	b.WriteString("\n\n")

	if outcome.Success {
		b.WriteString("**Status:** success\n")
	} else {
		b.WriteString("**Status:** failure\n")
	}

	if e := strings.TrimSpace(outcome.Explanation); e != "" {
		b.WriteString("\n")
		b.WriteString(e)
		b.WriteString("\n")
	}
	if outcome.Error != "" {
		fence := safeFence(outcome.Error)
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n", fence, outcome.Error, fence)
	}
	if outcome.Patch != "" {
		b.WriteString("\n")
		b.WriteString(f.patchPreview(outcome.Patch))
		b.WriteString("\n")
	}
	return f.cap(b.String())
}

// patchPreview renders the patch inside a diff fence, truncated to the
// configured bound with an explicit marker. Patches at or under the bound
// render unmodified and unmarked.
func (f *Formatter) patchPreview(patch string) string {
	truncated := false
	if len(patch) > f.maxPatchChars {
		patch = patch[:f.maxPatchChars] + "..."
		truncated = true
	}

	fence := safeFence(patch)
	preview := fence + "diff\n" + patch + "\n" + fence
	if truncated {
		preview += "\n" + patchTruncationMarker
	}
	return preview
}

// safeFence returns a fence longer than any backtick run in content, so
// embedded code fences cannot break out of the block.
func safeFence(content string) string {
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	return fence
}

// cap enforces the platform-safe comment size bound with an explicit
// truncation note.
func (f *Formatter) cap(comment string) string {
	if len(comment) <= f.maxCommentChars {
		return comment
	}
	keep := f.maxCommentChars - len(commentTruncationNote)
	if keep < 0 {
		keep = 0
	}
	return comment[:keep] + commentTruncationNote
}
