package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/core"
)

func testFormatter() *Formatter {
	return NewFormatter(config.ReviewConfig{
		MaxCommentChars: config.DefaultMaxComment,
		MaxPatchChars:   config.DefaultMaxPatchChars,
	})
}

func TestFormatStructured(t *testing.T) {
	f := testFormatter()

	t.Run("full review with file comments", func(t *testing.T) {
		review := &core.StructuredReview{
			Recommendation:  "request changes",
			Summary:         "Solid direction, two issues.",
			GeneralFeedback: "Consider splitting the handler.",
			Comments: []core.FileComment{
				{File: "z.go", Line: 30, Content: "unchecked error"},
				{File: "a.go", Line: 1, Content: "naming"},
			},
		}

		got := f.FormatStructured(review)
		assert.Contains(t, got, "## Automated Code Review")
		assert.Contains(t, got, "**Recommendation:** request changes")
		assert.Contains(t, got, "Solid direction, two issues.")
		assert.Contains(t, got, "Consider splitting the handler.")
		assert.Contains(t, got, "### Specific Feedback")
		assert.Contains(t, got, "- **z.go** (Line 30): unchecked error")

		// Model ordering is preserved: z.go was produced first.
		assert.Less(t, strings.Index(got, "z.go"), strings.Index(got, "a.go"))
	})

	t.Run("empty comments list omits the feedback section", func(t *testing.T) {
		review := &core.StructuredReview{Recommendation: "approve", Summary: "Looks good"}
		got := f.FormatStructured(review)
		assert.Contains(t, got, "**Recommendation:** approve")
		assert.Contains(t, got, "Looks good")
		assert.NotContains(t, got, "Specific Feedback")
	})

	t.Run("missing recommendation renders N/A", func(t *testing.T) {
		got := f.FormatStructured(&core.StructuredReview{Summary: "s"})
		assert.Contains(t, got, "**Recommendation:** N/A")
	})

	t.Run("deterministic", func(t *testing.T) {
		review := &core.StructuredReview{Recommendation: "approve", Summary: "ok"}
		assert.Equal(t, f.FormatStructured(review), f.FormatStructured(review))
	})

	t.Run("oversized feedback section is dropped before the core", func(t *testing.T) {
		small := NewFormatter(config.ReviewConfig{MaxCommentChars: 300, MaxPatchChars: 100})
		review := &core.StructuredReview{
			Recommendation: "approve",
			Summary:        "short summary",
			Comments: []core.FileComment{
				{File: "big.go", Line: 1, Content: strings.Repeat("x", 500)},
			},
		}

		got := small.FormatStructured(review)
		assert.LessOrEqual(t, len(got), 300)
		assert.Contains(t, got, "**Recommendation:** approve")
		assert.Contains(t, got, "specific feedback omitted")
		assert.NotContains(t, got, "big.go")
	})
}

func TestFormatRaw(t *testing.T) {
	f := testFormatter()
	raw := "The model ignored the format.\nHere is prose instead."

	got := f.FormatRaw(raw)
	assert.True(t, strings.HasPrefix(got, "**Automated Review**\n\n"))
	assert.Contains(t, got, raw)
	assert.NotContains(t, got, "Recommendation")
}

func TestFormatOutcome(t *testing.T) {
	f := testFormatter()

	t.Run("success with explanation and patch", func(t *testing.T) {
		outcome := &core.ReviewOutcome{
			Success:     true,
			Explanation: "Applied the fix and updated tests.",
			Patch:       "diff --git a/x b/x\n+fixed\n",
		}

		got := f.FormatOutcome(outcome)
		assert.Contains(t, got, "## Automated Resolution")
		assert.Contains(t, got, "**Status:** success")
		assert.Contains(t, got, "Applied the fix and updated tests.")
		assert.Contains(t, got, "```diff\ndiff --git a/x b/x\n+fixed\n\n```")
		assert.NotContains(t, got, "(Truncated)")
	})

	t.Run("failure with error text", func(t *testing.T) {
		outcome := &core.ReviewOutcome{Success: false, Error: "agent exceeded iteration budget"}
		got := f.FormatOutcome(outcome)
		assert.Contains(t, got, "**Status:** failure")
		assert.Contains(t, got, "agent exceeded iteration budget")
	})
}

func TestPatchPreviewTruncation(t *testing.T) {
	f := testFormatter()

	t.Run("1500 chars truncates to 1000 plus markers", func(t *testing.T) {
		patch := strings.Repeat("a", 1500)
		got := f.patchPreview(patch)

		assert.Contains(t, got, patch[:1000]+"...")
		assert.NotContains(t, got, patch[:1001])
		assert.Contains(t, got, "(Truncated)")
	})

	t.Run("900 chars renders unmodified without marker", func(t *testing.T) {
		patch := strings.Repeat("b", 900)
		got := f.patchPreview(patch)

		assert.Contains(t, got, patch)
		assert.NotContains(t, got, "...")
		assert.NotContains(t, got, "(Truncated)")
	})

	t.Run("embedded fences are safely nested", func(t *testing.T) {
		patch := "+```go\n+code\n+```\n"
		got := f.patchPreview(patch)

		assert.True(t, strings.HasPrefix(got, "````diff\n"), "outer fence must be longer than inner: %q", got)
		assert.True(t, strings.HasSuffix(got, "\n````"))
	})
}

func TestCommentCap(t *testing.T) {
	f := NewFormatter(config.ReviewConfig{MaxCommentChars: 120, MaxPatchChars: 1000})

	got := f.FormatRaw(strings.Repeat("y", 500))
	require.LessOrEqual(t, len(got), 120)
	assert.True(t, strings.HasSuffix(got, commentTruncationNote))
}
