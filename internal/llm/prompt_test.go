package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-reviewer/internal/core"
)

func TestTruncateDiff(t *testing.T) {
	t.Run("under the bound passes through", func(t *testing.T) {
		diff := strings.Repeat("x", 99)
		got := TruncateDiff(diff, 100)
		assert.Equal(t, diff, got)
		assert.NotContains(t, got, DiffTruncationMarker)
	})

	t.Run("exactly at the bound passes through", func(t *testing.T) {
		diff := strings.Repeat("x", 100)
		assert.Equal(t, diff, TruncateDiff(diff, 100))
	})

	t.Run("over the bound keeps first N chars plus marker", func(t *testing.T) {
		diff := strings.Repeat("x", 150)
		got := TruncateDiff(diff, 100)
		assert.Equal(t, diff[:100]+DiffTruncationMarker, got)
		assert.Len(t, got, 100+len(DiffTruncationMarker))
	})

	t.Run("non-positive bound disables truncation", func(t *testing.T) {
		diff := strings.Repeat("x", 150)
		assert.Equal(t, diff, TruncateDiff(diff, 0))
	})
}

func TestBuildReviewPrompt(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	cr := &core.ChangeRequest{
		Owner:      "acme",
		Repo:       "widgets",
		Number:     42,
		Title:      "Fix bug",
		HeadBranch: "fix",
		BaseBranch: "main",
	}
	diff := "+line1\n-line2\n"

	t.Run("contains metadata and diff verbatim", func(t *testing.T) {
		prompt, err := BuildReviewPrompt(pm, DefaultProvider, cr, diff, 10000)
		require.NoError(t, err)

		assert.Contains(t, prompt, "#42")
		assert.Contains(t, prompt, "acme/widgets")
		assert.Contains(t, prompt, "Fix bug")
		assert.Contains(t, prompt, diff)
		assert.NotContains(t, prompt, DiffTruncationMarker)
	})

	t.Run("absent description renders placeholder", func(t *testing.T) {
		prompt, err := BuildReviewPrompt(pm, DefaultProvider, cr, diff, 10000)
		require.NoError(t, err)
		assert.Contains(t, prompt, NoDescriptionPlaceholder)
	})

	t.Run("oversized diff is bounded with marker", func(t *testing.T) {
		big := strings.Repeat("+\n", 600)
		prompt, err := BuildReviewPrompt(pm, DefaultProvider, cr, big, 1000)
		require.NoError(t, err)

		assert.Contains(t, prompt, big[:1000]+DiffTruncationMarker)
		assert.NotContains(t, prompt, big[:1001])
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		first, err := BuildReviewPrompt(pm, DefaultProvider, cr, diff, 10000)
		require.NoError(t, err)
		second, err := BuildReviewPrompt(pm, DefaultProvider, cr, diff, 10000)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("prior threads are listed", func(t *testing.T) {
		withThreads := *cr
		withThreads.Threads = []core.ReviewThread{{Comment: "please add tests"}}
		prompt, err := BuildReviewPrompt(pm, DefaultProvider, &withThreads, diff, 10000)
		require.NoError(t, err)
		assert.Contains(t, prompt, "please add tests")
	})
}
