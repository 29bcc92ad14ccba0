package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/core"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/llm"
)

// fakeClient implements github.Client for pipeline tests.
type fakeClient struct {
	cr        *core.ChangeRequest
	crErr     error
	diff      string
	diffErr   error
	posted    []string
	postErr   error
	diffCalls int
}

func (f *fakeClient) GetChangeRequest(_ context.Context, owner, repo string, number int) (*core.ChangeRequest, error) {
	if f.crErr != nil {
		return nil, f.crErr
	}
	if f.cr != nil {
		return f.cr, nil
	}
	return &core.ChangeRequest{Owner: owner, Repo: repo, Number: number}, nil
}

func (f *fakeClient) GetDiff(context.Context, string, string, int) (string, error) {
	f.diffCalls++
	return f.diff, f.diffErr
}

func (f *fakeClient) CreateComment(_ context.Context, _, _ string, _ int, body string) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, body)
	return nil
}

func (f *fakeClient) CloneURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
}

func (f *fakeClient) BaseURL() string { return "https://api.github.com" }

// fakeInvoker records prompts and plays back a canned completion.
type fakeInvoker struct {
	response string
	err      error
	calls    []string
}

func (f *fakeInvoker) Review(_ context.Context, prompt string, failOnError bool) (string, error) {
	f.calls = append(f.calls, prompt)
	if f.err != nil {
		if failOnError {
			return "", f.err
		}
		return llm.FallbackReviewText, nil
	}
	return f.response, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Review: config.ReviewConfig{
			OutputDir:       "output",
			DiffSource:      "api",
			MaxDiffChars:    config.DefaultMaxDiffChars,
			MaxCommentChars: config.DefaultMaxComment,
			MaxPatchChars:   config.DefaultMaxPatchChars,
		},
		LLM: config.LLMConfig{Model: "test-model", Timeout: config.DefaultLLMTimeout},
	}
}

func newTestJob(t *testing.T, client *fakeClient, invoker *fakeInvoker) *ReviewJob {
	t.Helper()
	prompts, err := llm.NewPromptManager()
	require.NoError(t, err)

	cfg := testConfig()
	factory := github.ClientFactory(func(context.Context, int64) (github.Client, string, error) {
		return client, "test-token", nil
	})
	return NewReviewJob(cfg, factory, NewAPISource(), prompts, invoker,
		NewFormatter(cfg.Review), slog.New(slog.DiscardHandler))
}

func testEvent() *core.ReviewEvent {
	return &core.ReviewEvent{Owner: "a", Repo: "b", FullName: "a/b", Number: 42}
}

func TestReviewJobEndToEnd(t *testing.T) {
	client := &fakeClient{
		cr: &core.ChangeRequest{
			Owner: "a", Repo: "b", Number: 42,
			Title: "Fix bug", HeadBranch: "fix", BaseBranch: "main",
		},
		diff: "+line1\n-line2\n",
	}
	invoker := &fakeInvoker{
		response: "```json\n{\"recommendation\":\"approve\",\"summary\":\"Looks good\",\"general_feedback\":\"\",\"comments\":[]}\n```",
	}

	body, err := newTestJob(t, client, invoker).Execute(context.Background(), testEvent())
	require.NoError(t, err)

	require.Len(t, client.posted, 1)
	assert.Equal(t, body, client.posted[0])
	assert.Contains(t, body, "Recommendation:** approve")
	assert.Contains(t, body, "Looks good")
	assert.NotContains(t, body, "Specific Feedback")

	// The prompt carried the diff verbatim.
	require.Len(t, invoker.calls, 1)
	assert.Contains(t, invoker.calls[0], "+line1\n-line2\n")
}

func TestReviewJobEmptyDiffShortCircuits(t *testing.T) {
	for _, diff := range []string{"", "   \n\t\n"} {
		client := &fakeClient{diff: diff}
		invoker := &fakeInvoker{response: "should never be used"}

		body, err := newTestJob(t, client, invoker).Execute(context.Background(), testEvent())
		require.NoError(t, err)
		assert.Empty(t, body)
		assert.Empty(t, invoker.calls, "no LLM call for an empty diff")
		assert.Empty(t, client.posted, "no comment for an empty diff")
	}
}

func TestReviewJobDiffFailureIsTerminal(t *testing.T) {
	client := &fakeClient{diffErr: errors.New("502 bad gateway")}
	invoker := &fakeInvoker{}

	_, err := newTestJob(t, client, invoker).Execute(context.Background(), testEvent())
	require.Error(t, err)

	var diffErr *DiffUnavailableError
	assert.ErrorAs(t, err, &diffErr)
	assert.Empty(t, invoker.calls)
	assert.Empty(t, client.posted)
}

func TestReviewJobChangeRequestNotFound(t *testing.T) {
	client := &fakeClient{crErr: fmt.Errorf("pull request a/b#42: %w", core.ErrChangeRequestNotFound)}

	_, err := newTestJob(t, client, &fakeInvoker{}).Execute(context.Background(), testEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrChangeRequestNotFound)
	assert.Empty(t, client.posted)
}

func TestReviewJobUnparsableResponsePostsRawText(t *testing.T) {
	raw := "I think this change is fine.\nNo JSON today."
	client := &fakeClient{diff: "+x\n"}
	invoker := &fakeInvoker{response: raw}

	body, err := newTestJob(t, client, invoker).Execute(context.Background(), testEvent())
	require.NoError(t, err)

	require.Len(t, client.posted, 1)
	assert.Contains(t, body, "**Automated Review**")
	assert.Contains(t, body, raw, "raw text preserved byte-for-byte")
}

func TestReviewJobLLMFailureDegradesToFallbackComment(t *testing.T) {
	client := &fakeClient{diff: "+x\n"}
	invoker := &fakeInvoker{err: errors.New("timeout")}

	body, err := newTestJob(t, client, invoker).Execute(context.Background(), testEvent())
	require.NoError(t, err)

	require.Len(t, client.posted, 1)
	assert.Contains(t, body, llm.FallbackReviewText)
}

func TestReviewJobPostFailureSurfaces(t *testing.T) {
	client := &fakeClient{diff: "+x\n", postErr: errors.New("403 forbidden")}
	invoker := &fakeInvoker{response: `{"recommendation":"approve","summary":"ok","comments":[]}`}

	_, err := newTestJob(t, client, invoker).Execute(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post review comment")
}
