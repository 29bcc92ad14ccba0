package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/core"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/review"
)

type fakeClient struct {
	posted []string
}

func (f *fakeClient) GetChangeRequest(_ context.Context, owner, repo string, number int) (*core.ChangeRequest, error) {
	return &core.ChangeRequest{Owner: owner, Repo: repo, Number: number}, nil
}

func (f *fakeClient) GetDiff(context.Context, string, string, int) (string, error) {
	return "", nil
}

func (f *fakeClient) CreateComment(_ context.Context, _, _ string, _ int, body string) error {
	f.posted = append(f.posted, body)
	return nil
}

func (f *fakeClient) CloneURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
}

func (f *fakeClient) BaseURL() string { return "https://api.github.com" }

func newTestRunner(t *testing.T, client *fakeClient, outputDir, command string) *Runner {
	t.Helper()
	cfg := &config.Config{
		Review: config.ReviewConfig{
			OutputDir:       outputDir,
			MaxCommentChars: config.DefaultMaxComment,
			MaxPatchChars:   config.DefaultMaxPatchChars,
		},
		Agent: config.AgentConfig{Command: command, MaxIterations: 10},
	}
	factory := github.ClientFactory(func(context.Context, int64) (github.Client, string, error) {
		return client, "test-token", nil
	})
	return NewRunner(cfg, factory, review.NewFormatter(cfg.Review), slog.New(slog.DiscardHandler))
}

func testEvent() *core.ReviewEvent {
	return &core.ReviewEvent{Owner: "a", Repo: "b", FullName: "a/b", Number: 7}
}

func TestFindOutcome(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		number int
		want   *core.ReviewOutcome
	}{
		{
			name:   "matching record",
			input:  `{"issue_number":7,"success":true,"explanation":"done","git_patch":"+x"}` + "\n",
			number: 7,
			want:   &core.ReviewOutcome{Success: true, Explanation: "done", Patch: "+x"},
		},
		{
			name: "other issues are skipped",
			input: `{"issue_number":3,"success":true}` + "\n" +
				`{"issue_number":7,"success":false,"error":"boom"}` + "\n",
			number: 7,
			want:   &core.ReviewOutcome{Success: false, Error: "boom"},
		},
		{
			name: "last matching record wins",
			input: `{"issue_number":7,"success":false,"error":"first try"}` + "\n" +
				`{"issue_number":7,"success":true,"explanation":"retry"}` + "\n",
			number: 7,
			want:   &core.ReviewOutcome{Success: true, Explanation: "retry"},
		},
		{
			name: "malformed and blank lines are tolerated",
			input: "not json\n\n" +
				`{"issue_number":7,"success":true}` + "\n",
			number: 7,
			want:   &core.ReviewOutcome{Success: true},
		},
		{
			name:   "no matching record",
			input:  `{"issue_number":3,"success":true}` + "\n",
			number: 7,
			want:   nil,
		},
		{
			name:   "empty file",
			input:  "",
			number: 7,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findOutcome(strings.NewReader(tt.input), tt.number)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindOutcomeLargePatchRecord(t *testing.T) {
	patch := strings.Repeat("x", 512*1024)
	input := fmt.Sprintf(`{"issue_number":7,"success":true,"git_patch":%q}`, patch) + "\n"

	got, err := findOutcome(strings.NewReader(input), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Patch, len(patch))
}

func TestRunnerPostsFormattedOutcome(t *testing.T) {
	dir := t.TempDir()
	record := `{"issue_number":7,"success":true,"explanation":"Fixed the bug.","git_patch":"diff --git a/x b/x\n+fixed\n"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, outputFileName), []byte(record), 0o644))

	client := &fakeClient{}
	err := newTestRunner(t, client, dir, "true").Run(context.Background(), testEvent())
	require.NoError(t, err)

	require.Len(t, client.posted, 1)
	body := client.posted[0]
	assert.Contains(t, body, "## Automated Resolution")
	assert.Contains(t, body, "**Status:** success")
	assert.Contains(t, body, "Fixed the bug.")
	assert.Contains(t, body, "```diff")
}

func TestRunnerQuietWhenNoOutput(t *testing.T) {
	client := &fakeClient{}
	err := newTestRunner(t, client, t.TempDir(), "true").Run(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Empty(t, client.posted, "missing output file must not produce a comment")
}

func TestRunnerAgentCommandFailure(t *testing.T) {
	client := &fakeClient{}
	err := newTestRunner(t, client, t.TempDir(), "false").Run(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent command failed")
	assert.Empty(t, client.posted)
}

func TestRunnerRequiresCommand(t *testing.T) {
	err := newTestRunner(t, &fakeClient{}, t.TempDir(), "").Run(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agent command configured")
}
