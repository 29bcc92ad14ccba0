// Package review implements the diff-to-comment pipeline: diff acquisition,
// prompt construction, completion invocation, tolerant parsing, comment
// formatting, and posting.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/sevigo/pr-reviewer/internal/core"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/gitutil"
)

// DefaultBaseBranch is assumed when the change request does not name one.
const DefaultBaseBranch = "main"

// DiffUnavailableError is the terminal diff-acquisition failure: the review
// stops, nothing is posted, the cause is logged.
type DiffUnavailableError struct {
	Cause error
}

func (e *DiffUnavailableError) Error() string {
	return fmt.Sprintf("diff unavailable: %v", e.Cause)
}

func (e *DiffUnavailableError) Unwrap() error {
	return e.Cause
}

// DiffSource obtains the unified diff for a change request. An empty
// (whitespace-only) diff is a valid "nothing to review" result, not an error.
type DiffSource interface {
	FetchDiff(ctx context.Context, gh github.Client, token string, cr *core.ChangeRequest) (string, error)
}

// APISource fetches the diff in a single request via the platform's diff
// media type.
type APISource struct{}

// NewAPISource returns the remote diff strategy.
func NewAPISource() *APISource {
	return &APISource{}
}

func (s *APISource) FetchDiff(ctx context.Context, gh github.Client, _ string, cr *core.ChangeRequest) (string, error) {
	diff, err := gh.GetDiff(ctx, cr.Owner, cr.Repo, cr.Number)
	if err != nil {
		return "", &DiffUnavailableError{Cause: err}
	}
	return diff, nil
}

// LocalSource maintains a reused working copy under the output directory and
// computes the diff with git against the fetched remote branches.
type LocalSource struct {
	git       *gitutil.Client
	outputDir string
	logger    *slog.Logger
}

// NewLocalSource returns the clone+fetch+diff strategy. The working copy
// lives at <outputDir>/repo and is cloned once, then reused.
func NewLocalSource(git *gitutil.Client, outputDir string, logger *slog.Logger) *LocalSource {
	return &LocalSource{git: git, outputDir: outputDir, logger: logger}
}

// RepoPath returns the working-copy location for the reused clone.
func (s *LocalSource) RepoPath() string {
	return filepath.Join(s.outputDir, "repo")
}

func (s *LocalSource) FetchDiff(ctx context.Context, gh github.Client, token string, cr *core.ChangeRequest) (string, error) {
	base := cr.BaseBranch
	if base == "" {
		base = DefaultBaseBranch
	}
	if cr.HeadBranch == "" {
		return "", &DiffUnavailableError{Cause: fmt.Errorf("change request has no head branch")}
	}

	repoPath := s.RepoPath()

	// Single-writer discipline over the shared working copy.
	unlock := gitutil.LockRepo(repoPath)
	defer unlock()

	if err := s.git.EnsureRepo(ctx, gh.CloneURL(cr.Owner, cr.Repo), repoPath, token); err != nil {
		return "", &DiffUnavailableError{Cause: err}
	}
	if err := s.git.FetchBranches(ctx, repoPath, cr.HeadBranch, base); err != nil {
		return "", &DiffUnavailableError{Cause: err}
	}

	diff, err := s.git.DiffBranches(ctx, repoPath, base, cr.HeadBranch)
	if err != nil {
		return "", &DiffUnavailableError{Cause: err}
	}
	s.logger.Debug("local diff computed", "repo", repoPath, "base", base, "head", cr.HeadBranch, "bytes", len(diff))
	return diff, nil
}
