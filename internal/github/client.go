// Package github provides the hosting-platform collaborator: change-request
// metadata, diff media-type fetches, and comment delivery.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/pr-reviewer/internal/core"
)

// Client defines the narrow set of platform operations the review pipeline
// depends on. Everything else the API offers is out of contract.
type Client interface {
	// GetChangeRequest resolves a pull request into the internal
	// ChangeRequest representation. A missing pull request yields an error
	// wrapping core.ErrChangeRequestNotFound.
	GetChangeRequest(ctx context.Context, owner, repo string, number int) (*core.ChangeRequest, error)

	// GetDiff fetches the unified diff of a pull request via the diff
	// media type.
	GetDiff(ctx context.Context, owner, repo string, number int) (string, error)

	// CreateComment posts a single comment on a pull request.
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error

	// CloneURL returns the HTTPS clone URL for a repository on the
	// configured base domain, without credentials.
	CloneURL(owner, repo string) string

	// BaseURL returns the API base URL in use.
	BaseURL() string
}

type gitHubClient struct {
	client     *github.Client
	baseDomain string
	logger     *slog.Logger
}

// NewPATClient creates a client authenticated with a personal access token.
// For base domains other than github.com the client targets the GitHub
// Enterprise API of that domain.
func NewPATClient(ctx context.Context, token, baseDomain string, logger *slog.Logger) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return newClient(github.NewClient(tc), baseDomain, logger)
}

func newClient(gh *github.Client, baseDomain string, logger *slog.Logger) (Client, error) {
	if baseDomain == "" {
		baseDomain = "github.com"
	}
	if baseDomain != "github.com" {
		enterpriseURL := fmt.Sprintf("https://%s/api/v3/", baseDomain)
		var err error
		gh, err = gh.WithEnterpriseURLs(enterpriseURL, enterpriseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise base URL for %s: %w", baseDomain, err)
		}
	}
	return &gitHubClient{client: gh, baseDomain: baseDomain, logger: logger}, nil
}

func (g *gitHubClient) GetChangeRequest(ctx context.Context, owner, repo string, number int) (*core.ChangeRequest, error) {
	pr, resp, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("pull request %s/%s#%d: %w", owner, repo, number, core.ErrChangeRequestNotFound)
		}
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, fmt.Errorf("failed to get pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	cr := &core.ChangeRequest{
		Owner:         owner,
		Repo:          repo,
		Number:        number,
		Title:         pr.GetTitle(),
		Body:          pr.GetBody(),
		HeadBranch:    pr.GetHead().GetRef(),
		BaseBranch:    pr.GetBase().GetRef(),
		ClosingIssues: core.ClosingIssueRefs(pr.GetBody()),
	}
	cr.Threads = g.fetchThreads(ctx, owner, repo, number)
	return cr, nil
}

// fetchThreads pulls prior discussion into the change request. Best-effort:
// a listing failure degrades to a review without prior-round context.
func (g *gitHubClient) fetchThreads(ctx context.Context, owner, repo string, number int) []core.ReviewThread {
	comments, _, err := g.client.Issues.ListComments(ctx, owner, repo, number, &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		g.logger.Warn("failed to list prior comments, reviewing without thread context",
			"owner", owner, "repo", repo, "pr", number, "error", err)
		return nil
	}

	var threads []core.ReviewThread
	for _, c := range comments {
		if c.GetBody() == "" {
			continue
		}
		threads = append(threads, core.ReviewThread{Comment: c.GetBody()})
	}
	return threads
}

func (g *gitHubClient) GetDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := g.client.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{
		Type: github.Diff,
	})
	if err != nil {
		g.logger.Error("failed to get pull request diff", "owner", owner, "repo", repo, "pr", number, "error", err)
		return "", err
	}
	return diff, nil
}

func (g *gitHubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: &body}
	_, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		g.logger.Error("failed to create comment", "owner", owner, "repo", repo, "pr", number, "error", err)
	}
	return err
}

func (g *gitHubClient) CloneURL(owner, repo string) string {
	return fmt.Sprintf("https://%s/%s/%s.git", g.baseDomain, owner, repo)
}

func (g *gitHubClient) BaseURL() string {
	if g.baseDomain == "github.com" {
		return "https://api.github.com"
	}
	return fmt.Sprintf("https://%s/api/v3", g.baseDomain)
}

// IsNotFound reports whether err indicates a missing change request.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrChangeRequestNotFound)
}
