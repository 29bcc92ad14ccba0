package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// ReviewEvent identifies a change request whose review has been requested,
// either from the CLI or from a webhook. It carries just enough to resolve
// the full ChangeRequest from the platform.
type ReviewEvent struct {
	Owner    string
	Repo     string
	FullName string
	Number   int

	// Commenter is the user who triggered the review, when known.
	Commenter string

	// InstallationID is set when the event arrived through a GitHub App
	// webhook; zero means token-based authentication.
	InstallationID int64
}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the
// internal ReviewEvent representation. It acts as an anti-corruption layer:
// only "/review" commands on pull requests with complete repository
// information pass through.
func EventFromIssueComment(event *github.IssueCommentEvent) (*ReviewEvent, error) {
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	if !strings.EqualFold(strings.TrimSpace(event.GetComment().GetBody()), "/review") {
		return nil, fmt.Errorf("comment is not a review command")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	number := event.GetIssue().GetNumber()
	if number <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", number)
	}

	return &ReviewEvent{
		Owner:          repo.GetOwner().GetLogin(),
		Repo:           repo.GetName(),
		FullName:       repo.GetFullName(),
		Number:         number,
		Commenter:      event.GetComment().GetUser().GetLogin(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}
