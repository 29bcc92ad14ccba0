// Package core defines the essential interfaces and data structures that form
// the backbone of the application. These components are designed to be
// abstract, allowing for flexible and decoupled implementations of the
// application's logic.
package core

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrChangeRequestNotFound is returned when the hosting platform has no
// pull request for the requested owner/repo/number triple.
var ErrChangeRequestNotFound = errors.New("change request not found")

// ChangeRequest is the reviewable unit: a pull request as fetched from the
// hosting platform. It is immutable for the duration of one review run.
type ChangeRequest struct {
	Owner      string
	Repo       string
	Number     int
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string

	// ClosingIssues holds issue numbers referenced by the body with a
	// closing keyword (closes/fixes/resolves).
	ClosingIssues []int

	// Threads carries prior review discussion over from earlier rounds.
	Threads []ReviewThread
}

// ReviewThread is a prior discussion on the change request: the files it
// touches plus the comment text. Read-only input for re-review context.
type ReviewThread struct {
	Files   []string
	Comment string
}

var closingRefRegex = regexp.MustCompile(`(?i)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s+#(\d+)`)

// ClosingIssueRefs extracts issue numbers referenced with a closing keyword
// ("fixes #12", "Closes #3") from a pull request body. Duplicates are
// collapsed, first-mention order is preserved.
func ClosingIssueRefs(body string) []int {
	matches := closingRefRegex.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(matches))
	var refs []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		refs = append(refs, n)
	}
	return refs
}
