package gitutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var prURLRegex = regexp.MustCompile(`^(?:https?://)?([^/]+)/([^/]+)/([^/]+)/pull/(\d+)$`)

// ParsePullRequestURL parses a pull request URL and extracts the owner, repo,
// and PR number. Works for github.com and enterprise hosts:
// https://{host}/{owner}/{repo}/pull/{number}
func ParsePullRequestURL(url string) (owner, repo string, prNumber int, err error) {
	url = strings.TrimSuffix(url, "/")

	matches := prURLRegex.FindStringSubmatch(url)
	if len(matches) != 5 {
		return "", "", 0, fmt.Errorf("invalid pull request URL format: %s", url)
	}

	owner = matches[2]
	repo = matches[3]
	prNumber, err = strconv.Atoi(matches[4])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR number '%s': %w", matches[4], err)
	}

	return owner, repo, prNumber, nil
}
