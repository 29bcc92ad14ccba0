// Package gitutil provides a client for working with Git repositories.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
)

// repoLocks serializes fetch+diff per working-copy path. Two concurrent
// reviews of the same repository must not race on the shared clone.
var repoLocks sync.Map

// LockRepo acquires the exclusive lock for a working-copy path and returns
// the unlock function.
func LockRepo(path string) (unlock func()) {
	v, _ := repoLocks.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Client handles interacting with Git repositories through the git CLI,
// with go-git used to validate working copies.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// EnsureRepo makes sure a working copy of the repository exists at path,
// cloning it once on first use. Subsequent calls for the same path reuse the
// existing clone.
func (c *Client) EnsureRepo(ctx context.Context, repoURL, path, token string) error {
	if _, err := git.PlainOpen(path); err == nil {
		return nil
	}

	authURL, err := authenticatedURL(repoURL, token)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create clone parent directory: %w", err)
	}

	c.Logger.InfoContext(ctx, "cloning repository", "url", repoURL, "path", path)
	cmd := exec.CommandContext(ctx, "git", "-c", "core.longpaths=true", "clone", authURL, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone failed: %s: %w", string(out), err)
	}

	// Confirm the clone is something go-git can open before reusing it.
	if _, err := git.PlainOpen(path); err != nil {
		return fmt.Errorf("failed to open cloned repo: %w", err)
	}
	return nil
}

// FetchBranches fetches the given branches from origin, retrying transient
// failures with exponential backoff.
func (c *Client) FetchBranches(ctx context.Context, path string, branches ...string) error {
	c.Logger.InfoContext(ctx, "fetching branches from origin", "branches", branches)

	args := []string{"-c", "core.longpaths=true", "fetch", "origin", "--force"}
	for _, b := range branches {
		args = append(args, fmt.Sprintf("%s:refs/remotes/origin/%s", b, b))
	}

	const maxRetries = 3
	const baseDelay = 2 * time.Second

	var err error
	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			delay := baseDelay * time.Duration(1<<(i-1))
			c.Logger.WarnContext(ctx, "git fetch failed, retrying",
				"attempt", i,
				"max_retries", maxRetries,
				"delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = path
		if out, cmdErr := cmd.CombinedOutput(); cmdErr != nil {
			err = fmt.Errorf("git fetch failed: %s: %w", string(out), cmdErr)
			continue
		}
		return nil
	}
	return err
}

// DiffBranches computes the unified diff between base and head using a
// three-dot (merge-base) comparison against the fetched remote branches.
func (c *Client) DiffBranches(ctx context.Context, path, base, head string) (string, error) {
	rangeSpec := fmt.Sprintf("origin/%s...origin/%s", base, head)
	cmd := exec.CommandContext(ctx, "git", "-c", "core.longpaths=true", "diff", rangeSpec)
	cmd.Dir = path

	out, err := cmd.Output()
	if err != nil {
		var detail string
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = string(exitErr.Stderr)
		}
		return "", fmt.Errorf("git diff %s failed: %s: %w", rangeSpec, detail, err)
	}
	return string(out), nil
}

// authenticatedURL injects the token into an HTTPS repository URL. Local
// paths pass through untouched; file:// is intentionally unsupported.
func authenticatedURL(repoURL, token string) (string, error) {
	if !strings.Contains(repoURL, "://") {
		return repoURL, nil
	}

	if !strings.HasPrefix(repoURL, "https://") && !strings.HasPrefix(repoURL, "http://") {
		return "", fmt.Errorf("invalid repository URL: %s", repoURL)
	}

	parsedURL, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse repository URL '%s': %w", repoURL, err)
	}
	if token != "" {
		parsedURL.User = url.UserPassword("x-access-token", token)
	}
	return parsedURL.String(), nil
}
