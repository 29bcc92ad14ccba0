// Package agent implements the delegated resolution mode: an external coding
// agent is executed against the change request, and its recorded outcome is
// summarized into a single pull-request comment.
package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/core"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/review"
)

// outputFileName is the record file the external agent writes under the
// output directory, one JSON record per line.
const outputFileName = "output.jsonl"

// Patch payloads can make a record far larger than bufio's default line
// limit.
const maxRecordBytes = 16 * 1024 * 1024

// outcomeRecord is one line of the agent's output file. Records for other
// issues may share the file, so each carries the issue number it belongs to.
type outcomeRecord struct {
	IssueNumber int `json:"issue_number"`
	core.ReviewOutcome
}

// Runner executes the external coding agent for a change request and posts
// the formatted outcome. A run that produced no output record is treated as
// already handled and ends quietly without a comment.
type Runner struct {
	cfg       *config.Config
	clients   github.ClientFactory
	formatter *review.Formatter
	logger    *slog.Logger
}

// NewRunner wires the resolution pipeline. All collaborators are required.
func NewRunner(cfg *config.Config, clients github.ClientFactory, formatter *review.Formatter, logger *slog.Logger) *Runner {
	if cfg == nil || clients == nil || formatter == nil || logger == nil {
		panic("agent: all Runner collaborators must be non-nil")
	}
	return &Runner{cfg: cfg, clients: clients, formatter: formatter, logger: logger}
}

// Run executes the agent command, reads back its outcome record, and posts
// the summary comment. The agent owns repository modification; this side only
// consumes the result.
func (r *Runner) Run(ctx context.Context, event *core.ReviewEvent) error {
	gh, token, err := r.clients(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create platform client: %w", err)
	}

	if err := r.execute(ctx, event, token); err != nil {
		return err
	}

	outcome, err := r.readOutcome(event.Number)
	if err != nil {
		return err
	}
	if outcome == nil {
		r.logger.Info("agent produced no outcome record, nothing to post",
			"repo", event.FullName, "pr", event.Number)
		return nil
	}

	body := r.formatter.FormatOutcome(outcome)
	if err := gh.CreateComment(ctx, event.Owner, event.Repo, event.Number, body); err != nil {
		return fmt.Errorf("failed to post resolution comment: %w", err)
	}
	r.logger.Info("resolution comment posted",
		"repo", event.FullName, "pr", event.Number, "success", outcome.Success)
	return nil
}

// execute runs the configured agent command, passing the run parameters
// through as flags. The agent's own output goes to our stderr for operator
// visibility.
func (r *Runner) execute(ctx context.Context, event *core.ReviewEvent, token string) error {
	agentCfg := r.cfg.Agent
	if agentCfg.Command == "" {
		return fmt.Errorf("no agent command configured")
	}

	args := []string{
		"--selected-repo", event.FullName,
		"--issue-number", strconv.Itoa(event.Number),
		"--issue-type", "pr",
		"--output-dir", r.cfg.Review.OutputDir,
		"--max-iterations", strconv.Itoa(agentCfg.MaxIterations),
	}
	if agentCfg.Runtime != "" {
		args = append(args, "--runtime", agentCfg.Runtime)
	}
	if agentCfg.ContainerImage != "" {
		args = append(args, "--base-container-image", agentCfg.ContainerImage)
	}

	r.logger.Info("running coding agent",
		"command", agentCfg.Command, "repo", event.FullName, "pr", event.Number,
		"max_iterations", agentCfg.MaxIterations)

	cmd := exec.CommandContext(ctx, agentCfg.Command, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "GITHUB_TOKEN="+token)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("agent command failed: %w", err)
	}
	return nil
}

// readOutcome scans the agent's output file for the record matching the
// change request. A missing file or no matching record returns nil without
// error. The last matching record wins when the agent appended retries.
func (r *Runner) readOutcome(number int) (*core.ReviewOutcome, error) {
	path := filepath.Join(r.cfg.Review.OutputDir, outputFileName)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open agent output: %w", err)
	}
	defer f.Close()

	outcome, err := findOutcome(f, number)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent output %s: %w", path, err)
	}
	return outcome, nil
}

func findOutcome(rd io.Reader, number int) (*core.ReviewOutcome, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	var found *core.ReviewOutcome
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec outcomeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// Tolerate foreign lines in a shared output file.
			continue
		}
		if rec.IssueNumber != number {
			continue
		}
		outcome := rec.ReviewOutcome
		found = &outcome
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return found, nil
}
