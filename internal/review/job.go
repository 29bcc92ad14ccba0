package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/core"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/llm"
)

// Invoker obtains raw review text for a prompt, applying the configured
// transport-failure policy.
type Invoker interface {
	Review(ctx context.Context, prompt string, failOnError bool) (string, error)
}

// ReviewJob runs the direct-review pipeline for one change request:
// resolve → acquire diff → build prompt → invoke → parse → format → post.
// Strictly linear, exactly one comment per successful run.
type ReviewJob struct {
	cfg       *config.Config
	clients   github.ClientFactory
	diffs     DiffSource
	prompts   *llm.PromptManager
	reviewer  Invoker
	formatter *Formatter
	logger    *slog.Logger
}

// NewReviewJob wires the pipeline. All collaborators are required.
func NewReviewJob(
	cfg *config.Config,
	clients github.ClientFactory,
	diffs DiffSource,
	prompts *llm.PromptManager,
	reviewer Invoker,
	formatter *Formatter,
	logger *slog.Logger,
) *ReviewJob {
	if cfg == nil || clients == nil || diffs == nil || prompts == nil || reviewer == nil || formatter == nil || logger == nil {
		panic("review: all ReviewJob collaborators must be non-nil")
	}
	return &ReviewJob{
		cfg:       cfg,
		clients:   clients,
		diffs:     diffs,
		prompts:   prompts,
		reviewer:  reviewer,
		formatter: formatter,
		logger:    logger,
	}
}

// Run executes the pipeline and discards the posted comment body.
func (j *ReviewJob) Run(ctx context.Context, event *core.ReviewEvent) error {
	_, err := j.Execute(ctx, event)
	return err
}

// Execute executes the pipeline and returns the comment body that was
// posted. An empty body with a nil error means the diff was empty and the
// run ended with nothing to review.
func (j *ReviewJob) Execute(ctx context.Context, event *core.ReviewEvent) (string, error) {
	gh, token, err := j.clients(ctx, event.InstallationID)
	if err != nil {
		return "", fmt.Errorf("failed to create platform client: %w", err)
	}

	cr, err := gh.GetChangeRequest(ctx, event.Owner, event.Repo, event.Number)
	if err != nil {
		j.logger.Error("could not resolve change request",
			"owner", event.Owner, "repo", event.Repo, "pr", event.Number, "error", err)
		return "", err
	}
	j.logger.Info("reviewing change request",
		"repo", cr.Owner+"/"+cr.Repo, "pr", cr.Number, "title", cr.Title)

	diff, err := j.diffs.FetchDiff(ctx, gh, token, cr)
	if err != nil {
		j.logger.Error("diff acquisition failed, no comment will be posted", "error", err)
		return "", err
	}
	if strings.TrimSpace(diff) == "" {
		j.logger.Info("empty diff, nothing to review", "repo", cr.Owner+"/"+cr.Repo, "pr", cr.Number)
		return "", nil
	}

	maxDiffChars, failOnError := j.effectivePolicy()

	prompt, err := llm.BuildReviewPrompt(j.prompts, llm.ModelProvider(j.cfg.LLM.Provider), cr, diff, maxDiffChars)
	if err != nil {
		return "", fmt.Errorf("failed to build review prompt: %w", err)
	}

	text, err := j.reviewer.Review(ctx, prompt, failOnError)
	if err != nil {
		j.logger.Error("llm invocation failed and the abort policy is active", "error", err)
		return "", err
	}

	var body string
	structured, parseErr := llm.ParseStructuredReview(text)
	if parseErr != nil {
		j.logger.Warn("unstructured llm response, posting raw text", "error", parseErr)
		body = j.formatter.FormatRaw(text)
	} else {
		body = j.formatter.FormatStructured(structured)
	}

	if err := gh.CreateComment(ctx, cr.Owner, cr.Repo, cr.Number, body); err != nil {
		return "", fmt.Errorf("failed to post review comment: %w", err)
	}
	j.logger.Info("review comment posted", "repo", cr.Owner+"/"+cr.Repo, "pr", cr.Number, "structured", parseErr == nil)
	return body, nil
}

// effectivePolicy resolves the diff bound and LLM failure policy, applying
// .pr-reviewer.yml overrides when a local working copy is available.
func (j *ReviewJob) effectivePolicy() (maxDiffChars int, failOnError bool) {
	maxDiffChars = j.cfg.Review.MaxDiffChars
	failOnError = j.cfg.LLM.FailOnError

	local, ok := j.diffs.(*LocalSource)
	if !ok {
		return maxDiffChars, failOnError
	}

	repoCfg, err := config.LoadRepoConfig(local.RepoPath())
	if err != nil {
		if !errors.Is(err, config.ErrRepoConfigNotFound) {
			j.logger.Warn("ignoring unreadable repo config", "error", err)
		}
		return maxDiffChars, failOnError
	}
	if repoCfg.MaxDiffChars != nil {
		maxDiffChars = *repoCfg.MaxDiffChars
	}
	if repoCfg.FailOnLLMError != nil {
		failOnError = *repoCfg.FailOnLLMError
	}
	return maxDiffChars, failOnError
}
