package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/pr-reviewer/internal/config"
)

// Reviewer sends exactly one completion request per review and applies the
// transport-failure policy: degrade to FallbackReviewText, or abort when the
// caller demands it.
type Reviewer struct {
	generate func(ctx context.Context, prompt string) (string, error)
	timeout  time.Duration
	logger   *slog.Logger
}

// NewReviewer wraps a completion model. The timeout bounds each generation;
// expiry counts as a transport failure.
func NewReviewer(model llms.Model, cfg config.LLMConfig, logger *slog.Logger) *Reviewer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultLLMTimeout
	}
	return &Reviewer{
		generate: func(ctx context.Context, prompt string) (string, error) {
			return llms.GenerateFromSinglePrompt(ctx, model, prompt)
		},
		timeout: timeout,
		logger:  logger,
	}
}

// Review obtains the raw review text for prompt. Any transport failure
// (error, timeout, empty completion) returns FallbackReviewText unless
// failOnError is set, in which case the error propagates and the pipeline
// aborts.
func (r *Reviewer) Review(ctx context.Context, prompt string, failOnError bool) (string, error) {
	text, err := r.generateWithTimeout(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("model returned an empty completion")
	}
	if err != nil {
		if failOnError {
			return "", fmt.Errorf("llm generation failed: %w", err)
		}
		r.logger.Warn("llm generation failed, degrading to fallback review text", "error", err)
		return FallbackReviewText, nil
	}
	return text, nil
}

// generateWithTimeout wraps generation with a hard timeout so a hung
// transport cannot stall the pipeline.
func (r *Reviewer) generateWithTimeout(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := r.generate(ctx, prompt)
		select {
		case resultCh <- result{resp, err}:
		case <-ctx.Done():
			// Do not block the goroutine if the caller timed out.
		}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
