package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/pr-reviewer/internal/app"
	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/llm"
	"github.com/sevigo/pr-reviewer/internal/logger"
	"github.com/sevigo/pr-reviewer/internal/review"
)

var renderComment bool

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Generate and post an automated review for a pull request",
	Long: `Generate and post an automated review for a pull request.

The diff is fetched either directly from the platform API or from a local
working copy, sent to the configured LLM, and the resulting review is posted
as a single comment on the pull request.

Examples:
  pr-reviewer review https://github.com/owner/repo/pull/123
  pr-reviewer review --selected-repo owner/repo --issue-number 123 --diff-source local`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().String("diff-source", "api", `Diff acquisition strategy: "api" or "local"`)
	reviewCmd.Flags().BoolVar(&renderComment, "render", false, "Render the posted comment as markdown in the terminal")
	if err := viper.BindPFlag("review.diff_source", reviewCmd.Flags().Lookup("diff-source")); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	event, err := resolveTarget(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.Log, os.Stderr)

	titleColor.Println("PR Reviewer")
	dimColor.Printf("   Target: %s#%d (diff source: %s)\n\n", event.FullName, event.Number, cfg.Review.DiffSource)

	model, err := llm.NewModel(ctx, cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("failed to create LLM model: %w", err)
	}
	prompts, err := llm.NewPromptManager()
	if err != nil {
		return fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	job := review.NewReviewJob(
		cfg,
		github.NewPATClientFactory(cfg, log),
		app.NewDiffSource(cfg, log),
		prompts,
		llm.NewReviewer(model, cfg.LLM, log),
		review.NewFormatter(cfg.Review),
		log,
	)

	body, err := job.Execute(ctx, event)
	switch {
	case github.IsNotFound(err):
		return fmt.Errorf("pull request %s#%d not found\n\nTip: Check that the PR exists and your token has access", event.FullName, event.Number)
	case err != nil:
		// The review could not complete; this is reported but is not a CLI
		// failure.
		warnColor.Printf("Review did not complete: %v\n", err)
		return nil
	case body == "":
		successColor.Println("Nothing to review: the diff is empty.")
		return nil
	}

	successColor.Println("Review comment posted.")
	if renderComment {
		printComment(body)
	}
	return nil
}

// printComment renders the posted comment for the terminal, falling back to
// plain text when the renderer is unavailable.
func printComment(body string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		if out, rerr := renderer.Render(body); rerr == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(body)
}
