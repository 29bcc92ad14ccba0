package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/pr-reviewer/internal/core"
	"github.com/sevigo/pr-reviewer/internal/gitutil"
)

var (
	selectedRepo string
	issueNumber  int
)

var rootCmd = &cobra.Command{
	Use:   "pr-reviewer",
	Short: "pr-reviewer posts automated LLM reviews on pull requests.",
	Long: `A pipeline that turns a pull request diff into a single review comment.

The review command fetches the PR diff, asks the configured LLM for a
structured review, and posts it back to the pull request. The resolve
command instead delegates to an external coding agent and posts its outcome.`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&selectedRepo, "selected-repo", "", "Target repository as owner/name")
	flags.IntVar(&issueNumber, "issue-number", 0, "Pull request number to review")
	flags.StringP("token", "t", "", "GitHub token")
	flags.String("username", "", "GitHub username used for authenticated git operations")
	flags.String("base-domain", "github.com", "GitHub (Enterprise) domain")
	flags.String("output-dir", "output", "Directory for working copies and agent output")
	flags.String("llm-model", "", "Completion model name")
	flags.String("llm-api-key", "", "API key for hosted LLM providers")
	flags.String("llm-base-url", "", "Base URL of the LLM server")

	bindings := map[string]string{
		"github.token":       "token",
		"github.username":    "username",
		"github.base_domain": "base-domain",
		"review.output_dir":  "output-dir",
		"llm.model":          "llm-model",
		"llm.api_key":        "llm-api-key",
		"llm.base_url":       "llm-base-url",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			slog.Error("error binding flag", "flag", flag, "error", err)
			os.Exit(1)
		}
	}
}

// initConfig binds environment variables (PRW_GITHUB_TOKEN and friends) to
// the dotted configuration keys.
func initConfig() {
	viper.SetEnvPrefix("PRW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// resolveTarget determines which pull request to operate on: a positional PR
// URL wins, otherwise --selected-repo plus --issue-number.
func resolveTarget(args []string) (*core.ReviewEvent, error) {
	if len(args) == 1 {
		owner, repo, number, err := gitutil.ParsePullRequestURL(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
		}
		return &core.ReviewEvent{
			Owner:    owner,
			Repo:     repo,
			FullName: owner + "/" + repo,
			Number:   number,
		}, nil
	}

	owner, repo, ok := strings.Cut(selectedRepo, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("no target: pass a PR URL or --selected-repo owner/name with --issue-number")
	}
	if issueNumber <= 0 {
		return nil, fmt.Errorf("--issue-number must be a positive PR number, got %d", issueNumber)
	}
	return &core.ReviewEvent{
		Owner:    owner,
		Repo:     repo,
		FullName: selectedRepo,
		Number:   issueNumber,
	}, nil
}
