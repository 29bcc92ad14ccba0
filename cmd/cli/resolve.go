package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/pr-reviewer/internal/agent"
	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/logger"
	"github.com/sevigo/pr-reviewer/internal/review"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [pr-url]",
	Short: "Delegate a pull request to an external coding agent and post the outcome",
	Long: `Delegate a pull request to an external coding agent and post the outcome.

The agent may modify the repository and produce a patch; this command only
consumes its recorded outcome and posts a summary comment. An agent run that
yields no outcome record ends quietly without a comment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	flags := resolveCmd.Flags()
	flags.String("agent-cmd", "", "Coding-agent executable to run")
	flags.Int("max-iterations", 50, "Iteration budget passed to the agent")
	flags.String("runtime", "docker", "Agent runtime")
	flags.String("container-image", "", "Base container image for the agent runtime")

	bindings := map[string]string{
		"agent.command":         "agent-cmd",
		"agent.max_iterations":  "max-iterations",
		"agent.runtime":         "runtime",
		"agent.container_image": "container-image",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	event, err := resolveTarget(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Agent.Command == "" {
		return fmt.Errorf("no agent command configured\n\nTip: Pass --agent-cmd or set PRW_AGENT_COMMAND")
	}
	log := logger.New(cfg.Log, os.Stderr)

	titleColor.Println("PR Reviewer - Agent Resolution")
	dimColor.Printf("   Target: %s#%d (agent: %s)\n\n", event.FullName, event.Number, cfg.Agent.Command)

	runner := agent.NewRunner(
		cfg,
		github.NewPATClientFactory(cfg, log),
		review.NewFormatter(cfg.Review),
		log,
	)

	if err := runner.Run(ctx, event); err != nil {
		// The resolution failed; this is reported but is not a CLI failure.
		log.Error("agent resolution failed", "repo", event.FullName, "pr", event.Number, "error", err)
		warnColor.Printf("Resolution did not complete: %v\n", err)
		return nil
	}

	successColor.Println("Agent run finished.")
	return nil
}
