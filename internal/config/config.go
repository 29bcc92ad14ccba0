// Package config loads and validates the application's configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-reviewer/internal/logger"
)

// Default bounds for the review pipeline. All of them can be overridden via
// configuration; DefaultMaxDiffChars additionally via a repository's
// .pr-reviewer.yml.
const (
	DefaultMaxDiffChars  = 10000
	DefaultMaxComment    = 65000
	DefaultMaxPatchChars = 1000
	DefaultLLMTimeout    = 60 * time.Second
)

// GitHubConfig holds credentials and addressing for the hosting platform.
type GitHubConfig struct {
	Token          string
	Username       string
	BaseDomain     string
	AppID          int64
	WebhookSecret  string
	PrivateKeyPath string
}

// LLMConfig identifies the completion endpoint and the transport policy.
type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	// FailOnError aborts the review on an LLM transport failure instead of
	// degrading to the fixed fallback comment.
	FailOnError bool
}

// ReviewConfig bounds the direct-review pipeline.
type ReviewConfig struct {
	OutputDir       string
	DiffSource      string // "api" or "local"
	MaxDiffChars    int
	MaxCommentChars int
	MaxPatchChars   int
	MaxWorkers      int
}

// AgentConfig is pass-through configuration for the delegated coding-agent
// run in agent-resolution mode.
type AgentConfig struct {
	Command        string
	MaxIterations  int
	Runtime        string
	ContainerImage string
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port string
}

// Config is the application configuration, threaded explicitly through each
// component rather than read from ambient process state.
type Config struct {
	GitHub GitHubConfig
	LLM    LLMConfig
	Review ReviewConfig
	Agent  AgentConfig
	Server ServerConfig
	Log    logger.Config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.base_domain", "github.com")
	v.SetDefault("github.username", "pr-reviewer[bot]")
	v.SetDefault("github.private_key_path", "keys/pr-reviewer-app.private-key.pem")
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "gemma3:latest")
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("review.output_dir", "output")
	v.SetDefault("review.diff_source", "api")
	v.SetDefault("review.max_diff_chars", DefaultMaxDiffChars)
	v.SetDefault("review.max_comment_chars", DefaultMaxComment)
	v.SetDefault("review.max_patch_chars", DefaultMaxPatchChars)
	v.SetDefault("review.max_workers", 4)
	v.SetDefault("agent.max_iterations", 50)
	v.SetDefault("agent.runtime", "docker")
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stdout")
}

// Load reads configuration from viper's bound sources (flags, environment,
// optional .env file), applies defaults, and validates bounds.
func Load() (*Config, error) {
	v := viper.GetViper()
	setDefaults(v)

	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		// A missing .env is fine; a broken one is reported but not fatal.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to read .env file", "error", err)
		}
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:          v.GetString("github.token"),
			Username:       v.GetString("github.username"),
			BaseDomain:     v.GetString("github.base_domain"),
			AppID:          v.GetInt64("github.app_id"),
			WebhookSecret:  v.GetString("github.webhook_secret"),
			PrivateKeyPath: v.GetString("github.private_key_path"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			FailOnError: v.GetBool("llm.fail_on_error"),
		},
		Review: ReviewConfig{
			OutputDir:       v.GetString("review.output_dir"),
			DiffSource:      v.GetString("review.diff_source"),
			MaxDiffChars:    v.GetInt("review.max_diff_chars"),
			MaxCommentChars: v.GetInt("review.max_comment_chars"),
			MaxPatchChars:   v.GetInt("review.max_patch_chars"),
			MaxWorkers:      v.GetInt("review.max_workers"),
		},
		Agent: AgentConfig{
			Command:        v.GetString("agent.command"),
			MaxIterations:  v.GetInt("agent.max_iterations"),
			Runtime:        v.GetString("agent.runtime"),
			ContainerImage: v.GetString("agent.container_image"),
		},
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
			File:   v.GetString("log.file"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Review.DiffSource {
	case "api", "local":
	default:
		return fmt.Errorf("review.diff_source must be \"api\" or \"local\", got %q", c.Review.DiffSource)
	}
	if c.Review.MaxDiffChars <= 0 {
		return fmt.Errorf("review.max_diff_chars must be positive, got %d", c.Review.MaxDiffChars)
	}
	if c.Review.MaxCommentChars <= 0 {
		return fmt.Errorf("review.max_comment_chars must be positive, got %d", c.Review.MaxCommentChars)
	}
	if c.Review.MaxPatchChars <= 0 {
		return fmt.Errorf("review.max_patch_chars must be positive, got %d", c.Review.MaxPatchChars)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key must be set for the gemini provider")
	}
	return nil
}
