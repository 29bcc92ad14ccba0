package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RepoConfigFileName is looked up at the root of a reviewed repository's
// working copy.
const RepoConfigFileName = ".pr-reviewer.yml"

var (
	ErrRepoConfigNotFound = errors.New("repo config file not found")
	ErrRepoConfigParsing  = errors.New("repo config parsing failed")
)

// RepoConfig carries per-repository overrides for the review pipeline.
// Pointer fields distinguish "unset" from an explicit zero.
type RepoConfig struct {
	MaxDiffChars   *int  `yaml:"max_diff_chars"`
	FailOnLLMError *bool `yaml:"fail_on_llm_error"`
}

// LoadRepoConfig loads and parses the .pr-reviewer.yml file from a
// repository working copy. A missing file returns an empty config together
// with ErrRepoConfigNotFound so callers can treat it as a non-event.
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, RepoConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoConfig{}, ErrRepoConfigNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", RepoConfigFileName, err)
	}

	cfg := &RepoConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoConfigParsing, err)
	}
	if cfg.MaxDiffChars != nil && *cfg.MaxDiffChars <= 0 {
		return nil, fmt.Errorf("%w: max_diff_chars must be positive", ErrRepoConfigParsing)
	}
	return cfg, nil
}
