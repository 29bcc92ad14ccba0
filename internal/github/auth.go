package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"

	"github.com/sevigo/pr-reviewer/internal/config"
)

// ClientFactory resolves a platform client plus a git-usable token for a
// given App installation. An installationID of zero requests token-based
// authentication.
type ClientFactory func(ctx context.Context, installationID int64) (Client, string, error)

// NewPATClientFactory returns a factory that always authenticates with the
// configured personal access token, regardless of installation.
func NewPATClientFactory(cfg *config.Config, logger *slog.Logger) ClientFactory {
	return func(ctx context.Context, _ int64) (Client, string, error) {
		if cfg.GitHub.Token == "" {
			return nil, "", fmt.Errorf("github token is not configured")
		}
		client, err := NewPATClient(ctx, cfg.GitHub.Token, cfg.GitHub.BaseDomain, logger)
		if err != nil {
			return nil, "", err
		}
		return client, cfg.GitHub.Token, nil
	}
}

// NewAppClientFactory returns a factory that authenticates as a GitHub App
// installation when the event carries an installation ID, and falls back to
// the configured token otherwise.
func NewAppClientFactory(cfg *config.Config, logger *slog.Logger) ClientFactory {
	patFactory := NewPATClientFactory(cfg, logger)
	return func(ctx context.Context, installationID int64) (Client, string, error) {
		if installationID == 0 {
			return patFactory(ctx, 0)
		}
		return createInstallationClient(ctx, cfg, installationID, logger)
	}
}

// createInstallationClient creates a client authenticated as a specific App
// installation and returns the short-lived installation token alongside it,
// so the local diff strategy can authenticate git fetches with it.
func createInstallationClient(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (Client, string, error) {
	logger.Info("creating GitHub installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read private key from %s: %w", cfg.GitHub.PrivateKeyPath, err)
	}

	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.GitHub.AppID, privateKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create installation token for installation ID %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, "", fmt.Errorf("received an empty installation token")
	}

	client, err := NewPATClient(ctx, token.GetToken(), cfg.GitHub.BaseDomain, logger)
	if err != nil {
		return nil, "", err
	}
	return client, token.GetToken(), nil
}
