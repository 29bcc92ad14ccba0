package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/pr-reviewer/internal/config"
)

// newGenerationHTTPClient builds an HTTP client with generous timeouts.
// Local model servers can take a while to answer a review prompt.
func newGenerationHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}

// NewModel creates the completion model for the configured provider. Model
// name, API key, and base URL come from configuration and are passed through
// unchanged.
func NewModel(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (llms.Model, error) {
	switch cfg.Provider {
	case "gemini":
		logger.Info("using gemini LLM provider", "model", cfg.Model)
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required for the gemini provider")
		}
		return gemini.New(ctx,
			gemini.WithModel(cfg.Model),
			gemini.WithAPIKey(cfg.APIKey),
		)

	case "ollama":
		logger.Info("using ollama LLM provider", "model", cfg.Model, "base_url", cfg.BaseURL)
		if cfg.BaseURL != "" {
			return ollama.New(
				ollama.WithServerURL(cfg.BaseURL),
				ollama.WithModel(cfg.Model),
				ollama.WithHTTPClient(newGenerationHTTPClient()),
				ollama.WithLogger(logger),
			)
		}
		return ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(newGenerationHTTPClient()),
			ollama.WithLogger(logger),
		)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
