// Package ai wraps the text generation backends used to tag articles.
package ai

import (
	"context"
	"errors"
	"fmt"

	"newsmarker/internal/core"
)

// ErrUnavailable is returned when a backend cannot serve requests
var ErrUnavailable = errors.New("ai: generator unavailable")

// Generator turns a prompt into raw model text
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// HealthChecker is implemented by generators that can cheaply probe
// whether their backend is reachable before a run.
type HealthChecker interface {
	Available(ctx context.Context) bool
}

// New builds the generator selected by cfg. It returns a nil Generator
// and no error when categorization is switched off or has no credential.
func New(ctx context.Context, cfg core.AIConfig, logger *core.Logger) (Generator, error) {
	switch cfg.Provider {
	case core.AIProviderNone:
		logger.Info("AI categorization disabled")
		return nil, nil
	case core.AIProviderGemini:
		if cfg.APIKey == "" {
			logger.Info("GEMINI_API_KEY not set, skipping AI categorization")
			return nil, nil
		}
		gemini, err := NewGemini(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case core.AIProviderOllama:
		return NewOllama(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
