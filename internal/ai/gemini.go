package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini generator
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini generates text through the Gemini API
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini generator
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Name identifies the backend in logs
func (g *Gemini) Name() string {
	return "gemini"
}

// Generate sends prompt to the model and returns its text reply
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return resp.Text(), nil
}
