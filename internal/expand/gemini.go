package expand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini answers expansion prompts through the Google GenAI SDK.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

type GeminiOptions struct {
	APIKey    string
	Model     string
	BaseUrl   string
	MaxTokens int
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := opts.Model
	if model == "" {
		model = "gemini-1.5-pro"
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	cfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(opts.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseUrl != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseUrl}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, maxTokens: int32(maxTokens)}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, p Prompt) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		MaxOutputTokens:   g.maxTokens,
		Temperature:       genai.Ptr[float32](0.8),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
