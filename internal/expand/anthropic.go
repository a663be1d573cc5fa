package expand

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Tkdue/magicsearch/internal/fetch"
)

type AnthropicOptions struct {
	APIKey    string
	Model     string
	BaseUrl   string
	MaxTokens int
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Anthropic calls the messages endpoint.
type Anthropic struct {
	client    *fetch.Client
	apiKey    string
	model     string
	baseUrl   string
	maxTokens int
}

const (
	defaultAnthropicModel = "claude-3-haiku-20240307"
	anthropicVersion      = "2023-06-01"
)

func NewAnthropic(client *fetch.Client, opts AnthropicOptions) *Anthropic {
	baseUrl := strings.TrimRight(opts.BaseUrl, "/")
	if baseUrl == "" {
		baseUrl = "https://api.anthropic.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 100
	}
	return &Anthropic{
		client:    client,
		apiKey:    strings.TrimSpace(opts.APIKey),
		model:     model,
		baseUrl:   baseUrl,
		maxTokens: maxTokens,
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, p Prompt) (string, error) {
	if a.apiKey == "" {
		return "", errMissingKey
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    p.System,
		Messages:  []anthropicMessage{{Role: "user", Content: p.User}},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseUrl+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	var out anthropicResponse
	if err := a.client.JSON(req, &out); err != nil {
		return "", err
	}
	for _, c := range out.Content {
		if text := strings.TrimSpace(c.Text); text != "" {
			return text, nil
		}
	}
	return "", errEmptyResponse
}
