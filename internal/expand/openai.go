package expand

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Tkdue/magicsearch/internal/fetch"
)

type OpenAIOptions struct {
	APIKey    string
	Model     string
	BaseUrl   string
	MaxTokens int
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// OpenAI calls the chat completions endpoint.
type OpenAI struct {
	client    *fetch.Client
	apiKey    string
	model     string
	baseUrl   string
	maxTokens int
}

const defaultOpenAIModel = "gpt-4o-mini"

func NewOpenAI(client *fetch.Client, opts OpenAIOptions) *OpenAI {
	baseUrl := strings.TrimRight(opts.BaseUrl, "/")
	if baseUrl == "" {
		baseUrl = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 100
	}
	return &OpenAI{
		client:    client,
		apiKey:    strings.TrimSpace(opts.APIKey),
		model:     model,
		baseUrl:   baseUrl,
		maxTokens: maxTokens,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	if o.apiKey == "" {
		return "", errMissingKey
	}
	body, err := json.Marshal(openAIChatRequest{
		Model: o.model,
		Messages: []openAIMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		MaxTokens:   o.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseUrl+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	var out openAIChatResponse
	if err := o.client.JSON(req, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errEmptyResponse
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
