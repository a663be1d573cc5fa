package expand

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Completer is one AI text provider able to answer an expansion prompt.
type Completer interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Prompt is a system instruction plus the user turn.
type Prompt struct {
	System string
	User   string
}

const systemInstruction = "You are an expert at expanding image search queries. " +
	"Generate 3-5 related search terms that will help find better images. " +
	"Return only a comma-separated list of terms, no explanations."

// NewPrompt builds the fixed expansion prompt for phrase. Extra context, when
// present, is appended to the user turn.
func NewPrompt(phrase, additionalContext string) Prompt {
	user := fmt.Sprintf("Expand this image search query: %q", phrase)
	if c := strings.TrimSpace(additionalContext); c != "" {
		user += "\nAdditional context: " + c
	}
	return Prompt{System: systemInstruction, User: user}
}

var (
	errMissingKey    = errors.New("api key not configured")
	errEmptyResponse = errors.New("empty completion")
)
