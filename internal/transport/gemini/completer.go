// Package gemini wraps the Gemini API for filter extraction and embeddings.
// Every call builds a client scoped to one API key, so credential rotation in
// the caller never races a shared client.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Completer produces completions with one Gemini credential.
type Completer struct {
	apiKey string
	model  string
}

// NewCompleter creates a completer bound to one API key.
func NewCompleter(apiKey, model string) *Completer {
	return &Completer{apiKey: apiKey, model: model}
}

// Complete sends one prompt and returns the raw text response.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
