// Package perception is the boundary to the remote generative backend: a
// Gemini client with Google Search grounding, rate-limit aware retries, and
// best-effort extraction of JSON and citations from free-text responses.
package perception

import (
	"context"

	"google.golang.org/genai"
)

// Generator issues one grounded generation request.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	return f(ctx, prompt)
}

// ResponseText returns the concatenated text parts of the first candidate.
// A nil response has no text.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}
