package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements Generator over one Google Gemini API key.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a generator authenticated with the given API key.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{client: client}, nil
}

// NewGeminiGenerators builds one generator per API key, preserving order.
// On failure every generator created so far is closed.
func NewGeminiGenerators(ctx context.Context, apiKeys []string) ([]Generator, error) {
	generators := make([]Generator, 0, len(apiKeys))
	for i, key := range apiKeys {
		gen, err := NewGemini(ctx, key)
		if err != nil {
			for _, g := range generators {
				g.Close()
			}
			return nil, fmt.Errorf("creating gemini client %d: %w", i+1, err)
		}
		generators = append(generators, gen)
	}
	return generators, nil
}

// Generate sends the prompt and image to the named model and returns the
// concatenated text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, model string, prompt string, pngData []byte) (string, error) {
	// Some listings report model names with a "models/" prefix; the client
	// expects the bare name.
	m := g.client.GenerativeModel(strings.TrimPrefix(model, "models/"))

	parts := []genai.Part{
		genai.ImageData("png", pngData),
		genai.Text(prompt),
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return responseText.String(), nil
}

// Close closes the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
