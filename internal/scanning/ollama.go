package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Ollama implements Generator against a local Ollama server. There is no
// credential to rotate; a single Ollama generator still participates in the
// dispatcher's model fallback list.
//
// Recommended vision models for receipts: llava:1.6, llava:latest,
// qwen2-vl:7b, bakllava.
type Ollama struct {
	baseURL string
	client  *http.Client
}

// NewOllama creates a generator pointed at an Ollama API base URL.
func NewOllama(baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &Ollama{
		baseURL: baseURL,
		client:  &http.Client{},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Images   []string        `json:"images,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Generate sends the prompt and image to the named model via the chat API.
func (o *Ollama) Generate(ctx context.Context, model string, prompt string, pngData []byte) (string, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(pngData)

	reqBody := ollamaChatRequest{
		Model:  model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading and extracting information from retail receipts. You must carefully read all text in images and extract accurate information.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Images: []string{imageBase64},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return strings.TrimSpace(chatResp.Message.Content), nil
}

// Close closes the Ollama generator (no-op for an HTTP client).
func (o *Ollama) Close() error {
	return nil
}
