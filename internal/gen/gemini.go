package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

func init() {
	RegisterFactory("gemini", func(cfg Config) (TextGenerator, error) {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		return NewGeminiText(apiKey, cfg.Model)
	})
}

// GeminiText implements TextGenerator using the Google Gen AI SDK.
type GeminiText struct {
	client *genai.Client
	model  string
}

// NewGeminiText creates a Gemini text generator backed by the Gemini API.
func NewGeminiText(apiKey, model string) (*GeminiText, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiText{client: client, model: model}, nil
}

// Name returns the provider name.
func (g *GeminiText) Name() string { return "gemini" }

// Complete generates free text.
func (g *GeminiText) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(req.User), g.buildConfig(req, false))
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return extractText(resp)
}

// Structured generates a JSON object via the application/json response MIME type.
func (g *GeminiText) Structured(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(req.User), g.buildConfig(req, true))
	if err != nil {
		return nil, fmt.Errorf("gemini structured: %w", err)
	}
	content, err := extractText(resp)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return json.RawMessage(content), nil
}

func (g *GeminiText) buildConfig(req Request, jsonMode bool) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if jsonMode {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	var content string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			content += part.Text
		}
	}
	return content, nil
}
