package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const defaultChatModel = "gpt-4o"

func init() {
	RegisterFactory("openai", func(cfg Config) (TextGenerator, error) {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return NewOpenAIText(openai.NewClient(apiKey), cfg.Model), nil
	})
}

// ChatClient is the subset of the OpenAI client used for text generation.
// Narrowed for testability.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ImageClient is the subset of the OpenAI client used for image generation.
type ImageClient interface {
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// OpenAIText implements TextGenerator on top of the OpenAI chat API.
type OpenAIText struct {
	client ChatClient
	model  string
}

// NewOpenAIText creates an OpenAI text generator with a custom client
// (useful for testing).
func NewOpenAIText(client ChatClient, model string) *OpenAIText {
	if model == "" {
		model = defaultChatModel
	}
	return &OpenAIText{client: client, model: model}
}

// Name returns the provider name.
func (g *OpenAIText) Name() string { return "openai" }

// Complete generates free text.
func (g *OpenAIText) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(req, false))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Structured generates a JSON object using the json_object response format.
func (g *OpenAIText) Structured(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("openai structured: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return json.RawMessage(content), nil
}

func (g *OpenAIText) buildRequest(req Request, jsonMode bool) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: float32(req.Temperature),
	}
	if jsonMode {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out
}

// OpenAIImage implements ImageGenerator on top of the DALL-E API.
type OpenAIImage struct {
	client ImageClient
	model  string
}

// NewOpenAIImage creates an OpenAI image generator with a custom client.
func NewOpenAIImage(client ImageClient, model string) *OpenAIImage {
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIImage{client: client, model: model}
}

// NewOpenAIImageFromKey creates an image generator from an API key.
func NewOpenAIImageFromKey(apiKey, model string) (*OpenAIImage, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return NewOpenAIImage(openai.NewClient(apiKey), model), nil
}

// Generate returns the URL of a generated image.
func (g *OpenAIImage) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:          g.model,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Style:          openai.CreateImageStyleVivid,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no image in response")
	}
	return resp.Data[0].URL, nil
}
