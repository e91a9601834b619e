// Package gen defines the text- and image-generation capabilities consumed
// by the story engine, plus a factory registry for concrete providers.
package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Request describes a single text-generation call.
type Request struct {
	// System is the system instruction defining the model's role.
	System string
	// User is the task-specific instruction.
	User string
	// Temperature controls randomness (0.0-2.0).
	Temperature float64
}

// TextGenerator produces text or structured JSON from a prompt pair.
type TextGenerator interface {
	// Complete generates free text for the request.
	Complete(ctx context.Context, req Request) (string, error)

	// Structured generates a JSON object for the request.
	// The returned bytes are a single JSON object on success.
	Structured(ctx context.Context, req Request) (json.RawMessage, error)

	// Name returns the provider name (e.g. "openai", "gemini").
	Name() string
}

// ImageGenerator turns a natural-language prompt into an image URL.
type ImageGenerator interface {
	// Generate returns the URL of a generated image.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds provider-specific settings passed to factories.
type Config struct {
	APIKey     string
	Model      string
	ImageModel string
	ProjectID  string
}

// Factory constructs a TextGenerator from a config.
type Factory func(cfg Config) (TextGenerator, error)

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterFactory registers a provider factory under a name.
func RegisterFactory(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = f
}

// New constructs a registered provider by name.
func New(name string, cfg Config) (TextGenerator, error) {
	factoryMu.RLock()
	f, ok := factories[name]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider '%s' not found", name)
	}
	return f(cfg)
}

// List returns all registered provider names.
func List() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
