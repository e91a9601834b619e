package storyloom

import (
	"context"
	"testing"

	"github.com/storyloom-dev/storyloom/internal/gen"
	"github.com/storyloom-dev/storyloom/internal/story"
	"github.com/storyloom-dev/storyloom/pkg/config"
)

func TestBuildStore(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"memory", ""} {
		cfg := &config.Config{Store: name}
		store, err := BuildStore(ctx, cfg)
		if err != nil {
			t.Fatalf("BuildStore(%q): %v", name, err)
		}
		if _, ok := store.(*story.MemoryStore); !ok {
			t.Errorf("BuildStore(%q) = %T, want *story.MemoryStore", name, store)
		}
		_ = store.Close()
	}

	if _, err := BuildStore(ctx, &config.Config{Store: "cassandra"}); err == nil {
		t.Error("BuildStore accepted an unknown backend")
	}
}

func TestBuildGenerators(t *testing.T) {
	cfg := &config.Config{
		Provider:  "openai",
		OpenAIKey: "sk-test",
	}

	text, image, err := BuildGenerators(cfg)
	if err != nil {
		t.Fatalf("BuildGenerators: %v", err)
	}
	if text.Name() != "openai" {
		t.Errorf("provider = %q", text.Name())
	}
	if image == nil {
		t.Error("no image generator")
	}

	if _, _, err := BuildGenerators(&config.Config{Provider: "unknown", OpenAIKey: "sk-test"}); err == nil {
		t.Error("BuildGenerators accepted an unknown provider")
	}
}

func TestBuildGeneratorsRateLimited(t *testing.T) {
	cfg := &config.Config{
		Provider:          "openai",
		OpenAIKey:         "sk-test",
		RequestsPerSecond: 2,
		Burst:             1,
	}

	text, image, err := BuildGenerators(cfg)
	if err != nil {
		t.Fatalf("BuildGenerators: %v", err)
	}
	if _, ok := text.(*gen.RateLimitedText); !ok {
		t.Errorf("text = %T, want rate limited", text)
	}
	if _, ok := image.(*gen.RateLimitedImage); !ok {
		t.Errorf("image = %T, want rate limited", image)
	}
}
