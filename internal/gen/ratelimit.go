package gen

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedText wraps a TextGenerator with a token-bucket limiter so one
// busy session cannot starve the provider quota for everyone else.
type RateLimitedText struct {
	inner   TextGenerator
	limiter *rate.Limiter
}

// NewRateLimitedText wraps a text generator with a requests-per-second cap.
func NewRateLimitedText(inner TextGenerator, requestsPerSecond float64, burst int) *RateLimitedText {
	return &RateLimitedText{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Name returns the wrapped provider name.
func (g *RateLimitedText) Name() string { return g.inner.Name() }

// Complete waits for limiter capacity then delegates.
func (g *RateLimitedText) Complete(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return g.inner.Complete(ctx, req)
}

// Structured waits for limiter capacity then delegates.
func (g *RateLimitedText) Structured(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return g.inner.Structured(ctx, req)
}

// RateLimitedImage wraps an ImageGenerator with a token-bucket limiter.
type RateLimitedImage struct {
	inner   ImageGenerator
	limiter *rate.Limiter
}

// NewRateLimitedImage wraps an image generator with a requests-per-second cap.
func NewRateLimitedImage(inner ImageGenerator, requestsPerSecond float64, burst int) *RateLimitedImage {
	return &RateLimitedImage{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Generate waits for limiter capacity then delegates.
func (g *RateLimitedImage) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return g.inner.Generate(ctx, prompt)
}
