// Package storyloom wires the narrative engine, its generation providers
// and the HTTP surface into a runnable service. Use Run for the full
// service, or the Build helpers to embed the engine elsewhere.
package storyloom

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storyloom-dev/storyloom/internal/api"
	"github.com/storyloom-dev/storyloom/internal/gen"
	"github.com/storyloom-dev/storyloom/internal/story"
	"github.com/storyloom-dev/storyloom/pkg/config"
	"github.com/storyloom-dev/storyloom/pkg/observability"
)

// Run starts the service from a config file and blocks until the context
// is canceled or a server fails.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	return RunWithConfig(ctx, cfg)
}

// RunWithConfig starts the service with the provided config.
func RunWithConfig(ctx context.Context, cfg *config.Config) error {
	observability.InitMetrics()
	if err := observability.InitTracingFromEnv(); err != nil {
		log.Printf("Warning: failed to initialize tracing: %v", err)
		// Continue even if tracing fails
	}
	observability.InitHealthChecker().RegisterCheck(observability.PingCheck())

	text, image, err := BuildGenerators(cfg)
	if err != nil {
		return fmt.Errorf("build generators: %w", err)
	}

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer func() { _ = store.Close() }()

	engine := story.NewEngine(text, image, store,
		story.WithStageTimeout(cfg.StageTimeout.Duration))

	apiServer := api.NewServer(engine, cfg.APIPort)
	obsServer := observability.NewServer(cfg.MetricsPort)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Story API listening on :%d", cfg.APIPort)
		return apiServer.Start()
	})
	g.Go(func() error {
		log.Printf("Metrics listening on :%d", cfg.MetricsPort)
		return obsServer.Start()
	})
	if cfg.SessionTTL.Duration > 0 {
		sweeper := story.NewSweeper(store, cfg.SessionTTL.Duration, cfg.SweepInterval.Duration)
		g.Go(func() error {
			return sweeper.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		if err := obsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}
		if err := observability.ShutdownTracing(shutdownCtx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// BuildGenerators constructs the text and image generation capabilities
// from the config, wrapping both with a rate limiter when configured.
func BuildGenerators(cfg *config.Config) (gen.TextGenerator, gen.ImageGenerator, error) {
	apiKey := cfg.OpenAIKey
	if cfg.Provider == "gemini" {
		apiKey = cfg.GeminiKey
	}

	text, err := gen.New(cfg.Provider, gen.Config{
		APIKey: apiKey,
		Model:  cfg.ChatModel,
	})
	if err != nil {
		return nil, nil, err
	}

	// Image generation is always OpenAI-backed; there is no DALL-E
	// equivalent behind the Gemini text provider.
	image, err := gen.NewOpenAIImageFromKey(cfg.OpenAIKey, cfg.ImageModel)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RequestsPerSecond > 0 {
		return gen.NewRateLimitedText(text, cfg.RequestsPerSecond, cfg.Burst),
			gen.NewRateLimitedImage(image, cfg.RequestsPerSecond, cfg.Burst), nil
	}
	return text, image, nil
}

// BuildStore constructs the session store backend named by the config.
func BuildStore(ctx context.Context, cfg *config.Config) (story.Store, error) {
	switch cfg.Store {
	case "memory", "":
		return story.NewMemoryStore(), nil
	case "redis":
		return story.NewRedisStore(story.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Prefix:     cfg.Redis.Prefix,
			SessionTTL: cfg.SessionTTL.Duration,
		})
	case "firestore":
		clientCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return story.NewFirestoreStore(clientCtx, story.FirestoreConfig{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
			Collection:      cfg.Firestore.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}
