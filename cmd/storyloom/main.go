package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/storyloom-dev/storyloom"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	configFile = flag.String("config", getEnv("CONFIG_FILE", "config/storyloom.yaml"), "Configuration file")
)

func main() {
	flag.Parse()

	log.Printf("Starting Storyloom v%s", Version)
	log.Printf("Config: %s", *configFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storyloom.Run(ctx, *configFile); err != nil {
		log.Fatalf("Error: %v", err)
	}
	log.Println("Storyloom stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
