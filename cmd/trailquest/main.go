// Package main is the entry point for Trail Quest.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/samdwyer/trailquest/internal/game"
	"github.com/samdwyer/trailquest/internal/telemetry"
	"github.com/samdwyer/trailquest/internal/ui"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	cfg, err := game.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// The terminal belongs to tcell, so logs go to a file
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	logger := zerolog.New(logFile).Level(cfg.Level()).With().Timestamp().Logger()

	ctx := context.Background()

	if cfg.Telemetry {
		setupOTelEnv()
		shutdown, err := telemetry.Setup(ctx, logger.With().Str("component", "telemetry").Logger())
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry setup failed, running without tracing")
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("telemetry shutdown")
				}
			}()
		}
	}

	s, err := cfg.OpenStore()
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	opts, err := cfg.Options(s, logger)
	if err != nil {
		log.Fatalf("Failed to load game data: %v", err)
	}
	engine, err := game.NewEngine(ctx, opts)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	screen, err := ui.NewScreen()
	if err != nil {
		log.Fatalf("Failed to initialize screen: %v", err)
	}
	g, err := game.New(engine, screen, cfg.StepDelay, logger.With().Str("component", "game").Logger())
	if err != nil {
		screen.Close()
		log.Fatalf("Failed to initialize game: %v", err)
	}

	if err := g.Run(ctx); err != nil {
		log.Fatalf("Game error: %v", err)
	}
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	// Always set endpoint to Honeycomb
	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")

	// Build headers from the API key; a .env file may carry an unexpanded
	// variable reference in OTEL_EXPORTER_OTLP_HEADERS
	apiKey := os.Getenv("HONEYCOMB_TRAILQUEST_API_KEY")
	dataset := os.Getenv("HONEYCOMB_TRAILQUEST_DATASET")
	if dataset == "" {
		dataset = "trailquest" // default dataset name
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}
