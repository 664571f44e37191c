// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
	"github.com/meetassist/meeting-lifecycle-service/internal/service"
)

// flags are the command line flags for the lifecycle service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the lifecycle service.
type environment struct {
	Port          string
	NatsURL       string
	WebhookSecret string
	Stream        streamConfig
	LLM           llmConfig
	Pipeline      service.PipelineConfig
}

// streamConfig holds the video/chat provider credentials.
type streamConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	AuthURL   string
}

// llmConfig holds the LLM completion credentials.
type llmConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// parseFlags parses command line flags for the lifecycle service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the lifecycle service
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	webhookSecret := os.Getenv("WEBHOOK_SECRET")
	if webhookSecret == "" {
		slog.Error("WEBHOOK_SECRET environment variable is required but not set")
		os.Exit(1)
	}

	return environment{
		Port:          port,
		NatsURL:       natsURL,
		WebhookSecret: webhookSecret,
		Stream: streamConfig{
			APIKey:    os.Getenv("STREAM_API_KEY"),
			APISecret: os.Getenv("STREAM_API_SECRET"),
			BaseURL:   os.Getenv("STREAM_BASE_URL"),
			AuthURL:   os.Getenv("STREAM_AUTH_URL"),
		},
		LLM: llmConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		},
		Pipeline: parsePipelineConfig(),
	}
}

// parsePipelineConfig reads the pipeline retry tuning knobs. The
// specific schedules are configuration, not load-bearing behavior.
func parsePipelineConfig() service.PipelineConfig {
	return service.PipelineConfig{
		URLPollAttempts: envInt("PIPELINE_URL_POLL_ATTEMPTS"),
		URLPollDelay:    envDuration("PIPELINE_URL_POLL_DELAY"),
		FetchAttempts:   envInt("PIPELINE_FETCH_ATTEMPTS"),
		FetchDelay:      envDuration("PIPELINE_FETCH_DELAY"),
		EmptyRetries:    envInt("PIPELINE_EMPTY_RETRIES"),
		SpeakerWorkers:  envInt("PIPELINE_SPEAKER_WORKERS"),
	}
}

func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.With(logging.ErrKey, err, "name", name, "value", raw).
			Warn("invalid integer environment variable, using default")
		return 0
	}
	return v
}

func envDuration(name string) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.With(logging.ErrKey, err, "name", name, "value", raw).
			Warn("invalid duration environment variable, using default")
		return 0
	}
	return v
}
