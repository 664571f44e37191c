// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// The lifecycle-api service manages meeting lifecycle state from video
// provider webhooks and runs the transcript processing pipeline.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/meetassist/meeting-lifecycle-service/internal/api"
	"github.com/meetassist/meeting-lifecycle-service/internal/handlers"
	"github.com/meetassist/meeting-lifecycle-service/internal/infrastructure/llm"
	"github.com/meetassist/meeting-lifecycle-service/internal/infrastructure/messaging"
	"github.com/meetassist/meeting-lifecycle-service/internal/infrastructure/stream"
	"github.com/meetassist/meeting-lifecycle-service/internal/infrastructure/webhook"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
	"github.com/meetassist/meeting-lifecycle-service/internal/service"
	"github.com/meetassist/meeting-lifecycle-service/pkg/concurrent"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := setupTracing(ctx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup tracking the components that need to finish closing
	// before the process can exit.
	gracefulCloseWG := &sync.WaitGroup{}

	natsConn, err := setupNATS(env, gracefulCloseWG, done)
	if err != nil {
		log.Fatalf("error connecting to NATS at %s: %v", env.NatsURL, err)
	}

	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		log.Fatalf("error creating NATS KV stores: %v", err)
	}

	streamClient := stream.NewClient(stream.Config{
		APIKey:    env.Stream.APIKey,
		APISecret: env.Stream.APISecret,
		BaseURL:   env.Stream.BaseURL,
		AuthURL:   env.Stream.AuthURL,
	})
	videoProvider := stream.NewVideoClient(streamClient)
	chatProvider := stream.NewChatClient(streamClient)
	transcriptFetcher := stream.NewTranscriptFetcher(0)

	completionClient := llm.NewClient(llm.Config{
		APIKey:  env.LLM.APIKey,
		BaseURL: env.LLM.BaseURL,
		Model:   env.LLM.Model,
	})
	if !completionClient.Configured() {
		slog.Warn("no LLM API key configured, summaries and chat replies will be degraded")
	}

	webhookValidator := webhook.NewStreamWebhookValidator(env.WebhookSecret)
	messageSender := messaging.NewMessageBuilder(natsConn)
	summarizer := service.NewSummarizer(completionClient)

	lifecycleService := service.NewLifecycleService(
		repos.Meeting,
		repos.Agent,
		webhookValidator,
		videoProvider,
		chatProvider,
		completionClient,
		messageSender,
	)
	connectService := service.NewConnectService(
		repos.Meeting,
		repos.Agent,
		videoProvider,
		completionClient,
		concurrent.NewKeyedTTLLock(service.ConnectLockTTL),
	)
	pipelineService := service.NewPipelineService(
		repos.Meeting,
		repos.Agent,
		repos.User,
		repos.Checkpoint,
		transcriptFetcher,
		summarizer,
		env.Pipeline,
	)

	apiHandlers := api.NewHandlers(lifecycleService, connectService, pipelineService)
	httpServer := setupHTTPServer(flags, apiHandlers, gracefulCloseWG)

	processingHandler := handlers.NewProcessingHandler(pipelineService)
	if err := createNatsSubscriptions(ctx, processingHandler, natsConn); err != nil {
		log.Fatalf("error creating NATS subscriptions: %v", err)
	}

	slog.Info("meeting lifecycle service started")

	<-done

	gracefulShutdown(httpServer, natsConn, gracefulCloseWG, cancel)
	shutdownTracing(context.Background())
}
