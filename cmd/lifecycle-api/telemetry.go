// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
)

// setupTracing configures the OTLP trace exporter when an endpoint is
// set, and returns a shutdown function. Without an endpoint, spans stay
// no-ops and the returned function does nothing.
func setupTracing(ctx context.Context) func(context.Context) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) {}
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating OTLP trace exporter, tracing disabled")
		return func(context.Context) {}
	}

	res, err := sdkresource.Merge(sdkresource.Default(), sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("meeting-lifecycle-service"),
	))
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error building trace resource, tracing disabled")
		return func(context.Context) {}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return func(shutdownCtx context.Context) {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.With(logging.ErrKey, err).Error("error shutting down tracer provider")
		}
	}
}
