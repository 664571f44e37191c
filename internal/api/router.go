// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/meetassist/meeting-lifecycle-service/internal/middleware"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(handlers *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLoggerMiddleware())
	r.Use(middleware.WebhookBodyCaptureMiddleware())

	// Health endpoints
	r.Get("/livez", handlers.HandleLivez)
	r.Get("/readyz", handlers.HandleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Some providers deliver the same event class with PUT.
	r.Post("/webhooks/stream", handlers.HandleWebhook)
	r.Put("/webhooks/stream", handlers.HandleWebhook)

	r.Post("/connect-agent", handlers.HandleConnectAgent)
	r.Post("/meetings/mark-ended", handlers.HandleMarkEnded)
	r.Post("/meetings/{uid}/regenerate-summary", handlers.HandleRegenerateSummary)

	return otelhttp.NewHandler(r, "meeting-lifecycle-service")
}
