// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
	"github.com/meetassist/meeting-lifecycle-service/internal/middleware"
	"github.com/meetassist/meeting-lifecycle-service/internal/observability/metrics"
	"github.com/meetassist/meeting-lifecycle-service/internal/service"
)

// SignatureHeader carries the provider's signature over the raw body.
const SignatureHeader = "X-Signature"

// Handlers wires the HTTP endpoints to the services.
type Handlers struct {
	lifecycleService *service.LifecycleService
	connectService   *service.ConnectService
	pipelineService  *service.PipelineService
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(
	lifecycleService *service.LifecycleService,
	connectService *service.ConnectService,
	pipelineService *service.PipelineService,
) *Handlers {
	return &Handlers{
		lifecycleService: lifecycleService,
		connectService:   connectService,
		pipelineService:  pipelineService,
	}
}

// HandleWebhook receives provider events. Per-event request failures
// (signature, format, unknown meeting, conflicts) surface with their
// status; internal failures are swallowed with a 200 so the provider
// does not enter a retry storm.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, ok := middleware.GetRawBodyFromContext(ctx)
	if !ok {
		// Body capture middleware not in front of this route; fall back to
		// reading directly.
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			writeError(w, domain.NewValidationError("failed to read request body", err))
			return
		}
	}

	kind, err := h.lifecycleService.HandleWebhookEvent(ctx, body, r.Header.Get(SignatureHeader))
	if err != nil {
		switch domain.GetErrorType(err) {
		case domain.ErrorTypeValidation, domain.ErrorTypeAuthentication,
			domain.ErrorTypeNotFound, domain.ErrorTypeConflict:
			metrics.DefaultMetrics.WebhookEventsTotal.WithLabelValues(string(kind), "rejected").Inc()
			writeError(w, err)
			return
		default:
			slog.ErrorContext(ctx, "webhook event handling failed", logging.ErrKey, err)
			metrics.DefaultMetrics.WebhookEventsTotal.WithLabelValues(string(kind), "error").Inc()
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
	}

	metrics.DefaultMetrics.WebhookEventsTotal.WithLabelValues(string(kind), "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type connectRequest struct {
	MeetingID string `json:"meetingId"`
	AgentID   string `json:"agentId"`
}

// HandleConnectAgent serves on-demand agent connection from the call UI.
func (h *Handlers) HandleConnectAgent(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("invalid request body", err))
		return
	}

	result, err := h.connectService.Connect(r.Context(), req.MeetingID, req.AgentID)
	if err != nil {
		metrics.DefaultMetrics.ConnectAttemptsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}

	if result.InProgress {
		metrics.DefaultMetrics.ConnectAttemptsTotal.WithLabelValues("in_progress").Inc()
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success": false,
			"message": "Agent connection in progress",
		})
		return
	}

	if result.AlreadyConnected {
		metrics.DefaultMetrics.ConnectAttemptsTotal.WithLabelValues("already_connected").Inc()
	} else {
		metrics.DefaultMetrics.ConnectAttemptsTotal.WithLabelValues("connected").Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"alreadyConnected": result.AlreadyConnected,
	})
}

type markEndedRequest struct {
	MeetingID string `json:"meetingId"`
}

// HandleMarkEnded is the best-effort end-of-call fallback from the client.
func (h *Handlers) HandleMarkEnded(w http.ResponseWriter, r *http.Request) {
	var req markEndedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("invalid request body", err))
		return
	}

	if err := h.lifecycleService.MarkEnded(r.Context(), req.MeetingID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRegenerateSummary re-runs summarization for a completed meeting.
func (h *Handlers) HandleRegenerateSummary(w http.ResponseWriter, r *http.Request) {
	meetingUID := chi.URLParam(r, "uid")

	if err := h.pipelineService.RegenerateSummary(r.Context(), meetingUID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleLivez reports process liveness.
func (h *Handlers) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleReadyz reports service readiness.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, _ *http.Request) {
	if h.lifecycleService == nil || !h.lifecycleService.ServiceReady() ||
		h.pipelineService == nil || !h.pipelineService.ServiceReady() {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
