// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package handlers contains the NATS message handlers of the lifecycle service.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
	"github.com/meetassist/meeting-lifecycle-service/internal/observability/metrics"
	"github.com/meetassist/meeting-lifecycle-service/internal/service"
)

// ProcessingHandler consumes transcript processing jobs from NATS.
type ProcessingHandler struct {
	pipelineService *service.PipelineService
}

// NewProcessingHandler creates a new ProcessingHandler.
func NewProcessingHandler(pipelineService *service.PipelineService) *ProcessingHandler {
	return &ProcessingHandler{
		pipelineService: pipelineService,
	}
}

// HandlerReady checks if the handler is ready to process messages.
func (h *ProcessingHandler) HandlerReady() bool {
	return h.pipelineService != nil && h.pipelineService.ServiceReady()
}

// HandleMessage dispatches an incoming NATS message by subject.
func (h *ProcessingHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))

	handlers := map[string]func(ctx context.Context, msg domain.Message){
		models.MeetingProcessingSubject: h.handleMeetingProcessing,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown message subject")
		return
	}

	handler(ctx, msg)
}

func (h *ProcessingHandler) handleMeetingProcessing(ctx context.Context, msg domain.Message) {
	var job models.MeetingProcessingMessage
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling processing message", logging.ErrKey, err)
		metrics.DefaultMetrics.PipelineRunsTotal.WithLabelValues("malformed").Inc()
		return
	}

	start := time.Now()
	err := h.pipelineService.ProcessMeeting(ctx, job)
	metrics.DefaultMetrics.PipelineStepDuration.WithLabelValues("full_run").Observe(time.Since(start).Seconds())

	if err != nil {
		// The pipeline already completed the meeting with a failure
		// summary; the error is surfaced here for visibility only.
		slog.ErrorContext(ctx, "processing job failed", logging.ErrKey, err,
			"meeting_uid", job.MeetingUID, "job_uid", job.JobUID)
		metrics.DefaultMetrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return
	}

	metrics.DefaultMetrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
}
