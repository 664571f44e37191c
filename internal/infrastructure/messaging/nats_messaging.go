// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package messaging sends lifecycle service messages over NATS.
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
)

// INatsConn is the slice of the NATS connection surface the message
// builder uses. It matches nats.Conn and allows for mocking in tests.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder builds lifecycle messages and sends them to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// sendMessage sends the message to the NATS server.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// SendMeetingProcessing enqueues a transcript processing job. A job UID
// is generated when the caller did not set one, so consumers can
// correlate log lines across redeliveries of the same job.
func (m *MessageBuilder) SendMeetingProcessing(ctx context.Context, msg models.MeetingProcessingMessage) error {
	if !m.NatsConn.IsConnected() {
		return domain.NewUnavailableError("NATS connection is not available")
	}

	if msg.JobUID == "" {
		msg.JobUID = uuid.New().String()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling processing message", logging.ErrKey, err)
		return domain.NewInternalError("failed to marshal processing message", err)
	}

	slog.DebugContext(ctx, "enqueueing meeting processing job",
		"meeting_uid", msg.MeetingUID,
		"job_uid", msg.JobUID,
		"has_transcript_url", msg.TranscriptURL != "",
	)

	return m.sendMessage(ctx, models.MeetingProcessingSubject, data)
}
