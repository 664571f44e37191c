// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// ProcessingMessageSender enqueues transcript processing jobs.
type ProcessingMessageSender interface {
	SendMeetingProcessing(ctx context.Context, msg models.MeetingProcessingMessage) error
}
