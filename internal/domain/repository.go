// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// MeetingRepository defines the interface for meeting storage operations.
// This interface can be implemented by different storage backends (NATS, PostgreSQL, etc.)
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	MeetingExists(ctx context.Context, meetingUID string) (bool, error)

	GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error)
	GetMeetingWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error)
	// UpdateMeeting writes the meeting only if its stored revision still
	// matches; a stale revision yields a conflict error.
	UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error
}

// AgentRepository defines the interface for agent storage operations.
type AgentRepository interface {
	GetAgent(ctx context.Context, agentUID string) (*models.Agent, error)
	AgentExists(ctx context.Context, agentUID string) (bool, error)
}

// UserRepository defines the interface for user storage operations.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// CheckpointStore persists per-step pipeline results so a redelivered or
// restarted job resumes from the last completed step.
type CheckpointStore interface {
	// GetCheckpoint decodes the stored result of the given step into out.
	// It returns false when no checkpoint exists for the step.
	GetCheckpoint(ctx context.Context, meetingUID, step string, out any) (bool, error)
	PutCheckpoint(ctx context.Context, meetingUID, step string, value any) error
	// ClearCheckpoints removes every stored step result for the meeting.
	ClearCheckpoints(ctx context.Context, meetingUID string) error
}
