// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// NatsMeetingRepository is the NATS KV store repository for meetings.
type NatsMeetingRepository struct {
	*NatsBaseRepository[models.Meeting]
}

// NewNatsMeetingRepository creates a new NATS KV store repository for meetings.
func NewNatsMeetingRepository(kvStore INatsKeyValue) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Meeting](kvStore, "meeting"),
	}
}

func (s *NatsMeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	return s.Create(ctx, meeting.UID, meeting)
}

func (s *NatsMeetingRepository) MeetingExists(ctx context.Context, meetingUID string) (bool, error) {
	return s.Exists(ctx, meetingUID)
}

func (s *NatsMeetingRepository) GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	return s.Get(ctx, meetingUID)
}

func (s *NatsMeetingRepository) GetMeetingWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error) {
	return s.GetWithRevision(ctx, meetingUID)
}

func (s *NatsMeetingRepository) UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	return s.Update(ctx, meeting.UID, meeting, revision)
}
