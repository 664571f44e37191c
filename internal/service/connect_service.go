// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
	"github.com/meetassist/meeting-lifecycle-service/internal/observability/metrics"
	"github.com/meetassist/meeting-lifecycle-service/pkg/concurrent"
	"github.com/meetassist/meeting-lifecycle-service/pkg/utils"
)

// ConnectLockTTL is how long a connect attempt holds the per-meeting
// lock before a concurrent attempt may take over.
const ConnectLockTTL = 15 * time.Second

// ConnectResult is the outcome of an on-demand connect request.
type ConnectResult struct {
	// InProgress is set when another connect attempt holds the lock.
	InProgress bool
	// AlreadyConnected is set when the same agent was already assigned.
	AlreadyConnected bool
}

// ConnectService brokers on-demand agent-to-call connections, guarded by
// a keyed TTL lock against duplicate concurrent attempts.
type ConnectService struct {
	meetingRepo      domain.MeetingRepository
	agentRepo        domain.AgentRepository
	videoProvider    domain.VideoProvider
	completionClient domain.CompletionClient
	locks            *concurrent.KeyedTTLLock
}

// NewConnectService creates a new ConnectService.
func NewConnectService(
	meetingRepo domain.MeetingRepository,
	agentRepo domain.AgentRepository,
	videoProvider domain.VideoProvider,
	completionClient domain.CompletionClient,
	locks *concurrent.KeyedTTLLock,
) *ConnectService {
	return &ConnectService{
		meetingRepo:      meetingRepo,
		agentRepo:        agentRepo,
		videoProvider:    videoProvider,
		completionClient: completionClient,
		locks:            locks,
	}
}

// Connect establishes the agent's presence in the meeting's live call.
// The per-meeting lock is released on every path, provider failures and
// caller cancellation included.
func (s *ConnectService) Connect(ctx context.Context, meetingUID, agentUID string) (*ConnectResult, error) {
	if meetingUID == "" {
		return nil, domain.NewValidationError("meetingId is required")
	}
	if agentUID == "" {
		return nil, domain.NewValidationError("agentId is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	if !s.locks.TryAcquire(meetingUID) {
		slog.DebugContext(ctx, "connect already in progress")
		return &ConnectResult{InProgress: true}, nil
	}
	defer s.locks.Release(meetingUID)

	meeting, revision, err := s.meetingRepo.GetMeetingWithRevision(ctx, meetingUID)
	if err != nil {
		return nil, err
	}
	if meeting.Status.IsTerminal() {
		return nil, domain.NewValidationError(
			fmt.Sprintf("meeting is %s and cannot be joined", meeting.Status))
	}

	if meeting.AgentUID != "" && meeting.AgentUID != agentUID {
		return nil, domain.NewConflictError(
			fmt.Sprintf("meeting already has agent %s assigned", meeting.AgentUID))
	}
	if meeting.AgentUID == agentUID {
		slog.DebugContext(ctx, "agent already connected", "agent_uid", agentUID)
		return &ConnectResult{AlreadyConnected: true}, nil
	}

	agent, err := s.agentRepo.GetAgent(ctx, agentUID)
	if err != nil {
		return nil, err
	}
	if s.completionClient == nil || !s.completionClient.Configured() {
		return nil, domain.NewConfigurationError("LLM API key not configured, cannot connect agent")
	}

	// First connect on an upcoming meeting starts it. The status write is
	// persisted before any provider call so a provider failure cannot
	// leave a started meeting recorded as upcoming.
	if meeting.Status == models.MeetingStatusUpcoming {
		meeting, revision, err = s.promoteToActive(ctx, meeting, revision)
		if err != nil {
			return nil, err
		}
		if meeting.AgentUID == agentUID {
			slog.DebugContext(ctx, "agent already connected", "agent_uid", agentUID)
			return &ConnectResult{AlreadyConnected: true}, nil
		}
		if meeting.AgentUID != "" {
			return nil, domain.NewConflictError(
				fmt.Sprintf("meeting already has agent %s assigned", meeting.AgentUID))
		}
	}

	if err := s.ensureCall(ctx, meeting); err != nil {
		return nil, err
	}
	if err := s.videoProvider.UpsertUser(ctx, models.User{UID: agent.UID, Name: agent.Name}); err != nil {
		slog.WarnContext(ctx, "failed to upsert agent video identity", logging.ErrKey, err)
	}
	if err := s.videoProvider.ConnectAgent(ctx, meeting.UID, agent.UID); err != nil {
		return nil, err
	}
	if err := s.videoProvider.UpdateSessionInstructions(ctx, meeting.UID, agent.UID, agent.Instructions); err != nil {
		return nil, err
	}

	meeting.AgentUID = agent.UID
	if err := s.meetingRepo.UpdateMeeting(ctx, meeting, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "agent connected to meeting", "agent_uid", agent.UID)
	return &ConnectResult{}, nil
}

// promoteToActive persists the upcoming-to-active transition as its own
// conditional write and returns the meeting at its fresh revision. A
// revision conflict means a racing session-started webhook promoted the
// meeting first; the re-read result is used as long as it is still live.
func (s *ConnectService) promoteToActive(ctx context.Context, meeting *models.Meeting, revision uint64) (*models.Meeting, uint64, error) {
	meeting.Status = models.MeetingStatusActive
	meeting.StartedAt = utils.Ptr(time.Now().UTC())

	err := s.meetingRepo.UpdateMeeting(ctx, meeting, revision)
	switch {
	case err == nil:
		metrics.DefaultMetrics.TransitionsTotal.WithLabelValues(string(models.MeetingStatusActive)).Inc()
		slog.InfoContext(ctx, "meeting is now active")
	case domain.GetErrorType(err) == domain.ErrorTypeConflict:
		slog.DebugContext(ctx, "meeting was promoted concurrently")
	default:
		return nil, 0, err
	}

	fresh, rev, err := s.meetingRepo.GetMeetingWithRevision(ctx, meeting.UID)
	if err != nil {
		return nil, 0, err
	}
	if fresh.Status.IsTerminal() {
		return nil, 0, domain.NewValidationError(
			fmt.Sprintf("meeting is %s and cannot be joined", fresh.Status))
	}
	return fresh, rev, nil
}

// ensureCall creates the provider call when it does not exist yet, so a
// connect issued before anyone joined still succeeds.
func (s *ConnectService) ensureCall(ctx context.Context, meeting *models.Meeting) error {
	exists, err := s.videoProvider.CallExists(ctx, meeting.UID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	slog.InfoContext(ctx, "call does not exist yet, creating it")
	return s.videoProvider.CreateCall(ctx, meeting.UID, meeting.UserUID)
}
