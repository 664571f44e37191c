// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
	"github.com/meetassist/meeting-lifecycle-service/internal/observability/metrics"
	"github.com/meetassist/meeting-lifecycle-service/pkg/utils"
)

// maxTransitionAttempts bounds the re-read loop when a conditional
// update loses a revision race against a concurrent delivery.
const maxTransitionAttempts = 3

// chatContextMessageLimit is how many recent channel messages are sent
// to the LLM as conversation context.
const chatContextMessageLimit = 5

// LifecycleService translates authenticated provider events into
// idempotent meeting state transitions.
type LifecycleService struct {
	meetingRepo      domain.MeetingRepository
	agentRepo        domain.AgentRepository
	webhookValidator domain.WebhookValidator
	videoProvider    domain.VideoProvider
	chatProvider     domain.ChatProvider
	completionClient domain.CompletionClient
	messageSender    domain.ProcessingMessageSender
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	meetingRepo domain.MeetingRepository,
	agentRepo domain.AgentRepository,
	webhookValidator domain.WebhookValidator,
	videoProvider domain.VideoProvider,
	chatProvider domain.ChatProvider,
	completionClient domain.CompletionClient,
	messageSender domain.ProcessingMessageSender,
) *LifecycleService {
	return &LifecycleService{
		meetingRepo:      meetingRepo,
		agentRepo:        agentRepo,
		webhookValidator: webhookValidator,
		videoProvider:    videoProvider,
		chatProvider:     chatProvider,
		completionClient: completionClient,
		messageSender:    messageSender,
	}
}

// ServiceReady checks if the service is ready to handle events.
func (s *LifecycleService) ServiceReady() bool {
	return s.meetingRepo != nil &&
		s.agentRepo != nil &&
		s.webhookValidator != nil &&
		s.messageSender != nil
}

// HandleWebhookEvent validates the signature over the raw body, decodes
// the event and dispatches it. Signature and format failures occur
// before any side effect. The decoded event kind is returned for
// observability even when handling fails.
func (s *LifecycleService) HandleWebhookEvent(ctx context.Context, body []byte, signature string) (models.EventKind, error) {
	if !s.ServiceReady() {
		return models.EventUnknown, domain.NewUnavailableError("lifecycle service is not ready")
	}

	if err := s.webhookValidator.ValidateSignature(body, signature); err != nil {
		return models.EventUnknown, err
	}

	event, err := models.ParseEvent(body)
	if err != nil {
		return models.EventUnknown, domain.NewValidationError("malformed webhook payload", err)
	}

	kind := event.Kind()
	ctx = logging.AppendCtx(ctx, slog.String("event_kind", string(kind)))

	switch ev := event.(type) {
	case models.SessionStartedEvent:
		return kind, s.handleSessionStarted(ctx, ev)
	case models.ParticipantLeftEvent:
		return kind, s.handleParticipantLeft(ctx, ev)
	case models.SessionEndedEvent:
		return kind, s.handleSessionEnded(ctx, ev)
	case models.TranscriptReadyEvent:
		return kind, s.handleTranscriptReady(ctx, ev)
	case models.RecordingReadyEvent:
		return kind, s.handleRecordingReady(ctx, ev)
	case models.ChatMessageEvent:
		return kind, s.handleChatMessage(ctx, ev)
	case models.UnknownEvent:
		slog.DebugContext(ctx, "ignoring unhandled webhook event", "raw_type", ev.RawType)
		return kind, nil
	default:
		return kind, nil
	}
}

// updateMeetingConditional runs a bounded read-mutate-update loop against
// the store's optimistic concurrency. mutate reports whether the meeting
// changed; returning false makes the whole call a no-op. A revision
// conflict re-reads and re-checks so a duplicate delivery resolves to a
// silent no-op instead of a lost update.
func (s *LifecycleService) updateMeetingConditional(
	ctx context.Context,
	meetingUID string,
	mutate func(meeting *models.Meeting) bool,
) (*models.Meeting, bool, error) {
	var lastErr error
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		meeting, revision, err := s.meetingRepo.GetMeetingWithRevision(ctx, meetingUID)
		if err != nil {
			return nil, false, err
		}

		if !mutate(meeting) {
			return meeting, false, nil
		}

		err = s.meetingRepo.UpdateMeeting(ctx, meeting, revision)
		if err == nil {
			return meeting, true, nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return nil, false, err
		}
		lastErr = err
	}

	return nil, false, domain.NewConflictError(
		fmt.Sprintf("meeting %s kept changing during update", meetingUID), lastErr)
}

func (s *LifecycleService) handleSessionStarted(ctx context.Context, ev models.SessionStartedEvent) error {
	if ev.MeetingUID == "" {
		return domain.NewValidationError("event is missing the meeting identifier")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", ev.MeetingUID))

	meeting, changed, err := s.updateMeetingConditional(ctx, ev.MeetingUID, func(m *models.Meeting) bool {
		if m.Status != models.MeetingStatusUpcoming {
			return false
		}
		m.Status = models.MeetingStatusActive
		m.StartedAt = utils.Ptr(time.Now().UTC())
		return true
	})
	if err != nil {
		return err
	}
	if !changed {
		slog.DebugContext(ctx, "session started ignored, meeting is not upcoming",
			"status", meeting.Status)
		return nil
	}

	slog.InfoContext(ctx, "meeting is now active")
	metrics.DefaultMetrics.TransitionsTotal.WithLabelValues(string(models.MeetingStatusActive)).Inc()

	if meeting.AgentUID == "" {
		return nil
	}
	if s.completionClient == nil || !s.completionClient.Configured() {
		slog.WarnContext(ctx, "LLM not configured, skipping agent connection",
			"agent_uid", meeting.AgentUID)
		return nil
	}

	// Agent connection is best effort: the meeting stays active even when
	// the provider call fails, and the client can retry via connect-agent.
	agent, err := s.agentRepo.GetAgent(ctx, meeting.AgentUID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load agent for session start",
			logging.ErrKey, err, "agent_uid", meeting.AgentUID)
		return nil
	}
	if err := s.videoProvider.ConnectAgent(ctx, meeting.UID, agent.UID); err != nil {
		slog.ErrorContext(ctx, "failed to connect agent on session start",
			logging.ErrKey, err, "agent_uid", agent.UID)
		return nil
	}
	if err := s.videoProvider.UpdateSessionInstructions(ctx, meeting.UID, agent.UID, agent.Instructions); err != nil {
		slog.ErrorContext(ctx, "failed to push agent instructions on session start",
			logging.ErrKey, err, "agent_uid", agent.UID)
	}

	return nil
}

func (s *LifecycleService) handleParticipantLeft(ctx context.Context, ev models.ParticipantLeftEvent) error {
	if ev.MeetingUID == "" {
		return domain.NewValidationError("event is missing the meeting identifier")
	}

	// Ending is driven only by session-ended; a departing participant
	// changes nothing beyond confirming the meeting exists.
	exists, err := s.meetingRepo.MeetingExists(ctx, ev.MeetingUID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewNotFoundError(fmt.Sprintf("meeting %s not found", ev.MeetingUID))
	}

	slog.DebugContext(ctx, "participant left acknowledged", "meeting_uid", ev.MeetingUID)
	return nil
}

func (s *LifecycleService) handleSessionEnded(ctx context.Context, ev models.SessionEndedEvent) error {
	if ev.MeetingUID == "" {
		return domain.NewValidationError("event is missing the meeting identifier")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", ev.MeetingUID))

	meeting, changed, err := s.updateMeetingConditional(ctx, ev.MeetingUID, func(m *models.Meeting) bool {
		if m.Status != models.MeetingStatusActive {
			return false
		}
		m.Status = models.MeetingStatusProcessing
		m.EndedAt = utils.Ptr(time.Now().UTC())
		return true
	})
	if err != nil {
		return err
	}
	if !changed {
		slog.DebugContext(ctx, "session ended ignored, meeting is not active",
			"status", meeting.Status)
		return nil
	}

	slog.InfoContext(ctx, "meeting is now processing")
	metrics.DefaultMetrics.TransitionsTotal.WithLabelValues(string(models.MeetingStatusProcessing)).Inc()

	// Post-meeting Q&A channel. Failures are logged, not surfaced: the
	// channel is recreated lazily by the chat-message path when missing.
	if err := s.chatProvider.EnsureChannel(ctx, meeting.UID, []string{meeting.UserUID}); err != nil {
		slog.ErrorContext(ctx, "failed to ensure chat channel", logging.ErrKey, err)
	}

	s.enqueueProcessing(ctx, meeting)
	return nil
}

// enqueueProcessing publishes a processing job for the meeting. Enqueue
// failure is logged rather than surfaced: the transcript-ready event and
// the mark-ended fallback both re-enqueue, and the pipeline tolerates
// duplicates.
func (s *LifecycleService) enqueueProcessing(ctx context.Context, meeting *models.Meeting) {
	err := s.messageSender.SendMeetingProcessing(ctx, models.MeetingProcessingMessage{
		MeetingUID:    meeting.UID,
		TranscriptURL: meeting.TranscriptURL,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to enqueue processing job",
			logging.ErrKey, err, "meeting_uid", meeting.UID)
	}
}

func (s *LifecycleService) handleTranscriptReady(ctx context.Context, ev models.TranscriptReadyEvent) error {
	if ev.MeetingUID == "" {
		return domain.NewValidationError("event is missing the meeting identifier")
	}
	if ev.TranscriptURL == "" {
		return domain.NewValidationError("transcript ready event is missing the URL")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", ev.MeetingUID))

	meeting, _, err := s.updateMeetingConditional(ctx, ev.MeetingUID, func(m *models.Meeting) bool {
		// The URL is set exactly once and never cleared.
		if m.TranscriptURL != "" {
			return false
		}
		m.TranscriptURL = ev.TranscriptURL
		return true
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "transcript is ready", "transcript_url", meeting.TranscriptURL)

	// Re-enqueue on redelivery too; the pipeline resumes from checkpoints.
	s.enqueueProcessing(ctx, meeting)
	return nil
}

func (s *LifecycleService) handleRecordingReady(ctx context.Context, ev models.RecordingReadyEvent) error {
	if ev.MeetingUID == "" {
		return domain.NewValidationError("event is missing the meeting identifier")
	}
	if ev.RecordingURL == "" {
		return domain.NewValidationError("recording ready event is missing the URL")
	}

	_, _, err := s.updateMeetingConditional(ctx, ev.MeetingUID, func(m *models.Meeting) bool {
		if m.RecordingURL != "" {
			return false
		}
		m.RecordingURL = ev.RecordingURL
		return true
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "recording is ready", "meeting_uid", ev.MeetingUID)
	return nil
}

func (s *LifecycleService) handleChatMessage(ctx context.Context, ev models.ChatMessageEvent) error {
	if ev.MeetingUID == "" || ev.SenderUID == "" {
		return domain.NewValidationError("chat message event is missing identifiers")
	}
	if strings.TrimSpace(ev.Text) == "" {
		return domain.NewValidationError("chat message event is missing the text")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", ev.MeetingUID))

	meeting, err := s.meetingRepo.GetMeeting(ctx, ev.MeetingUID)
	if err != nil {
		return err
	}
	if meeting.Status != models.MeetingStatusCompleted {
		return domain.NewNotFoundError(
			fmt.Sprintf("meeting %s is not completed", ev.MeetingUID))
	}
	if meeting.AgentUID == "" {
		return domain.NewNotFoundError(
			fmt.Sprintf("meeting %s has no agent", ev.MeetingUID))
	}

	// The agent replying to its own messages would loop forever.
	if ev.SenderUID == meeting.AgentUID {
		slog.DebugContext(ctx, "ignoring chat message from the agent itself")
		return nil
	}

	agent, err := s.agentRepo.GetAgent(ctx, meeting.AgentUID)
	if err != nil {
		return err
	}

	if err := s.chatProvider.UpsertUser(ctx, models.User{UID: agent.UID, Name: agent.Name}, utils.AvatarURL(agent.Name)); err != nil {
		slog.WarnContext(ctx, "failed to upsert agent chat identity", logging.ErrKey, err)
	}

	reply, err := s.completionClient.Complete(ctx,
		chatSystemPrompt(meeting.Summary, agent.Instructions),
		s.chatContext(ctx, ev, meeting.AgentUID),
	)
	if err != nil {
		return err
	}

	if err := s.chatProvider.SendMessage(ctx, meeting.UID, agent.UID, reply); err != nil {
		return err
	}

	slog.InfoContext(ctx, "agent replied on the meeting channel", "agent_uid", agent.UID)
	return nil
}

// chatContext builds the conversation context for a reply: the last few
// non-empty channel messages with roles assigned by sender, ending with
// the message that triggered the reply.
func (s *LifecycleService) chatContext(ctx context.Context, ev models.ChatMessageEvent, agentUID string) []models.ChatMessage {
	recent, err := s.chatProvider.RecentMessages(ctx, ev.MeetingUID, chatContextMessageLimit)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch channel history, replying to the message alone",
			logging.ErrKey, err)
		return []models.ChatMessage{{Role: models.ChatRoleUser, SenderUID: ev.SenderUID, Text: ev.Text}}
	}

	for i := range recent {
		if recent[i].SenderUID == agentUID {
			recent[i].Role = models.ChatRoleAssistant
		} else {
			recent[i].Role = models.ChatRoleUser
		}
	}

	if len(recent) == 0 || recent[len(recent)-1].Text != ev.Text {
		recent = append(recent, models.ChatMessage{
			Role:      models.ChatRoleUser,
			SenderUID: ev.SenderUID,
			Text:      ev.Text,
		})
	}

	return recent
}

// chatSystemPrompt steers post-meeting Q&A replies with the stored
// summary plus the agent's original live-meeting instructions.
func chatSystemPrompt(summary, instructions string) string {
	return fmt.Sprintf(`You are an AI assistant helping the user revisit a recently completed meeting.
Below is a summary of the meeting, generated from the transcript:

%s

The following are your original instructions from the live meeting assistant. Please continue to follow these behavioral guidelines as you assist the user:

%s

The user may ask questions about the meeting, request clarifications, or ask for follow-up actions.
Always base your responses on the meeting summary above.
If the summary does not contain enough information to answer a question, politely let the user know.
Be concise, helpful, and focus on providing accurate information from the meeting and the ongoing conversation.`, summary, instructions)
}

// MarkEnded is the best-effort fallback for a delayed or lost
// session-ended event: it forces the meeting into processing and
// enqueues the job. It is safe to race with the authoritative webhook.
func (s *LifecycleService) MarkEnded(ctx context.Context, meetingUID string) error {
	if meetingUID == "" {
		return domain.NewValidationError("meetingId is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	meeting, changed, err := s.updateMeetingConditional(ctx, meetingUID, func(m *models.Meeting) bool {
		if m.Status == models.MeetingStatusProcessing || m.Status.IsTerminal() {
			return false
		}
		m.Status = models.MeetingStatusProcessing
		if m.EndedAt == nil {
			m.EndedAt = utils.Ptr(time.Now().UTC())
		}
		return true
	})
	if err != nil {
		return err
	}

	if meeting.Status.IsTerminal() {
		slog.DebugContext(ctx, "mark-ended ignored, meeting already terminal",
			"status", meeting.Status)
		return nil
	}

	if changed {
		slog.InfoContext(ctx, "meeting marked as processing via end-of-call fallback")
		metrics.DefaultMetrics.TransitionsTotal.WithLabelValues(string(models.MeetingStatusProcessing)).Inc()
	}

	// Enqueue even when the webhook already moved the meeting to
	// processing; a duplicate job resumes from checkpoints.
	s.enqueueProcessing(ctx, meeting)
	return nil
}
