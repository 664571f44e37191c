// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
	"github.com/meetassist/meeting-lifecycle-service/internal/observability/metrics"
	"github.com/meetassist/meeting-lifecycle-service/pkg/concurrent"
)

// Pipeline step names. Each completed step's result is checkpointed
// under "<meetingUID>.<step>" so a redelivered job skips finished work.
const (
	StepWaitTranscriptURL = "wait-transcript-url"
	StepFetchTranscript   = "fetch-transcript"
	StepParseTranscript   = "parse-transcript"
	StepResolveSpeakers   = "resolve-speakers"
	StepGenerateSummary   = "generate-summary"
)

// failedSummaryPrefix starts the summary of a meeting whose pipeline hit
// a terminal error, so the meeting still completes instead of sticking
// in processing.
const failedSummaryPrefix = "Processing failed: "

// PipelineConfig holds the tunable retry knobs of the pipeline. The
// schedules are not load-bearing; they only bound how long the pipeline
// waits on a slow provider.
type PipelineConfig struct {
	// URLPollAttempts bounds polling for the transcript URL when the job
	// was enqueued without one. The delay before retry N is N*URLPollDelay.
	URLPollAttempts int
	URLPollDelay    time.Duration
	// FetchAttempts bounds downloading the transcript artifact. The delay
	// before retry N is N*FetchDelay.
	FetchAttempts int
	FetchDelay    time.Duration
	// EmptyRetries bounds the re-fetch rounds when parsing yields an empty
	// transcript, on the theory that the artifact is still propagating.
	EmptyRetries int
	// SpeakerWorkers bounds concurrent speaker resolution.
	SpeakerWorkers int
}

func (c *PipelineConfig) applyDefaults() {
	if c.URLPollAttempts == 0 {
		c.URLPollAttempts = 6
	}
	if c.URLPollDelay == 0 {
		c.URLPollDelay = 15 * time.Second
	}
	if c.FetchAttempts == 0 {
		c.FetchAttempts = 3
	}
	if c.FetchDelay == 0 {
		c.FetchDelay = 5 * time.Second
	}
	if c.EmptyRetries == 0 {
		c.EmptyRetries = 2
	}
	if c.SpeakerWorkers == 0 {
		c.SpeakerWorkers = 4
	}
}

// PipelineService turns a meeting that left the active state into a
// persisted summary, guaranteeing the meeting always exits processing.
type PipelineService struct {
	meetingRepo domain.MeetingRepository
	agentRepo   domain.AgentRepository
	userRepo    domain.UserRepository
	checkpoints domain.CheckpointStore
	fetcher     domain.TranscriptFetcher
	summarizer  *Summarizer
	pool        *concurrent.WorkerPool
	config      PipelineConfig
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(
	meetingRepo domain.MeetingRepository,
	agentRepo domain.AgentRepository,
	userRepo domain.UserRepository,
	checkpoints domain.CheckpointStore,
	fetcher domain.TranscriptFetcher,
	summarizer *Summarizer,
	config PipelineConfig,
) *PipelineService {
	config.applyDefaults()
	return &PipelineService{
		meetingRepo: meetingRepo,
		agentRepo:   agentRepo,
		userRepo:    userRepo,
		checkpoints: checkpoints,
		fetcher:     fetcher,
		summarizer:  summarizer,
		pool:        concurrent.NewWorkerPool(config.SpeakerWorkers),
		config:      config,
	}
}

// ServiceReady checks if the service is ready to process jobs.
func (s *PipelineService) ServiceReady() bool {
	return s.meetingRepo != nil &&
		s.checkpoints != nil &&
		s.fetcher != nil &&
		s.summarizer != nil
}

// runStep executes one pipeline step with checkpointing: a stored result
// short-circuits the step, a fresh result is stored before returning.
// Checkpoint store failures degrade to re-running the step.
func runStep[T any](ctx context.Context, checkpoints domain.CheckpointStore, meetingUID, step string, fn func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := checkpoints.GetCheckpoint(ctx, meetingUID, step, &cached)
	if err != nil {
		slog.WarnContext(ctx, "failed to read step checkpoint, re-running step",
			logging.ErrKey, err, "step", step)
	} else if found {
		slog.DebugContext(ctx, "resuming from step checkpoint", "step", step)
		return cached, nil
	}

	result, err := fn(ctx)
	if err != nil {
		return result, err
	}

	if err := checkpoints.PutCheckpoint(ctx, meetingUID, step, result); err != nil {
		slog.WarnContext(ctx, "failed to store step checkpoint",
			logging.ErrKey, err, "step", step)
	}

	return result, nil
}

// sleepBackoff waits for the given delay or until the context ends.
func sleepBackoff(ctx context.Context, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// ProcessMeeting runs the pipeline for one processing job. Whatever
// happens, the meeting exits processing: an escaped error still writes a
// failure summary and completes the meeting before being returned for
// observability.
func (s *PipelineService) ProcessMeeting(ctx context.Context, msg models.MeetingProcessingMessage) error {
	if msg.MeetingUID == "" {
		return domain.NewValidationError("processing message is missing the meeting identifier")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", msg.MeetingUID))
	if msg.JobUID != "" {
		ctx = logging.AppendCtx(ctx, slog.String("job_uid", msg.JobUID))
	}

	meeting, err := s.meetingRepo.GetMeeting(ctx, msg.MeetingUID)
	if err != nil {
		return err
	}
	if meeting.Status.IsTerminal() {
		// Duplicate enqueue after completion, or a cancelled meeting.
		slog.DebugContext(ctx, "skipping processing job, meeting is terminal",
			"status", meeting.Status)
		return nil
	}

	slog.InfoContext(ctx, "processing meeting transcript")

	if err := s.run(ctx, meeting, msg.TranscriptURL); err != nil {
		return s.completeWithFailure(ctx, meeting.UID, err)
	}

	if err := s.checkpoints.ClearCheckpoints(ctx, meeting.UID); err != nil {
		slog.WarnContext(ctx, "failed to clear pipeline checkpoints", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "meeting processing completed")
	return nil
}

// run executes the checkpointed steps in order.
func (s *PipelineService) run(ctx context.Context, meeting *models.Meeting, enqueuedURL string) error {
	transcriptURL, err := runStep(ctx, s.checkpoints, meeting.UID, StepWaitTranscriptURL, func(ctx context.Context) (string, error) {
		return s.waitTranscriptURL(ctx, meeting.UID, enqueuedURL)
	})
	if err != nil {
		return err
	}

	raw, err := runStep(ctx, s.checkpoints, meeting.UID, StepFetchTranscript, func(ctx context.Context) ([]byte, error) {
		return s.fetchTranscript(ctx, transcriptURL)
	})
	if err != nil {
		return err
	}

	items, err := runStep(ctx, s.checkpoints, meeting.UID, StepParseTranscript, func(ctx context.Context) ([]models.TranscriptItem, error) {
		return s.parseWithRecovery(ctx, meeting.UID, raw)
	})
	if err != nil {
		return err
	}

	enriched, err := runStep(ctx, s.checkpoints, meeting.UID, StepResolveSpeakers, func(ctx context.Context) ([]models.TranscriptItem, error) {
		return s.resolveSpeakers(ctx, items), nil
	})
	if err != nil {
		return err
	}

	summary, err := runStep(ctx, s.checkpoints, meeting.UID, StepGenerateSummary, func(ctx context.Context) (string, error) {
		return s.summarizer.Summarize(ctx, meeting, enriched), nil
	})
	if err != nil {
		return err
	}

	return s.writeSummary(ctx, meeting.UID, summary)
}

// waitTranscriptURL resolves the transcript URL: the enqueued one wins,
// otherwise the meeting record is polled with increasing delays. An
// empty result means continuing with the empty-transcript fallback.
func (s *PipelineService) waitTranscriptURL(ctx context.Context, meetingUID, enqueuedURL string) (string, error) {
	if enqueuedURL != "" {
		return enqueuedURL, nil
	}

	for attempt := 1; attempt <= s.config.URLPollAttempts; attempt++ {
		meeting, err := s.meetingRepo.GetMeeting(ctx, meetingUID)
		if err != nil {
			return "", err
		}
		if meeting.TranscriptURL != "" {
			return meeting.TranscriptURL, nil
		}
		if attempt == s.config.URLPollAttempts {
			break
		}

		delay := time.Duration(attempt) * s.config.URLPollDelay
		slog.DebugContext(ctx, "transcript URL not available yet, waiting",
			"attempt", attempt, "delay", delay.String())
		if err := sleepBackoff(ctx, delay); err != nil {
			return "", err
		}
	}

	slog.WarnContext(ctx, "transcript URL never became available, continuing without transcript")
	return "", nil
}

// fetchTranscript downloads the artifact with bounded retry. Exhausted
// retries continue with an empty body rather than failing the job.
func (s *PipelineService) fetchTranscript(ctx context.Context, transcriptURL string) ([]byte, error) {
	if transcriptURL == "" {
		return nil, nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.config.FetchAttempts; attempt++ {
		body, err := s.fetcher.FetchTranscript(ctx, transcriptURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == s.config.FetchAttempts {
			break
		}
		delay := time.Duration(attempt) * s.config.FetchDelay
		slog.WarnContext(ctx, "transcript download failed, retrying",
			logging.ErrKey, err, "attempt", attempt, "delay", delay.String())
		if err := sleepBackoff(ctx, delay); err != nil {
			return nil, err
		}
	}

	slog.ErrorContext(ctx, "transcript download failed after all retries, continuing with empty transcript",
		logging.ErrKey, lastErr)
	return nil, nil
}

// parseWithRecovery parses the body and, when the result is empty, runs
// bounded re-fetch rounds in case the artifact was still propagating.
// A parse failure counts as an empty transcript, never as a job failure.
func (s *PipelineService) parseWithRecovery(ctx context.Context, meetingUID string, raw []byte) ([]models.TranscriptItem, error) {
	items := models.ParseTranscriptJSONL(bytes.NewReader(raw))
	if len(items) > 0 {
		return items, nil
	}

	for round := 1; round <= s.config.EmptyRetries; round++ {
		delay := time.Duration(round) * s.config.FetchDelay
		slog.DebugContext(ctx, "transcript empty, retrying fetch",
			"round", round, "delay", delay.String())
		if err := sleepBackoff(ctx, delay); err != nil {
			return nil, err
		}

		meeting, err := s.meetingRepo.GetMeeting(ctx, meetingUID)
		if err != nil {
			return nil, err
		}
		if meeting.TranscriptURL == "" {
			continue
		}

		body, err := s.fetcher.FetchTranscript(ctx, meeting.TranscriptURL)
		if err != nil {
			slog.WarnContext(ctx, "transcript re-fetch failed", logging.ErrKey, err, "round", round)
			continue
		}
		items = models.ParseTranscriptJSONL(bytes.NewReader(body))
		if len(items) > 0 {
			return items, nil
		}
	}

	slog.WarnContext(ctx, "transcript is empty after recovery retries")
	return items, nil
}

// resolveSpeakers annotates every transcript item with a display name,
// resolving each distinct speaker concurrently against the user and
// agent collections. Unresolved speakers become "Unknown".
func (s *PipelineService) resolveSpeakers(ctx context.Context, items []models.TranscriptItem) []models.TranscriptItem {
	if len(items) == 0 {
		return items
	}

	distinct := make(map[string]struct{})
	for _, item := range items {
		distinct[item.SpeakerID] = struct{}{}
	}

	var mu sync.Mutex
	names := make(map[string]string, len(distinct))

	var lookups []func() error
	for speakerID := range distinct {
		lookups = append(lookups, func() error {
			name := s.lookupSpeakerName(ctx, speakerID)
			mu.Lock()
			names[speakerID] = name
			mu.Unlock()
			return nil
		})
	}
	// Lookup failures already degraded to "Unknown"; nothing to collect.
	_ = s.pool.RunAll(ctx, lookups...)

	resolved := make([]models.TranscriptItem, len(items))
	for i, item := range items {
		item.SpeakerName = names[item.SpeakerID]
		if item.SpeakerName == "" {
			item.SpeakerName = "Unknown"
		}
		resolved[i] = item
	}
	return resolved
}

func (s *PipelineService) lookupSpeakerName(ctx context.Context, speakerID string) string {
	if user, err := s.userRepo.GetUser(ctx, speakerID); err == nil {
		return user.Name
	}
	if agent, err := s.agentRepo.GetAgent(ctx, speakerID); err == nil {
		return agent.Name
	}
	return "Unknown"
}

// completeWithFailure makes sure an escaped error still ends processing:
// the summary records the failure and the meeting completes. The
// original error is returned so the consumer can log and count it.
func (s *PipelineService) completeWithFailure(ctx context.Context, meetingUID string, cause error) error {
	slog.ErrorContext(ctx, "pipeline failed, completing meeting with failure summary",
		logging.ErrKey, cause, logging.PriorityCritical())

	if err := s.writeSummary(ctx, meetingUID, failedSummaryPrefix+cause.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to write failure summary",
			logging.ErrKey, err, logging.PriorityCritical())
	}

	return cause
}

// writeSummary persists the summary and forces status to completed for
// any non-cancelled meeting, retrying through revision conflicts.
func (s *PipelineService) writeSummary(ctx context.Context, meetingUID, summary string) error {
	var lastErr error
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		meeting, revision, err := s.meetingRepo.GetMeetingWithRevision(ctx, meetingUID)
		if err != nil {
			return err
		}
		if meeting.Status == models.MeetingStatusCancelled {
			slog.WarnContext(ctx, "not writing summary, meeting was cancelled")
			return nil
		}

		meeting.Summary = summary
		meeting.Status = models.MeetingStatusCompleted

		err = s.meetingRepo.UpdateMeeting(ctx, meeting, revision)
		if err == nil {
			metrics.DefaultMetrics.TransitionsTotal.WithLabelValues(string(models.MeetingStatusCompleted)).Inc()
			return nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return err
		}
		lastErr = err
	}

	return domain.NewConflictError(
		fmt.Sprintf("meeting %s kept changing while saving summary", meetingUID), lastErr)
}

// RegenerateSummary re-runs fetch, parse, enrichment and summarization
// once for a completed meeting with a stored transcript URL, overwriting
// the previous summary. No polling and no bounded-retry fetch: a failure
// surfaces directly to the caller.
func (s *PipelineService) RegenerateSummary(ctx context.Context, meetingUID string) error {
	if meetingUID == "" {
		return domain.NewValidationError("meetingId is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	meeting, err := s.meetingRepo.GetMeeting(ctx, meetingUID)
	if err != nil {
		return err
	}
	if meeting.Status != models.MeetingStatusCompleted {
		return domain.NewValidationError(
			fmt.Sprintf("meeting is %s, only completed meetings can be regenerated", meeting.Status))
	}
	if meeting.TranscriptURL == "" {
		return domain.NewValidationError("meeting has no transcript to regenerate from")
	}

	// Stale checkpoints from the original run must not short-circuit the
	// regeneration.
	if err := s.checkpoints.ClearCheckpoints(ctx, meetingUID); err != nil {
		slog.WarnContext(ctx, "failed to clear pipeline checkpoints before regeneration",
			logging.ErrKey, err)
	}

	body, err := s.fetcher.FetchTranscript(ctx, meeting.TranscriptURL)
	if err != nil {
		return err
	}

	items := models.ParseTranscriptJSONL(bytes.NewReader(body))
	enriched := s.resolveSpeakers(ctx, items)
	summary := s.summarizer.Summarize(ctx, meeting, enriched)

	if err := s.writeSummary(ctx, meetingUID, summary); err != nil {
		return err
	}

	slog.InfoContext(ctx, "meeting summary regenerated")
	return nil
}
