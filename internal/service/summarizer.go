// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package service contains the business logic of the meeting lifecycle service.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
)

// summarySystemPrompt fixes the structure of generated summaries so the
// output renders consistently in the meeting review UI.
const summarySystemPrompt = `You are an expert summarizer. You write readable, concise, simple content. You are given a transcript of a meeting and you need to summarize it.

Use the following markdown structure for every output:

### Overview
Provide a detailed, engaging summary of the session's content. Focus on major features, workflows, and takeaways. Write in a narrative style using full sentences. Highlight unique or powerful aspects of the discussion.

### Notes
Break down key content into thematic sections with timestamp ranges. Each section should summarize key points, actions, or demos in bullet format.`

// Summarizer produces meeting summaries, preferring the LLM and falling
// back to deterministic local aggregation on any failure.
type Summarizer struct {
	completionClient domain.CompletionClient
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer(completionClient domain.CompletionClient) *Summarizer {
	return &Summarizer{
		completionClient: completionClient,
	}
}

// Summarize returns a summary for the transcript. It never fails: when
// the LLM is unavailable, misconfigured, or errors, the deterministic
// fallback is returned instead.
func (s *Summarizer) Summarize(ctx context.Context, meeting *models.Meeting, items []models.TranscriptItem) string {
	if s.completionClient == nil || !s.completionClient.Configured() {
		slog.WarnContext(ctx, "LLM not configured, using fallback summary",
			"meeting_uid", meeting.UID)
		return FallbackSummary(meeting, items)
	}

	if len(items) == 0 {
		// Nothing for the model to work with.
		return FallbackSummary(meeting, items)
	}

	summary, err := s.completionClient.Complete(ctx, summarySystemPrompt, []models.ChatMessage{
		{Role: models.ChatRoleUser, Text: formatTranscriptForPrompt(items)},
	})
	if err != nil {
		slog.ErrorContext(ctx, "summary generation failed, using fallback summary",
			logging.ErrKey, err, "meeting_uid", meeting.UID)
		return FallbackSummary(meeting, items)
	}

	return summary
}

// formatTranscriptForPrompt renders the transcript with humanized
// timestamps and resolved speaker names for the LLM.
func formatTranscriptForPrompt(items []models.TranscriptItem) string {
	var b strings.Builder
	for _, item := range items {
		name := item.SpeakerName
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", models.FormatTimestamp(item.StartTS), name, item.Text)
	}
	return b.String()
}

// FallbackSummary builds a summary purely from local aggregation:
// participant list, message count, approximate duration, and per-speaker
// excerpts. It must never fail, transcript or no transcript.
func FallbackSummary(meeting *models.Meeting, items []models.TranscriptItem) string {
	var b strings.Builder

	b.WriteString("### Overview\n")
	if len(items) == 0 {
		b.WriteString("No transcript was available for this meeting, so no detailed summary could be generated.\n")
		return b.String()
	}

	speakers := make(map[string][]models.TranscriptItem)
	var order []string
	for _, item := range items {
		name := item.SpeakerName
		if name == "" {
			name = "Unknown"
		}
		if _, seen := speakers[name]; !seen {
			order = append(order, name)
		}
		speakers[name] = append(speakers[name], item)
	}
	sort.Strings(order)

	durationMS := items[len(items)-1].StopTS - items[0].StartTS
	if durationMS < 0 {
		durationMS = 0
	}

	fmt.Fprintf(&b, "This meeting had %d participants and %d transcript messages over approximately %s.\n",
		len(order), len(items), models.FormatTimestamp(durationMS))
	fmt.Fprintf(&b, "Participants: %s.\n", strings.Join(order, ", "))

	b.WriteString("\n### Notes\n")
	for _, name := range order {
		fmt.Fprintf(&b, "\n#### %s\n", name)
		excerpts := speakers[name]
		if len(excerpts) > 3 {
			excerpts = excerpts[:3]
		}
		for _, item := range excerpts {
			fmt.Fprintf(&b, "- [%s] %s\n", models.FormatTimestamp(item.StartTS), item.Text)
		}
	}

	return b.String()
}
