// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// WebhookValidator validates the authenticity of webhook payloads.
type WebhookValidator interface {
	// ValidateSignature verifies the signature over the exact raw body.
	// A missing signature yields a validation error, a mismatching one an
	// authentication error.
	ValidateSignature(body []byte, signature string) error
}

// VideoProvider is the narrow surface of the real-time video provider the
// reconciler depends on.
type VideoProvider interface {
	// CallExists reports whether the provider knows the call for the meeting.
	CallExists(ctx context.Context, meetingUID string) (bool, error)
	// CreateCall creates the call with the owning user and the meeting UID
	// attached as custom metadata.
	CreateCall(ctx context.Context, meetingUID, createdByUID string) error
	// ConnectAgent establishes the AI agent's presence in the live call.
	ConnectAgent(ctx context.Context, meetingUID, agentUID string) error
	// UpdateSessionInstructions pushes the agent's instructions into its
	// realtime session context.
	UpdateSessionInstructions(ctx context.Context, meetingUID, agentUID, instructions string) error
	// UpsertUser registers or refreshes a user identity with the provider.
	UpsertUser(ctx context.Context, user models.User) error
}

// ChatProvider is the narrow surface of the chat provider used for
// post-meeting Q&A channels.
type ChatProvider interface {
	// EnsureChannel creates the meeting's chat channel when absent and adds
	// the given members.
	EnsureChannel(ctx context.Context, channelID string, memberUIDs []string) error
	// RecentMessages returns up to limit of the latest non-empty channel
	// messages, oldest first.
	RecentMessages(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error)
	// SendMessage posts text on the channel as the given sender.
	SendMessage(ctx context.Context, channelID, senderUID, text string) error
	// UpsertUser registers or refreshes a chat identity, avatar included.
	UpsertUser(ctx context.Context, user models.User, avatarURL string) error
}

// CompletionClient is the LLM completion surface used for summaries and
// chat replies.
type CompletionClient interface {
	// Complete sends the system prompt plus messages and returns the
	// model's reply content.
	Complete(ctx context.Context, systemPrompt string, messages []models.ChatMessage) (string, error)
	// Configured reports whether an API credential is present.
	Configured() bool
}

// TranscriptFetcher downloads transcript artifacts.
type TranscriptFetcher interface {
	// FetchTranscript returns the raw artifact body at url.
	FetchTranscript(ctx context.Context, url string) ([]byte, error)
}
