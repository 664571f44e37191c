// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// MockWebhookValidator implements WebhookValidator for testing
type MockWebhookValidator struct {
	mock.Mock
}

func (m *MockWebhookValidator) ValidateSignature(body []byte, signature string) error {
	args := m.Called(body, signature)
	return args.Error(0)
}

// MockVideoProvider implements VideoProvider for testing
type MockVideoProvider struct {
	mock.Mock
}

func (m *MockVideoProvider) CallExists(ctx context.Context, meetingUID string) (bool, error) {
	args := m.Called(ctx, meetingUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVideoProvider) CreateCall(ctx context.Context, meetingUID, createdByUID string) error {
	args := m.Called(ctx, meetingUID, createdByUID)
	return args.Error(0)
}

func (m *MockVideoProvider) ConnectAgent(ctx context.Context, meetingUID, agentUID string) error {
	args := m.Called(ctx, meetingUID, agentUID)
	return args.Error(0)
}

func (m *MockVideoProvider) UpdateSessionInstructions(ctx context.Context, meetingUID, agentUID, instructions string) error {
	args := m.Called(ctx, meetingUID, agentUID, instructions)
	return args.Error(0)
}

func (m *MockVideoProvider) UpsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockChatProvider implements ChatProvider for testing
type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) EnsureChannel(ctx context.Context, channelID string, memberUIDs []string) error {
	args := m.Called(ctx, channelID, memberUIDs)
	return args.Error(0)
}

func (m *MockChatProvider) RecentMessages(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, channelID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockChatProvider) SendMessage(ctx context.Context, channelID, senderUID, text string) error {
	args := m.Called(ctx, channelID, senderUID, text)
	return args.Error(0)
}

func (m *MockChatProvider) UpsertUser(ctx context.Context, user models.User, avatarURL string) error {
	args := m.Called(ctx, user, avatarURL)
	return args.Error(0)
}

// MockCompletionClient implements CompletionClient for testing
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, systemPrompt string, messages []models.ChatMessage) (string, error) {
	args := m.Called(ctx, systemPrompt, messages)
	return args.String(0), args.Error(1)
}

func (m *MockCompletionClient) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockTranscriptFetcher implements TranscriptFetcher for testing
type MockTranscriptFetcher struct {
	mock.Mock
}

func (m *MockTranscriptFetcher) FetchTranscript(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockProcessingMessageSender implements ProcessingMessageSender for testing
type MockProcessingMessageSender struct {
	mock.Mock
}

func (m *MockProcessingMessageSender) SendMeetingProcessing(ctx context.Context, msg models.MeetingProcessingMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockMessage implements Message for testing
type MockMessage struct {
	mock.Mock
}

func (m *MockMessage) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockMessage) Data() []byte {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]byte)
}

func (m *MockMessage) Respond(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockMessage) HasReply() bool {
	args := m.Called()
	return args.Bool(0)
}
