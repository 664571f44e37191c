// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// mockNatsConn implements INatsConn for testing
type mockNatsConn struct {
	mock.Mock
}

func (m *mockNatsConn) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockNatsConn) Publish(subj string, data []byte) error {
	args := m.Called(subj, data)
	return args.Error(0)
}

func TestSendMeetingProcessing(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes the job on the processing subject", func(t *testing.T) {
		conn := &mockNatsConn{}
		builder := NewMessageBuilder(conn)

		var published []byte
		conn.On("IsConnected").Return(true)
		conn.On("Publish", models.MeetingProcessingSubject, mock.Anything).
			Run(func(args mock.Arguments) {
				published = args.Get(1).([]byte)
			}).Return(nil)

		err := builder.SendMeetingProcessing(ctx, models.MeetingProcessingMessage{
			MeetingUID:    "meeting-1",
			TranscriptURL: "https://cdn.example.com/t.jsonl",
			JobUID:        "job-1",
		})

		require.NoError(t, err)

		var msg models.MeetingProcessingMessage
		require.NoError(t, json.Unmarshal(published, &msg))
		assert.Equal(t, "meeting-1", msg.MeetingUID)
		assert.Equal(t, "https://cdn.example.com/t.jsonl", msg.TranscriptURL)
		assert.Equal(t, "job-1", msg.JobUID)
	})

	t.Run("generates a job UID when missing", func(t *testing.T) {
		conn := &mockNatsConn{}
		builder := NewMessageBuilder(conn)

		var published []byte
		conn.On("IsConnected").Return(true)
		conn.On("Publish", models.MeetingProcessingSubject, mock.Anything).
			Run(func(args mock.Arguments) {
				published = args.Get(1).([]byte)
			}).Return(nil)

		err := builder.SendMeetingProcessing(ctx, models.MeetingProcessingMessage{MeetingUID: "meeting-1"})

		require.NoError(t, err)

		var msg models.MeetingProcessingMessage
		require.NoError(t, json.Unmarshal(published, &msg))
		assert.NotEmpty(t, msg.JobUID)
	})

	t.Run("disconnected NATS is unavailable", func(t *testing.T) {
		conn := &mockNatsConn{}
		builder := NewMessageBuilder(conn)

		conn.On("IsConnected").Return(false)

		err := builder.SendMeetingProcessing(ctx, models.MeetingProcessingMessage{MeetingUID: "meeting-1"})

		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
		conn.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure surfaces", func(t *testing.T) {
		conn := &mockNatsConn{}
		builder := NewMessageBuilder(conn)

		conn.On("IsConnected").Return(true)
		conn.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed"))

		err := builder.SendMeetingProcessing(ctx, models.MeetingProcessingMessage{MeetingUID: "meeting-1"})

		require.Error(t, err)
	})
}
