// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/mocks"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/service"
)

type handlerFixture struct {
	meetingRepo *mocks.MockMeetingRepository
	handler     *ProcessingHandler
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		meetingRepo: &mocks.MockMeetingRepository{},
	}
	completionClient := &mocks.MockCompletionClient{}
	pipelineService := service.NewPipelineService(
		f.meetingRepo,
		&mocks.MockAgentRepository{},
		&mocks.MockUserRepository{},
		&mocks.MockCheckpointStore{},
		&mocks.MockTranscriptFetcher{},
		service.NewSummarizer(completionClient),
		service.PipelineConfig{URLPollDelay: time.Millisecond, FetchDelay: time.Millisecond},
	)
	f.handler = NewProcessingHandler(pipelineService)
	return f
}

func TestHandleMessage(t *testing.T) {
	t.Run("dispatches processing jobs by subject", func(t *testing.T) {
		f := newHandlerFixture()
		msg := &mocks.MockMessage{}

		msg.On("Subject").Return(models.MeetingProcessingSubject)
		msg.On("Data").Return([]byte(`{"meeting_uid":"meeting-1"}`))
		// A terminal meeting makes the job a clean no-op.
		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").
			Return(&models.Meeting{UID: "meeting-1", Status: models.MeetingStatusCompleted}, nil)

		f.handler.HandleMessage(context.Background(), msg)

		f.meetingRepo.AssertCalled(t, "GetMeeting", mock.Anything, "meeting-1")
	})

	t.Run("ignores unknown subjects", func(t *testing.T) {
		f := newHandlerFixture()
		msg := &mocks.MockMessage{}

		msg.On("Subject").Return("lifecycle.meeting.other")

		f.handler.HandleMessage(context.Background(), msg)

		f.meetingRepo.AssertNotCalled(t, "GetMeeting", mock.Anything, mock.Anything)
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		f := newHandlerFixture()
		msg := &mocks.MockMessage{}

		msg.On("Subject").Return(models.MeetingProcessingSubject)
		msg.On("Data").Return([]byte(`{"meeting_uid":`))

		f.handler.HandleMessage(context.Background(), msg)

		f.meetingRepo.AssertNotCalled(t, "GetMeeting", mock.Anything, mock.Anything)
	})
}

func TestHandlerReady(t *testing.T) {
	assert.True(t, newHandlerFixture().handler.HandlerReady())
	assert.False(t, NewProcessingHandler(nil).HandlerReady())
}
