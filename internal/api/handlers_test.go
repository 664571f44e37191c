// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/mocks"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/service"
	"github.com/meetassist/meeting-lifecycle-service/pkg/concurrent"
)

type apiFixture struct {
	meetingRepo      *mocks.MockMeetingRepository
	agentRepo        *mocks.MockAgentRepository
	userRepo         *mocks.MockUserRepository
	checkpoints      *mocks.MockCheckpointStore
	webhookValidator *mocks.MockWebhookValidator
	videoProvider    *mocks.MockVideoProvider
	chatProvider     *mocks.MockChatProvider
	completionClient *mocks.MockCompletionClient
	fetcher          *mocks.MockTranscriptFetcher
	messageSender    *mocks.MockProcessingMessageSender
	locks            *concurrent.KeyedTTLLock
	router           http.Handler
}

func newAPIFixture() *apiFixture {
	f := &apiFixture{
		meetingRepo:      &mocks.MockMeetingRepository{},
		agentRepo:        &mocks.MockAgentRepository{},
		userRepo:         &mocks.MockUserRepository{},
		checkpoints:      &mocks.MockCheckpointStore{},
		webhookValidator: &mocks.MockWebhookValidator{},
		videoProvider:    &mocks.MockVideoProvider{},
		chatProvider:     &mocks.MockChatProvider{},
		completionClient: &mocks.MockCompletionClient{},
		fetcher:          &mocks.MockTranscriptFetcher{},
		messageSender:    &mocks.MockProcessingMessageSender{},
		locks:            concurrent.NewKeyedTTLLock(service.ConnectLockTTL),
	}

	lifecycleService := service.NewLifecycleService(
		f.meetingRepo, f.agentRepo, f.webhookValidator,
		f.videoProvider, f.chatProvider, f.completionClient, f.messageSender,
	)
	connectService := service.NewConnectService(
		f.meetingRepo, f.agentRepo, f.videoProvider, f.completionClient, f.locks,
	)
	pipelineService := service.NewPipelineService(
		f.meetingRepo, f.agentRepo, f.userRepo, f.checkpoints, f.fetcher,
		service.NewSummarizer(f.completionClient),
		service.PipelineConfig{URLPollDelay: time.Millisecond, FetchDelay: time.Millisecond},
	)

	f.router = NewRouter(NewHandlers(lifecycleService, connectService, pipelineService))
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleWebhook(t *testing.T) {
	body := []byte(`{"type":"call.session_started","call_cid":"default:meeting-1"}`)

	t.Run("accepted event returns ok", func(t *testing.T) {
		f := newAPIFixture()
		meeting := &models.Meeting{UID: "meeting-1", Status: models.MeetingStatusUpcoming}

		f.webhookValidator.On("ValidateSignature", body, "sig").Return(nil)
		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(meeting, uint64(1), nil)
		f.meetingRepo.On("UpdateMeeting", mock.Anything, mock.Anything, uint64(1)).Return(nil)

		rec := f.do(t, http.MethodPost, "/webhooks/stream", body, map[string]string{SignatureHeader: "sig"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("tampered body is rejected without side effects", func(t *testing.T) {
		f := newAPIFixture()

		f.webhookValidator.On("ValidateSignature", body, "sig").
			Return(domain.NewAuthenticationError("invalid webhook signature"))

		rec := f.do(t, http.MethodPost, "/webhooks/stream", body, map[string]string{SignatureHeader: "sig"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		f.meetingRepo.AssertNotCalled(t, "GetMeetingWithRevision", mock.Anything, mock.Anything)
		f.meetingRepo.AssertNotCalled(t, "UpdateMeeting", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown meeting maps to 404", func(t *testing.T) {
		f := newAPIFixture()

		f.webhookValidator.On("ValidateSignature", body, "sig").Return(nil)
		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(nil, uint64(0), domain.NewNotFoundError("meeting meeting-1 not found"))

		rec := f.do(t, http.MethodPost, "/webhooks/stream", body, map[string]string{SignatureHeader: "sig"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("internal failure is swallowed with 200", func(t *testing.T) {
		f := newAPIFixture()

		f.webhookValidator.On("ValidateSignature", body, "sig").Return(nil)
		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(nil, uint64(0), domain.NewInternalError("kv store unavailable"))

		rec := f.do(t, http.MethodPost, "/webhooks/stream", body, map[string]string{SignatureHeader: "sig"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("malformed payload maps to 400", func(t *testing.T) {
		f := newAPIFixture()
		bad := []byte(`{"type":`)

		f.webhookValidator.On("ValidateSignature", bad, "sig").Return(nil)

		rec := f.do(t, http.MethodPost, "/webhooks/stream", bad, map[string]string{SignatureHeader: "sig"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleConnectAgent(t *testing.T) {
	reqBody := []byte(`{"meetingId":"meeting-1","agentId":"agent-1"}`)

	t.Run("successful connection", func(t *testing.T) {
		f := newAPIFixture()
		meeting := &models.Meeting{UID: "meeting-1", UserUID: "user-1", Status: models.MeetingStatusActive}
		agent := &models.Agent{UID: "agent-1", Name: "Scribe"}

		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(meeting, uint64(2), nil)
		f.agentRepo.On("GetAgent", mock.Anything, "agent-1").Return(agent, nil)
		f.completionClient.On("Configured").Return(true)
		f.videoProvider.On("CallExists", mock.Anything, "meeting-1").Return(true, nil)
		f.videoProvider.On("UpsertUser", mock.Anything, mock.Anything).Return(nil)
		f.videoProvider.On("ConnectAgent", mock.Anything, "meeting-1", "agent-1").Return(nil)
		f.videoProvider.On("UpdateSessionInstructions", mock.Anything, "meeting-1", "agent-1", mock.Anything).Return(nil)
		f.meetingRepo.On("UpdateMeeting", mock.Anything, mock.Anything, uint64(2)).Return(nil)

		rec := f.do(t, http.MethodPost, "/connect-agent", reqBody, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, false, resp["alreadyConnected"])
	})

	t.Run("concurrent attempt returns 202", func(t *testing.T) {
		f := newAPIFixture()
		require.True(t, f.locks.TryAcquire("meeting-1"))

		rec := f.do(t, http.MethodPost, "/connect-agent", reqBody, nil)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["success"])
	})

	t.Run("agent conflict returns 409", func(t *testing.T) {
		f := newAPIFixture()
		meeting := &models.Meeting{UID: "meeting-1", Status: models.MeetingStatusActive, AgentUID: "agent-2"}

		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(meeting, uint64(2), nil)

		rec := f.do(t, http.MethodPost, "/connect-agent", reqBody, nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid body returns 400", func(t *testing.T) {
		f := newAPIFixture()

		rec := f.do(t, http.MethodPost, "/connect-agent", []byte(`{`), nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleMarkEnded(t *testing.T) {
	f := newAPIFixture()
	meeting := &models.Meeting{UID: "meeting-1", Status: models.MeetingStatusActive}

	f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
		Return(meeting, uint64(2), nil)
	f.meetingRepo.On("UpdateMeeting", mock.Anything, mock.Anything, uint64(2)).Return(nil)
	f.messageSender.On("SendMeetingProcessing", mock.Anything, mock.Anything).Return(nil)

	rec := f.do(t, http.MethodPost, "/meetings/mark-ended", []byte(`{"meetingId":"meeting-1"}`), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleRegenerateSummary(t *testing.T) {
	t.Run("not completed meeting returns 400", func(t *testing.T) {
		f := newAPIFixture()
		meeting := &models.Meeting{UID: "meeting-1", Status: models.MeetingStatusProcessing}

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").Return(meeting, nil)

		rec := f.do(t, http.MethodPost, "/meetings/meeting-1/regenerate-summary", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown meeting returns 404", func(t *testing.T) {
		f := newAPIFixture()

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").
			Return(nil, domain.NewNotFoundError("meeting meeting-1 not found"))

		rec := f.do(t, http.MethodPost, "/meetings/meeting-1/regenerate-summary", nil, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("livez is always ok", func(t *testing.T) {
		f := newAPIFixture()

		rec := f.do(t, http.MethodGet, "/livez", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readyz is ok with all dependencies wired", func(t *testing.T) {
		f := newAPIFixture()

		rec := f.do(t, http.MethodGet, "/readyz", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readyz fails without services", func(t *testing.T) {
		router := NewRouter(NewHandlers(nil, nil, nil))

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
