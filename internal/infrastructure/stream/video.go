// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// VideoClient implements the video provider surface over the provider's
// call API. Calls are addressed as "default:<meetingUID>".
type VideoClient struct {
	client *Client
}

// NewVideoClient creates a video provider client sharing the given base client.
func NewVideoClient(client *Client) *VideoClient {
	return &VideoClient{client: client}
}

func callPath(meetingUID string) string {
	return "/video/call/default/" + url.PathEscape(meetingUID)
}

// CallExists reports whether the provider knows the call for the meeting.
func (v *VideoClient) CallExists(ctx context.Context, meetingUID string) (bool, error) {
	resp, err := v.client.doRequest(ctx, http.MethodGet, callPath(meetingUID), nil)
	if err != nil {
		return false, domain.NewProviderError("failed to look up call", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		drainAndClose(resp)
		return false, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return false, classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return true, nil
}

// CreateCall creates the call with the owning user and the meeting UID
// attached as custom metadata, mirroring what the call UI would create.
func (v *VideoClient) CreateCall(ctx context.Context, meetingUID, createdByUID string) error {
	body := map[string]any{
		"data": map[string]any{
			"created_by_id": createdByUID,
			"custom": map[string]any{
				"meetingId": meetingUID,
			},
		},
	}

	resp, err := v.client.doRequest(ctx, http.MethodPost, callPath(meetingUID), body)
	if err != nil {
		return domain.NewProviderError("failed to create call", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return nil
}

// ConnectAgent establishes the AI agent's presence in the live call.
func (v *VideoClient) ConnectAgent(ctx context.Context, meetingUID, agentUID string) error {
	body := map[string]any{
		"agent_user_id": agentUID,
	}

	resp, err := v.client.doRequest(ctx, http.MethodPost, callPath(meetingUID)+"/connect_agent", body)
	if err != nil {
		return domain.NewProviderError("failed to connect agent to call", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return nil
}

// UpdateSessionInstructions pushes the agent's instructions into its
// realtime session context.
func (v *VideoClient) UpdateSessionInstructions(ctx context.Context, meetingUID, agentUID, instructions string) error {
	body := map[string]any{
		"agent_user_id": agentUID,
		"session": map[string]any{
			"instructions": instructions,
		},
	}

	resp, err := v.client.doRequest(ctx, http.MethodPatch, callPath(meetingUID)+"/session", body)
	if err != nil {
		return domain.NewProviderError("failed to update agent session", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return nil
}

// UpsertUser registers or refreshes a user identity with the provider.
func (v *VideoClient) UpsertUser(ctx context.Context, user models.User) error {
	body := map[string]any{
		"users": map[string]any{
			user.UID: map[string]any{
				"id":   user.UID,
				"name": user.Name,
			},
		},
	}

	resp, err := v.client.doRequest(ctx, http.MethodPost, "/users", body)
	if err != nil {
		return domain.NewProviderError(fmt.Sprintf("failed to upsert user %s", user.UID), err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return nil
}
