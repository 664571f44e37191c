// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// ChatClient implements the chat provider surface over the provider's
// messaging API. Channels are addressed as "messaging:<meetingUID>".
type ChatClient struct {
	client *Client
}

// NewChatClient creates a chat provider client sharing the given base client.
func NewChatClient(client *Client) *ChatClient {
	return &ChatClient{client: client}
}

func channelPath(channelID string) string {
	return "/chat/channels/messaging/" + url.PathEscape(channelID)
}

// EnsureChannel creates the meeting's chat channel when absent and adds
// the given members. The provider treats channel creation as idempotent.
func (c *ChatClient) EnsureChannel(ctx context.Context, channelID string, memberUIDs []string) error {
	body := map[string]any{
		"data": map[string]any{
			"members": memberUIDs,
		},
	}

	resp, err := c.client.doRequest(ctx, http.MethodPost, channelPath(channelID), body)
	if err != nil {
		return domain.NewProviderError("failed to ensure chat channel", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return nil
}

// RecentMessages returns up to limit of the latest non-empty channel
// messages, oldest first.
func (c *ChatClient) RecentMessages(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error) {
	path := channelPath(channelID) + "/messages?limit=" + strconv.Itoa(limit)
	resp, err := c.client.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, domain.NewProviderError("failed to fetch channel messages", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, classifyErrorResponse(resp)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded struct {
		Messages []struct {
			Text string `json:"text"`
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, domain.NewProviderError("failed to decode channel messages", err)
	}

	var messages []models.ChatMessage
	for _, m := range decoded.Messages {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		messages = append(messages, models.ChatMessage{
			SenderUID: m.User.ID,
			Text:      m.Text,
		})
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	return messages, nil
}

// SendMessage posts text on the channel as the given sender.
func (c *ChatClient) SendMessage(ctx context.Context, channelID, senderUID, text string) error {
	body := map[string]any{
		"message": map[string]any{
			"text":    text,
			"user_id": senderUID,
		},
	}

	resp, err := c.client.doRequest(ctx, http.MethodPost, channelPath(channelID)+"/message", body)
	if err != nil {
		return domain.NewProviderError("failed to send chat message", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return nil
}

// UpsertUser registers or refreshes a chat identity, avatar included.
func (c *ChatClient) UpsertUser(ctx context.Context, user models.User, avatarURL string) error {
	body := map[string]any{
		"users": map[string]any{
			user.UID: map[string]any{
				"id":    user.UID,
				"name":  user.Name,
				"image": avatarURL,
			},
		},
	}

	resp, err := c.client.doRequest(ctx, http.MethodPost, "/chat/users", body)
	if err != nil {
		return domain.NewProviderError("failed to upsert chat user", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyErrorResponse(resp)
	}

	drainAndClose(resp)
	return nil
}
