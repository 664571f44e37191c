// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package llm contains the OpenAI-compatible completion client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
)

const (
	// DefaultBaseURL is the OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel drives summaries and chat replies.
	DefaultModel = "gpt-4o"
	// DefaultTimeout bounds a single completion request.
	DefaultTimeout = 60 * time.Second
)

// Config holds the configuration for the completion client.
type Config struct {
	APIKey string
	// Optional: override base URL for testing or compatible backends
	BaseURL string
	// Optional: override the model
	Model string
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new completion client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// Configured reports whether an API credential is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

type chatRequestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends the system prompt plus conversation messages and returns
// the model's reply content. An empty reply is an error so callers can
// fall back deterministically.
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []models.ChatMessage) (string, error) {
	if !c.Configured() {
		return "", domain.NewConfigurationError("LLM API key not configured")
	}

	reqMessages := make([]chatRequestMessage, 0, len(messages)+1)
	reqMessages = append(reqMessages, chatRequestMessage{Role: "system", Content: systemPrompt})
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = models.ChatRoleUser
		}
		reqMessages = append(reqMessages, chatRequestMessage{Role: role, Content: m.Text})
	}

	payload, err := json.Marshal(map[string]any{
		"model":    c.config.Model,
		"messages": reqMessages,
	})
	if err != nil {
		return "", domain.NewInternalError("failed to marshal completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", domain.NewInternalError("failed to create completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewProviderError("completion request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.ErrorContext(ctx, "completion request returned non-success status",
			"status", resp.StatusCode,
			"body", string(body),
			logging.ErrKey, fmt.Errorf("status: %d", resp.StatusCode))
		return "", domain.NewProviderError("completion request failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.NewProviderError("failed to decode completion response", err)
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", domain.NewProviderError("completion response was empty")
	}

	return decoded.Choices[0].Message.Content, nil
}
