// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package models

// Chat roles used when sending conversation context to the LLM.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one message on a meeting's chat channel. Role is filled
// in by the caller when building LLM context; the chat provider only
// knows the sender.
type ChatMessage struct {
	Role      string `json:"role,omitempty"`
	SenderUID string `json:"sender_uid,omitempty"`
	Text      string `json:"text"`
}
