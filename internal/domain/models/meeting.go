// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package models contains the entities and message payloads of the
// meeting lifecycle service.
package models

import (
	"time"
)

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

const (
	MeetingStatusUpcoming   MeetingStatus = "upcoming"
	MeetingStatusActive     MeetingStatus = "active"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusCancelled  MeetingStatus = "cancelled"
)

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle edge. Progression is monotonic upcoming -> active ->
// processing -> completed; cancellation is reachable only from upcoming.
func (s MeetingStatus) CanTransitionTo(next MeetingStatus) bool {
	switch s {
	case MeetingStatusUpcoming:
		return next == MeetingStatusActive || next == MeetingStatusCancelled
	case MeetingStatusActive:
		return next == MeetingStatusProcessing
	case MeetingStatusProcessing:
		return next == MeetingStatusCompleted
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusCancelled
}

// Meeting represents one scheduled or held session tracked through its lifecycle.
type Meeting struct {
	UID           string        `json:"uid"`
	Name          string        `json:"name,omitempty"`
	UserUID       string        `json:"user_uid"`
	AgentUID      string        `json:"agent_uid,omitempty"`
	Status        MeetingStatus `json:"status"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	TranscriptURL string        `json:"transcript_url,omitempty"`
	RecordingURL  string        `json:"recording_url,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `json:"updated_at,omitempty"`
}

// Agent is a reusable AI persona that can be attached to a meeting.
type Agent struct {
	UID          string     `json:"uid"`
	Name         string     `json:"name"`
	Instructions string     `json:"instructions"`
	UserUID      string     `json:"user_uid"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// User is the owner of meetings and agents, resolved for speaker display names.
type User struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
