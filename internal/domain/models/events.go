// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"strings"
)

// EventKind identifies a webhook event class after decoding. The set is
// closed; providers' raw type strings map onto it in ParseEvent.
type EventKind string

const (
	EventSessionStarted  EventKind = "session_started"
	EventParticipantLeft EventKind = "participant_left"
	EventSessionEnded    EventKind = "session_ended"
	EventTranscriptReady EventKind = "transcript_ready"
	EventRecordingReady  EventKind = "recording_ready"
	EventChatMessage     EventKind = "chat_message"
	EventUnknown         EventKind = "unknown"
)

// Event is a decoded webhook event with its type-specific payload.
type Event interface {
	Kind() EventKind
}

// SessionStartedEvent signals that the provider opened a call session.
type SessionStartedEvent struct {
	MeetingUID string
}

func (e SessionStartedEvent) Kind() EventKind { return EventSessionStarted }

// ParticipantLeftEvent signals that a participant left the session.
// Lifecycle progress ignores it; session end is authoritative.
type ParticipantLeftEvent struct {
	MeetingUID string
}

func (e ParticipantLeftEvent) Kind() EventKind { return EventParticipantLeft }

// SessionEndedEvent signals that the provider closed the call session.
type SessionEndedEvent struct {
	MeetingUID string
}

func (e SessionEndedEvent) Kind() EventKind { return EventSessionEnded }

// TranscriptReadyEvent carries the URL of the finished transcript artifact.
type TranscriptReadyEvent struct {
	MeetingUID    string
	TranscriptURL string
}

func (e TranscriptReadyEvent) Kind() EventKind { return EventTranscriptReady }

// RecordingReadyEvent carries the URL of the finished recording artifact.
type RecordingReadyEvent struct {
	MeetingUID   string
	RecordingURL string
}

func (e RecordingReadyEvent) Kind() EventKind { return EventRecordingReady }

// ChatMessageEvent is a new message posted on a meeting's chat channel.
type ChatMessageEvent struct {
	MeetingUID string
	SenderUID  string
	Text       string
}

func (e ChatMessageEvent) Kind() EventKind { return EventChatMessage }

// UnknownEvent preserves the raw type string of an event kind the
// service does not handle. Handlers acknowledge it as a no-op.
type UnknownEvent struct {
	RawType string
}

func (e UnknownEvent) Kind() EventKind { return EventUnknown }

// webhookEnvelope is the wire shape shared by all provider events. Only
// the fields the service reads are declared.
type webhookEnvelope struct {
	Type    string `json:"type"`
	CallCID string `json:"call_cid"`
	Call    *struct {
		CID    string `json:"cid"`
		Custom struct {
			MeetingID string `json:"meetingId"`
		} `json:"custom"`
	} `json:"call"`
	CallTranscription *struct {
		URL string `json:"url"`
	} `json:"call_transcription"`
	CallRecording *struct {
		URL string `json:"url"`
	} `json:"call_recording"`
	ChannelID string `json:"channel_id"`
	User      *struct {
		ID string `json:"id"`
	} `json:"user"`
	Message *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// meetingUID resolves the meeting identifier for call events: the custom
// metadata wins, otherwise the segment after ':' in the call CID.
func (env *webhookEnvelope) meetingUID() string {
	if env.Call != nil && env.Call.Custom.MeetingID != "" {
		return env.Call.Custom.MeetingID
	}
	cid := env.CallCID
	if cid == "" && env.Call != nil {
		cid = env.Call.CID
	}
	if idx := strings.Index(cid, ":"); idx >= 0 {
		return cid[idx+1:]
	}
	return ""
}

// ParseEvent decodes a raw webhook body into a typed Event. A body that
// is not valid JSON or has no type discriminator is an error; a valid
// body with an unhandled type decodes to UnknownEvent.
func ParseEvent(body []byte) (Event, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case "call.session_started":
		return SessionStartedEvent{MeetingUID: env.meetingUID()}, nil
	case "call.session_participant_left":
		return ParticipantLeftEvent{MeetingUID: env.meetingUID()}, nil
	case "call.session_ended":
		return SessionEndedEvent{MeetingUID: env.meetingUID()}, nil
	case "call.transcription_ready", "call.session_transcription_ready":
		ev := TranscriptReadyEvent{MeetingUID: env.meetingUID()}
		if env.CallTranscription != nil {
			ev.TranscriptURL = env.CallTranscription.URL
		}
		return ev, nil
	case "call.recording_ready", "call.session_recording_ready":
		ev := RecordingReadyEvent{MeetingUID: env.meetingUID()}
		if env.CallRecording != nil {
			ev.RecordingURL = env.CallRecording.URL
		}
		return ev, nil
	case "message.new":
		ev := ChatMessageEvent{MeetingUID: env.ChannelID}
		if env.User != nil {
			ev.SenderUID = env.User.ID
		}
		if env.Message != nil {
			ev.Text = env.Message.Text
		}
		return ev, nil
	default:
		return UnknownEvent{RawType: env.Type}, nil
	}
}
