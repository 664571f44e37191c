// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package models

// NATS subjects that the lifecycle service sends and handles messages about.
const (
	// MeetingProcessingSubject is the subject for transcript processing jobs.
	// The subject is of the form: lifecycle.meeting.processing
	MeetingProcessingSubject = "lifecycle.meeting.processing"

	// MeetingProcessingQueue is the queue group name for the processing
	// consumers, so that one instance handles each job.
	MeetingProcessingQueue = "lifecycle-processing-queue"
)

// MeetingProcessingMessage is the NATS message schema for a transcript
// processing job. TranscriptURL may be empty when the job is enqueued
// before the transcript-ready event arrives.
type MeetingProcessingMessage struct {
	MeetingUID    string `json:"meeting_uid"`
	TranscriptURL string `json:"transcript_url,omitempty"`
	JobUID        string `json:"job_uid"`
}
