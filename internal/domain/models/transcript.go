// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package models

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// TranscriptItem is one line of a parsed transcript artifact.
type TranscriptItem struct {
	SpeakerID   string `json:"speaker_id" msgpack:"speaker_id"`
	Text        string `json:"text" msgpack:"text"`
	StartTS     int64  `json:"start_ts" msgpack:"start_ts"`
	StopTS      int64  `json:"stop_ts" msgpack:"stop_ts"`
	SpeakerName string `json:"speaker_name,omitempty" msgpack:"speaker_name"`
}

// ParseTranscriptJSONL parses a newline-delimited JSON transcript body.
// Lines that are blank or fail to decode are skipped; a body with no
// usable lines yields an empty slice, never an error.
func ParseTranscriptJSONL(r io.Reader) []TranscriptItem {
	var items []TranscriptItem

	scanner := bufio.NewScanner(r)
	// Transcript lines for long monologues can exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var item TranscriptItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			continue
		}
		items = append(items, item)
	}

	return items
}

// FormatTimestamp renders a millisecond offset as m:ss for prompts and
// summaries.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}
