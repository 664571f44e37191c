// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTranscriptJSONL(t *testing.T) {
	t.Run("parses well formed lines", func(t *testing.T) {
		body := `{"speaker_id":"user-1","text":"hello","start_ts":0,"stop_ts":1200}
{"speaker_id":"agent-1","text":"hi there","start_ts":1500,"stop_ts":2900}`

		items := ParseTranscriptJSONL(strings.NewReader(body))

		assert.Equal(t, []TranscriptItem{
			{SpeakerID: "user-1", Text: "hello", StartTS: 0, StopTS: 1200},
			{SpeakerID: "agent-1", Text: "hi there", StartTS: 1500, StopTS: 2900},
		}, items)
	})

	t.Run("skips blank and malformed lines", func(t *testing.T) {
		body := `
{"speaker_id":"user-1","text":"first","start_ts":0,"stop_ts":100}

not json at all
{"speaker_id":"user-1","text":"second","start_ts":200,"stop_ts":300}
{"speaker_id": truncated`

		items := ParseTranscriptJSONL(strings.NewReader(body))

		assert.Len(t, items, 2)
		assert.Equal(t, "first", items[0].Text)
		assert.Equal(t, "second", items[1].Text)
	})

	t.Run("empty body yields empty slice", func(t *testing.T) {
		items := ParseTranscriptJSONL(strings.NewReader(""))
		assert.Empty(t, items)
	})
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{name: "zero", ms: 0, want: "0:00"},
		{name: "sub-second truncates", ms: 900, want: "0:00"},
		{name: "seconds only", ms: 42_000, want: "0:42"},
		{name: "minute boundary", ms: 60_000, want: "1:00"},
		{name: "padded seconds", ms: 65_000, want: "1:05"},
		{name: "over an hour keeps minutes", ms: 3_725_000, want: "62:05"},
		{name: "negative clamps to zero", ms: -5_000, want: "0:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatTimestamp(tc.ms))
		})
	}
}
