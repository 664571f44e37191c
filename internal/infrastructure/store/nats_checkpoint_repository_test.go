// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

func TestCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := &mockKeyValue{}
	repo := NewNatsCheckpointRepository(kv)

	items := []models.TranscriptItem{
		{SpeakerID: "user-1", Text: "hello", StartTS: 0, StopTS: 1000},
		{SpeakerID: "agent-1", Text: "hi", StartTS: 1200, StopTS: 2000},
	}

	var stored []byte
	kv.On("Put", mock.Anything, "meeting-1.parse-transcript", mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).([]byte)
		}).Return(uint64(1), nil)

	require.NoError(t, repo.PutCheckpoint(ctx, "meeting-1", "parse-transcript", items))

	kv.On("Get", mock.Anything, "meeting-1.parse-transcript").
		Return(&mockKVEntry{key: "meeting-1.parse-transcript", value: stored, revision: 1}, nil)

	var decoded []models.TranscriptItem
	found, err := repo.GetCheckpoint(ctx, "meeting-1", "parse-transcript", &decoded)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, items, decoded)
}

func TestGetCheckpointMissing(t *testing.T) {
	kv := &mockKeyValue{}
	repo := NewNatsCheckpointRepository(kv)

	kv.On("Get", mock.Anything, "meeting-1.fetch-transcript").
		Return(nil, jetstream.ErrKeyNotFound)

	var out []byte
	found, err := repo.GetCheckpoint(context.Background(), "meeting-1", "fetch-transcript", &out)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetCheckpointCorruptData(t *testing.T) {
	kv := &mockKeyValue{}
	repo := NewNatsCheckpointRepository(kv)

	kv.On("Get", mock.Anything, "meeting-1.parse-transcript").
		Return(&mockKVEntry{key: "meeting-1.parse-transcript", value: []byte{0xc1}, revision: 1}, nil)

	var out []models.TranscriptItem
	_, err := repo.GetCheckpoint(context.Background(), "meeting-1", "parse-transcript", &out)

	require.Error(t, err)
}

func TestClearCheckpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes only the meeting's keys", func(t *testing.T) {
		kv := &mockKeyValue{}
		repo := NewNatsCheckpointRepository(kv)

		kv.On("ListKeys", mock.Anything).Return(&mockKeyLister{keys: []string{
			"meeting-1.wait-transcript-url",
			"meeting-1.fetch-transcript",
			"meeting-2.fetch-transcript",
		}}, nil)
		kv.On("Delete", mock.Anything, "meeting-1.wait-transcript-url").Return(nil)
		kv.On("Delete", mock.Anything, "meeting-1.fetch-transcript").Return(nil)

		require.NoError(t, repo.ClearCheckpoints(ctx, "meeting-1"))

		kv.AssertNotCalled(t, "Delete", mock.Anything, "meeting-2.fetch-transcript")
	})

	t.Run("tolerates keys deleted concurrently", func(t *testing.T) {
		kv := &mockKeyValue{}
		repo := NewNatsCheckpointRepository(kv)

		kv.On("ListKeys", mock.Anything).Return(&mockKeyLister{keys: []string{
			"meeting-1.fetch-transcript",
		}}, nil)
		kv.On("Delete", mock.Anything, "meeting-1.fetch-transcript").
			Return(jetstream.ErrKeyNotFound)

		require.NoError(t, repo.ClearCheckpoints(ctx, "meeting-1"))
	})
}

func TestCheckpointMsgpackEncoding(t *testing.T) {
	// The checkpoint payload must round-trip through msgpack using the
	// struct tags, not reflection over exported names.
	item := models.TranscriptItem{SpeakerID: "user-1", Text: "hello", StartTS: 1, StopTS: 2, SpeakerName: "Ada"}

	data, err := msgpack.Marshal(item)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "speaker_id")
	assert.Contains(t, decoded, "speaker_name")
}
