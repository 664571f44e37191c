// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
)

// NatsCheckpointRepository stores per-step pipeline results in a NATS KV
// bucket. Values are msgpack-encoded and keyed "<meetingUID>.<step>" so
// one meeting's checkpoints can be listed and cleared by prefix.
type NatsCheckpointRepository struct {
	*NatsBaseRepository[any]
	kvStore INatsKeyValue
}

// NewNatsCheckpointRepository creates a new NATS KV store repository for
// pipeline checkpoints.
func NewNatsCheckpointRepository(kvStore INatsKeyValue) *NatsCheckpointRepository {
	return &NatsCheckpointRepository{
		NatsBaseRepository: NewNatsBaseRepository[any](kvStore, "checkpoint"),
		kvStore:            kvStore,
	}
}

func checkpointKey(meetingUID, step string) string {
	return fmt.Sprintf("%s.%s", meetingUID, step)
}

// GetCheckpoint decodes the stored result of the given step into out.
// It returns false with no error when the step has no checkpoint yet.
func (s *NatsCheckpointRepository) GetCheckpoint(ctx context.Context, meetingUID, step string, out any) (bool, error) {
	entry, err := s.GetRaw(ctx, checkpointKey(meetingUID, step))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return false, nil
		}
		return false, err
	}

	if err := msgpack.Unmarshal(entry.Value(), out); err != nil {
		slog.ErrorContext(ctx, "error decoding checkpoint",
			logging.ErrKey, err, "meeting_uid", meetingUID, "step", step)
		return false, domain.NewInternalError("failed to decode checkpoint data", err)
	}

	return true, nil
}

// PutCheckpoint stores the result of a completed step. An existing
// checkpoint for the same step is overwritten.
func (s *NatsCheckpointRepository) PutCheckpoint(ctx context.Context, meetingUID, step string, value any) error {
	if !s.IsReady() {
		return domain.NewUnavailableError("checkpoint repository is not available")
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		slog.ErrorContext(ctx, "error encoding checkpoint",
			logging.ErrKey, err, "meeting_uid", meetingUID, "step", step)
		return domain.NewInternalError("failed to encode checkpoint data", err)
	}

	if _, err := s.kvStore.Put(ctx, checkpointKey(meetingUID, step), data); err != nil {
		slog.ErrorContext(ctx, "error storing checkpoint in NATS KV",
			logging.ErrKey, err, "meeting_uid", meetingUID, "step", step)
		return domain.NewInternalError("failed to store checkpoint", err)
	}

	return nil
}

// ClearCheckpoints removes every stored step result for the meeting.
func (s *NatsCheckpointRepository) ClearCheckpoints(ctx context.Context, meetingUID string) error {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return err
	}

	prefix := meetingUID + "."
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := s.DeleteWithoutRevision(ctx, key); err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			return err
		}
	}

	return nil
}
