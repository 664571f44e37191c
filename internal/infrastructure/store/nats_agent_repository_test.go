// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

func agentEntry(t *testing.T, agent *models.Agent, revision uint64) jetstream.KeyValueEntry {
	t.Helper()
	data, err := json.Marshal(agent)
	require.NoError(t, err)
	return &mockKVEntry{key: agent.UID, value: data, revision: revision}
}

func TestNatsAgentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the agent", func(t *testing.T) {
		kv := &mockKeyValue{}
		repo := NewNatsAgentRepository(kv)
		stored := &models.Agent{UID: "agent-1", Name: "Scribe", Instructions: "take notes"}

		kv.On("Get", mock.Anything, "agent-1").Return(agentEntry(t, stored, 2), nil)

		agent, err := repo.GetAgent(ctx, "agent-1")

		require.NoError(t, err)
		assert.Equal(t, "Scribe", agent.Name)
		assert.Equal(t, "take notes", agent.Instructions)
	})

	t.Run("missing agent maps to a not found error", func(t *testing.T) {
		kv := &mockKeyValue{}
		repo := NewNatsAgentRepository(kv)

		kv.On("Get", mock.Anything, "missing").Return(nil, jetstream.ErrKeyNotFound)

		_, err := repo.GetAgent(ctx, "missing")

		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})

	t.Run("existing agent", func(t *testing.T) {
		kv := &mockKeyValue{}
		repo := NewNatsAgentRepository(kv)

		kv.On("Get", mock.Anything, "agent-1").
			Return(agentEntry(t, &models.Agent{UID: "agent-1"}, 1), nil)

		exists, err := repo.AgentExists(ctx, "agent-1")

		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing agent is not an error for exists", func(t *testing.T) {
		kv := &mockKeyValue{}
		repo := NewNatsAgentRepository(kv)

		kv.On("Get", mock.Anything, "missing").Return(nil, jetstream.ErrKeyNotFound)

		exists, err := repo.AgentExists(ctx, "missing")

		require.NoError(t, err)
		assert.False(t, exists)
	})
}
