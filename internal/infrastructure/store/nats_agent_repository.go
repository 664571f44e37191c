// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
)

// NatsAgentRepository is the NATS KV store repository for agents.
type NatsAgentRepository struct {
	*NatsBaseRepository[models.Agent]
}

// NewNatsAgentRepository creates a new NATS KV store repository for agents.
func NewNatsAgentRepository(kvStore INatsKeyValue) *NatsAgentRepository {
	return &NatsAgentRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Agent](kvStore, "agent"),
	}
}

func (s *NatsAgentRepository) GetAgent(ctx context.Context, agentUID string) (*models.Agent, error) {
	return s.Get(ctx, agentUID)
}

func (s *NatsAgentRepository) AgentExists(ctx context.Context, agentUID string) (bool, error) {
	return s.Exists(ctx, agentUID)
}

// NatsUserRepository is the NATS KV store repository for users.
type NatsUserRepository struct {
	*NatsBaseRepository[models.User]
}

// NewNatsUserRepository creates a new NATS KV store repository for users.
func NewNatsUserRepository(kvStore INatsKeyValue) *NatsUserRepository {
	return &NatsUserRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.User](kvStore, "user"),
	}
}

func (s *NatsUserRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	return s.Get(ctx, userUID)
}
