// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
	"github.com/meetassist/meeting-lifecycle-service/internal/domain/models"
	"github.com/meetassist/meeting-lifecycle-service/internal/infrastructure/store"
	"github.com/meetassist/meeting-lifecycle-service/internal/logging"
)

// repositories bundles the KV-backed stores of the service.
type repositories struct {
	Meeting    *store.NatsMeetingRepository
	Agent      *store.NatsAgentRepository
	User       *store.NatsUserRepository
	Checkpoint *store.NatsCheckpointRepository
}

// setupNATS connects to the NATS server with reconnect handling wired
// into the graceful shutdown machinery.
func setupNATS(env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.DrainTimeout(25*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.With("nats_url", env.NatsURL).Info("NATS connection established")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).
					Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			slog.With("last_error", conn.LastError()).Info("NATS connection closed")
			gracefulCloseWG.Done()
			done <- os.Interrupt
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, err
	}

	return natsConn, nil
}

// getKeyValueStores creates or binds the service's KV buckets.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	buckets := map[string]jetstream.KeyValue{}
	for _, name := range []string{
		store.KVStoreNameMeetings,
		store.KVStoreNameAgents,
		store.KVStoreNameUsers,
		store.KVStoreNamePipelineCheckpoints,
	} {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: name})
		if err != nil {
			return nil, err
		}
		buckets[name] = kv
	}

	return &repositories{
		Meeting:    store.NewNatsMeetingRepository(buckets[store.KVStoreNameMeetings]),
		Agent:      store.NewNatsAgentRepository(buckets[store.KVStoreNameAgents]),
		User:       store.NewNatsUserRepository(buckets[store.KVStoreNameUsers]),
		Checkpoint: store.NewNatsCheckpointRepository(buckets[store.KVStoreNamePipelineCheckpoints]),
	}, nil
}

// natsMessageWrapper adapts a *nats.Msg to the domain Message interface.
type natsMessageWrapper struct {
	msg *nats.Msg
}

func (w *natsMessageWrapper) Subject() string {
	return w.msg.Subject
}

func (w *natsMessageWrapper) Data() []byte {
	return w.msg.Data
}

func (w *natsMessageWrapper) Respond(data []byte) error {
	return w.msg.Respond(data)
}

func (w *natsMessageWrapper) HasReply() bool {
	return w.msg.Reply != ""
}

// createNatsSubscriptions registers the queue subscription feeding the
// transcript processing pipeline.
func createNatsSubscriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	_, err := natsConn.QueueSubscribe(
		models.MeetingProcessingSubject,
		models.MeetingProcessingQueue,
		func(msg *nats.Msg) {
			handler.HandleMessage(ctx, &natsMessageWrapper{msg: msg})
		},
	)
	if err != nil {
		return err
	}

	slog.With("subject", models.MeetingProcessingSubject, "queue", models.MeetingProcessingQueue).
		Info("subscribed to processing jobs")
	return nil
}
