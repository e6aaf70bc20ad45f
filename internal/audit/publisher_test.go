package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credtrust/internal/platform/kafka/producer"
)

type stubProducer struct {
	messages []*producer.Message
	err      error
}

func (p *stubProducer) Produce(_ context.Context, msg *producer.Message) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func TestEmitPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	sink := &stubProducer{}
	pub := NewPublisher(store, WithKafka(sink, "audit.events"))

	event := Event{ActorID: "actor-1", Action: string(EventCredentialApproved), CredentialID: "cred-1"}
	require.NoError(t, pub.Emit(ctx, event))

	stored, err := store.ListByActor(ctx, "actor-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].Timestamp.IsZero())

	require.Len(t, sink.messages, 1)
	assert.Equal(t, "audit.events", sink.messages[0].Topic)
	assert.Equal(t, []byte("actor-1"), sink.messages[0].Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(sink.messages[0].Value, &decoded))
	assert.Equal(t, string(EventCredentialApproved), decoded.Action)
}

func TestEmitKafkaFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	sink := &stubProducer{err: errors.New("broker down")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewPublisher(store, WithKafka(sink, "audit.events"), WithPublisherLogger(logger))

	err := pub.Emit(ctx, Event{ActorID: "actor-1", Action: string(EventUserDeleted)})
	assert.NoError(t, err)

	stored, err := store.ListByActor(ctx, "actor-1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestEmitWithoutKafka(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	require.NoError(t, pub.Emit(ctx, Event{ActorID: "actor-2", Action: string(EventDIDAssigned)}))

	stored, err := store.ListByActor(ctx, "actor-2")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
