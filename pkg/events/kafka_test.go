package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutocart/user-service/pkg/config"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, "users")

	userID := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := NewUserRegistered(userID, "a@x.com", "CUSTOMER", at)
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, userID.String(), string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "user.registered", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "user.registered", decoded["type"])
	assert.Equal(t, "a@x.com", decoded["email"])
	assert.Equal(t, userID.String(), decoded["user_id"])
	assert.NotEmpty(t, decoded["event_id"])
	assert.NotContains(t, decoded, "password")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWrapsWriteErrors(t *testing.T) {
	p := newKafkaPublisher(&recordingWriter{err: errors.New("leader not available")}, "users")
	err := p.Publish(context.Background(), NewUserRegistered(uuid.New(), "a@x.com", "CUSTOMER", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Contains(t, err.Error(), "users")
}

func TestNewKafkaPublisherValidatesConfig(t *testing.T) {
	_, err := NewKafkaPublisher(config.KafkaConfig{})
	require.Error(t, err)

	_, err = NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.Error(t, err)

	p, err := NewKafkaPublisher(config.KafkaConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "users",
		Username:     "svc",
		Password:     "secret",
		TLS:          true,
		WriteTimeout: time.Second,
	})
	require.NoError(t, err)

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "users", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, 1, w.BatchSize)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.False(t, w.Async)
	assert.Equal(t, time.Second, w.WriteTimeout)
	require.NoError(t, p.Close())
}
