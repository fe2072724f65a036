package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishEvent_WritesJSON(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &Producer{writer: w}

	ev := NewEvent("blog.created", 7, "alice", map[string]string{"title": "Hi"})
	require.NoError(t, p.PublishEvent(context.Background(), TopicContentEvents, "7", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicContentEvents, msg.Topic)
	assert.Equal(t, "7", string(msg.Key))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "blog.created", got.Type)
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, "alice", got.Actor)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEvent_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}}
	err := p.PublishEvent(context.Background(), TopicUserEvents, "1", Event{})
	require.ErrorIs(t, err, boom)

	err = p.PublishEvent(context.Background(), TopicUserEvents, "1", func() {})
	require.Error(t, err)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(nil)
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
