package adapter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPEventPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	publisher := &AMQPEventPublisher{channel: ch, exchange: "movie_quiz.events", now: func() time.Time { return fixed }}

	err := publisher.Publish("question.answered", map[string]interface{}{"username": "alice", "movie_id": 7})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{"movie_quiz.events/question.answered"}, ch.keys)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var envelope struct {
		Type      string                 `json:"type"`
		Payload   map[string]interface{} `json:"payload"`
		Timestamp time.Time              `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &envelope))
	assert.Equal(t, "question.answered", envelope.Type)
	assert.Equal(t, "alice", envelope.Payload["username"])
	assert.True(t, fixed.Equal(envelope.Timestamp))

	publisher.Close()
	assert.True(t, ch.closed)
}

func TestAMQPEventPublisher_PublishError(t *testing.T) {
	brokerErr := errors.New("channel closed")
	publisher := &AMQPEventPublisher{channel: &fakeChannel{err: brokerErr}, exchange: "x", now: time.Now}

	err := publisher.Publish("tour.generated", nil)
	assert.ErrorIs(t, err, brokerErr)

	err = publisher.Publish("tour.generated", make(chan int))
	assert.Error(t, err)
}
