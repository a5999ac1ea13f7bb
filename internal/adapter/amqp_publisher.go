package adapter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
)

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// eventEnvelope is the JSON body of every published message
type eventEnvelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// AMQPEventPublisher publishes events to a topic exchange using the event
// type as the routing key.
type AMQPEventPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	now      func() time.Time
}

func NewAMQPEventPublisher(amqpURL, exchange string) (*AMQPEventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPEventPublisher{conn: conn, channel: ch, exchange: exchange, now: time.Now}, nil
}

func (p *AMQPEventPublisher) Publish(eventType string, payload interface{}) error {
	body, err := json.Marshal(eventEnvelope{Type: eventType, Payload: payload, Timestamp: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	logger.Get().Debug("Publishing event", zap.String("type", eventType), zap.String("exchange", p.exchange))

	err = p.channel.Publish(p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func (p *AMQPEventPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// LogEventPublisher only logs events. It is used when no broker is configured.
type LogEventPublisher struct{}

func NewLogEventPublisher() domain.EventPublisher {
	return LogEventPublisher{}
}

func (LogEventPublisher) Publish(eventType string, payload interface{}) error {
	logger.Get().Info("Event", zap.String("type", eventType), zap.Any("payload", payload))
	return nil
}

func (LogEventPublisher) Close() {}
