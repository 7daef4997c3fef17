// Package rabbitmq publishes audit records and websocket events to a topic
// exchange.
package rabbitmq

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/observability"
	"tutoring-service/internal/telemetry"
)

// Publisher serves both the audit emitter and the websocket event stream.
type Publisher interface {
	telemetry.Publisher
	observability.Publisher
}

// NewPublisher connects to amqpURL and declares exchange. When AMQP is not
// configured or unreachable it returns a publisher that only logs, so the
// service still starts.
func NewPublisher(amqpURL, exchange string) Publisher {
	log := logging.With("rabbitmq")
	if amqpURL == "" {
		log.Info().Msg("rabbitmq disabled, using noop: empty amqp url")
		return noopPublisher{reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq disabled, using noop")
		return noopPublisher{reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq disabled, using noop")
		_ = conn.Close()
		return noopPublisher{reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		log.Warn().Err(err).Str("exchange", exchange).Msg("rabbitmq disabled, using noop")
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{reason: err.Error()}
	}

	log.Info().Str("exchange", exchange).Msg("rabbitmq connected")
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	err := p.PublishJSON(ctx, routingKey, event, nil)
	if err != nil {
		observability.IncAMQPPublishError()
	}
	return err
}

func (p *amqpPublisher) PublishJSON(ctx context.Context, routingKey string, message any, headers map[string]string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var table amqp.Table
	if len(headers) > 0 {
		table = make(amqp.Table, len(headers))
		for key, value := range headers {
			table[key] = value
		}
	}

	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      table,
		Body:         body,
	})
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	ev := logging.Ctx(ctx).Debug().Str("component", "rabbitmq").Str("routing_key", routingKey)
	switch envelope := event.(type) {
	case telemetry.AuditEnvelope:
		ev = ev.Str("event_type", envelope.EventType).Str("request_id", envelope.RequestID)
	case *telemetry.AuditEnvelope:
		ev = ev.Str("event_type", envelope.EventType).Str("request_id", envelope.RequestID)
	}
	ev.Msg("rabbitmq noop publish")
	return nil
}

func (noopPublisher) PublishJSON(ctx context.Context, routingKey string, _ any, headers map[string]string) error {
	logging.Ctx(ctx).Debug().
		Str("component", "rabbitmq").
		Str("routing_key", routingKey).
		Str("request_id", headers["x-request-id"]).
		Msg("rabbitmq noop event")
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode reports the publisher mode for logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher, *noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

func PublisherNoopReason(p Publisher) string {
	switch publisher := p.(type) {
	case noopPublisher:
		return publisher.reason
	case *noopPublisher:
		return publisher.reason
	default:
		return ""
	}
}
