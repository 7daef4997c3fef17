// Package telemetry emits audit records and configures tracing.
package telemetry

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"tutoring-service/internal/logging"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const (
	auditSchemaVersion = 2
	auditEventType     = "audit_log"
)

// Record is one state change made on behalf of a caller, such as
// Action "class.created" on Subject "<class id>".
type Record struct {
	Level     Level
	Action    string
	Subject   string
	RequestID string
	UserID    *string
}

func (r Record) text() string {
	return strings.TrimSpace(strings.ReplaceAll(r.Action, ".", " ") + " " + r.Subject)
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TraceID       string       `json:"trace_id,omitempty"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level   Level  `json:"level"`
	Action  string `json:"action"`
	Subject string `json:"subject,omitempty"`
	Text    string `json:"text"`
}

// AuditEmitter turns Records into envelopes on the audit routing key.
// A nil emitter is valid and drops everything.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
	log         zerolog.Logger
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
		log:         logging.With("audit"),
	}
}

func (e *AuditEmitter) envelope(ctx context.Context, rec Record) AuditEnvelope {
	env := AuditEnvelope{
		SchemaVersion: auditSchemaVersion,
		EventType:     auditEventType,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     rec.RequestID,
		UserID:        rec.UserID,
		Payload: AuditPayload{
			Level:   rec.Level,
			Action:  rec.Action,
			Subject: rec.Subject,
			Text:    rec.text(),
		},
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}
	if env.Payload.Level == "" {
		env.Payload.Level = LevelInfo
	}
	return env
}

// Emit publishes rec. Publish failures are logged and never reach the caller.
func (e *AuditEmitter) Emit(ctx context.Context, rec Record) {
	if e == nil || e.publisher == nil {
		return
	}

	env := e.envelope(ctx, rec)
	e.log.Debug().
		Str("action", rec.Action).
		Str("subject", rec.Subject).
		Str("request_id", rec.RequestID).
		Str("trace_id", env.TraceID).
		Msg("audit")

	if err := e.publisher.Publish(ctx, e.routingKey, env); err != nil {
		e.log.Warn().Err(err).Str("routing_key", e.routingKey).Str("action", rec.Action).Msg("audit publish failed")
	}
}
