package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
	"github.com/GaboCancellieri/galtec-api/internal/core/port"
	"github.com/GaboCancellieri/galtec-api/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	AccountID string           `json:"account_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes auth.account.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string         `json:"account_id"`
		Username     string         `json:"username"`
		Email        string         `json:"email"`
		Status       string         `json:"status"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Username:     event.Username,
		Email:        event.Email,
		Status:       event.Status,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.account.registered", event.AccountID, event.RegisteredAt, payload)
}

// PublishEmailVerified publishes auth.email.verified events.
func (p *EventPublisher) PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error {
	payload := struct {
		AccountID  string         `json:"account_id"`
		Email      string         `json:"email"`
		VerifiedAt time.Time      `json:"verified_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:  event.AccountID,
		Email:      event.Email,
		VerifiedAt: event.VerifiedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.email.verified", event.AccountID, event.VerifiedAt, payload)
}

// PublishSessionRevoked publishes auth.session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		AccountID string         `json:"account_id"`
		RevokedAt time.Time      `json:"revoked_at"`
		Reason    string         `json:"reason"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		AccountID: event.AccountID,
		RevokedAt: event.RevokedAt.UTC(),
		Reason:    event.Reason,
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.session.revoked", event.AccountID, event.RevokedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
