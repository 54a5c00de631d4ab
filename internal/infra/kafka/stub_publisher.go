package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
	"github.com/GaboCancellieri/galtec-api/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs auth.account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"account_id":    event.AccountID,
		"username":      event.Username,
		"email":         event.Email,
		"status":        event.Status,
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("auth.account.registered", event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishEmailVerified logs auth.email.verified events.
func (p *StubPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	payload := map[string]any{
		"account_id":  event.AccountID,
		"email":       event.Email,
		"verified_at": event.VerifiedAt,
		"metadata":    event.Metadata,
	}
	p.logEvent("auth.email.verified", event.AccountID, event.VerifiedAt, payload)
	return nil
}

// PublishSessionRevoked logs auth.session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"revoked_at": event.RevokedAt,
		"reason":     event.Reason,
		"metadata":   event.Metadata,
	}
	p.logEvent("auth.session.revoked", event.AccountID, event.RevokedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
