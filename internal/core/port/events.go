package port

import (
	"context"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
)

// EventPublisher publishes account lifecycle events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
}
