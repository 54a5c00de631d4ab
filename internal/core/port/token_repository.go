package port

import (
	"context"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
)

// RefreshTokenRepository manages persisted refresh token records.
//
// Save must refuse to overwrite an existing token value; a duplicate is an
// internal error since token strings are cryptographically unguessable.
// DeleteByToken is idempotent. Rotate consumes the old record and persists
// the replacement atomically, returning repository.ErrNotFound when the old
// record was already consumed.
type RefreshTokenRepository interface {
	Save(ctx context.Context, token domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByToken(ctx context.Context, token string) error
	Rotate(ctx context.Context, oldID string, next domain.RefreshToken) error
}
