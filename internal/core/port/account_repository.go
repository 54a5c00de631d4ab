package port

import (
	"context"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
)

// AccountRepository exposes persistence behavior for user accounts.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Activate(ctx context.Context, id string) error
	UpdateExplicitContent(ctx context.Context, id string, enabled bool) error
}
