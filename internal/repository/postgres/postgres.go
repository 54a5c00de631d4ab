package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolationCode is the PostgreSQL error code for unique constraint violations.
const uniqueViolationCode = "23505"

// pgExecutor abstracts pgxpool.Pool and pgx.Tx so repositories can run
// inside or outside a transaction.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgBeginner is satisfied by executors that can open transactions.
type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories bundles all PostgreSQL-backed repositories over one pool.
type Repositories struct {
	Accounts *AccountRepository
	Tokens   *RefreshTokenRepository
}

// NewRepositories constructs the repository set for the supplied pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepository(pool),
		Tokens:   NewRefreshTokenRepository(pool),
	}
}
