package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
	"github.com/GaboCancellieri/galtec-api/internal/repository"
)

const refreshTokensTable = "sonarly.refresh_tokens"

// RefreshTokenRepository implements port.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRefreshTokenRepository constructs a refresh token repository backed by
// any executor that satisfies pgExecutor, typically a *pgxpool.Pool.
func NewRefreshTokenRepository(exec pgExecutor) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *RefreshTokenRepository) WithTx(tx pgx.Tx) *RefreshTokenRepository {
	if tx == nil {
		return r
	}
	return &RefreshTokenRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Save inserts a new refresh token record. A duplicate token value is an
// internal error: with a correctly keyed signer a collision should never
// occur, so it must not be silently overwritten.
func (r *RefreshTokenRepository) Save(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.builder.Insert(refreshTokensTable).
		Columns("id", "account_id", "token", "created_at").
		Values(token.ID, token.AccountID, token.Token, token.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("refresh token collision: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetByToken retrieves a refresh token record by its token value.
func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	stmt, args, err := r.builder.Select("id", "account_id", "token", "created_at").
		From(refreshTokensTable).
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	var record domain.RefreshToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&record.ID,
		&record.AccountID,
		&record.Token,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &record, nil
}

// DeleteByID removes a refresh token record by identifier. Deleting a record
// that no longer exists returns repository.ErrNotFound so rotation can detect
// an already-consumed token.
func (r *RefreshTokenRepository) DeleteByID(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete(refreshTokensTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete refresh token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByToken removes a refresh token record by token value. The operation
// is idempotent: deleting an absent token is not an error.
func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	stmt, args, err := r.builder.Delete(refreshTokensTable).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete refresh token by value sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete refresh token by value: %w", err)
	}

	return nil
}

// Rotate consumes the old refresh token record and persists its replacement
// within a single transaction. Once consumed, the old token is never honored
// again even if persisting the replacement fails: the transaction rolls back
// as a unit, so either both records change or neither does.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldID string, next domain.RefreshToken) error {
	beginner, ok := r.exec.(pgBeginner)
	if !ok {
		return fmt.Errorf("rotate requires a transactional executor")
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotation: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txRepo := r.WithTx(tx)
	if err := txRepo.DeleteByID(ctx, oldID); err != nil {
		return err
	}
	if err := txRepo.Save(ctx, next); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}

	return nil
}
