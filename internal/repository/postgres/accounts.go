package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
	"github.com/GaboCancellieri/galtec-api/internal/repository"
)

const accountsTable = "sonarly.user_accounts"

var accountColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"date_of_birth",
	"verification_code_hash",
	"enable_explicit_content",
	"status",
	"date_joined",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires an account repository backed by any executor
// that satisfies pgExecutor, typically a *pgxpool.Pool.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new account row. Emails are stored lowercased so the
// unique index enforces case-insensitive uniqueness.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	var codeHash any
	if account.VerificationCodeHash != "" {
		codeHash = account.VerificationCodeHash
	}

	stmt, args, err := r.builder.Insert(accountsTable).
		Columns(accountColumns...).
		Values(
			account.ID,
			account.Username,
			strings.ToLower(account.Email),
			account.PasswordHash,
			account.DateOfBirth,
			codeHash,
			account.EnableExplicitContent,
			account.Status,
			account.DateJoined,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	stmt, args, err := r.builder.Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"email": strings.ToLower(email)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// ExistsByUsernameOrEmail reports whether any account already uses the
// supplied username or email.
func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	stmt, args, err := r.builder.Select("1").
		From(accountsTable).
		Where(squirrel.Or{
			squirrel.Eq{"username": username},
			squirrel.Eq{"email": strings.ToLower(email)},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select account existence sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check account existence: %w", err)
	}

	return true, nil
}

// Activate transitions the account to active and drops the consumed
// verification code hash.
func (r *AccountRepository) Activate(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("status", domain.AccountStatusActive).
		Set("verification_code_hash", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build activate account sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("activate account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateExplicitContent persists a recomputed explicit-content eligibility flag.
func (r *AccountRepository) UpdateExplicitContent(ctx context.Context, id string, enabled bool) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("enable_explicit_content", enabled).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update explicit content sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update explicit content: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account  domain.Account
		codeHash sql.NullString
		status   string
	)

	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.DateOfBirth,
		&codeHash,
		&account.EnableExplicitContent,
		&status,
		&account.DateJoined,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	account.Status = domain.AccountStatus(status)
	if codeHash.Valid {
		account.VerificationCodeHash = codeHash.String
	}

	return &account, nil
}
