package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
	"github.com/GaboCancellieri/galtec-api/internal/repository"
)

func TestRefreshTokenRepository_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	token := domain.RefreshToken{
		ID:        "token-1",
		AccountID: "acc-1",
		Token:     "signed.jwt.value",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO sonarly\.refresh_tokens`).
		WithArgs(token.ID, token.AccountID, token.Token, token.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Save(context.Background(), token); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_SaveDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	mock.ExpectExec(`INSERT INTO sonarly\.refresh_tokens`).
		WithArgs("token-1", "acc-1", "signed.jwt.value", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err = repo.Save(context.Background(), domain.RefreshToken{
		ID:        "token-1",
		AccountID: "acc-1",
		Token:     "signed.jwt.value",
		CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("Save with colliding token = %v, want ErrDuplicate", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_GetByToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "account_id", "token", "created_at"}).
		AddRow("token-1", "acc-1", "signed.jwt.value", createdAt)

	mock.ExpectQuery(`SELECT .*FROM sonarly\.refresh_tokens`).
		WithArgs("signed.jwt.value").
		WillReturnRows(rows)

	record, err := repo.GetByToken(context.Background(), "signed.jwt.value")
	if err != nil {
		t.Fatalf("GetByToken returned error: %v", err)
	}
	if record.ID != "token-1" || record.AccountID != "acc-1" {
		t.Fatalf("unexpected record: %+v", record)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_GetByTokenNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM sonarly\.refresh_tokens`).
		WithArgs("unknown").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByToken(context.Background(), "unknown"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByToken for absent token = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_DeleteByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	mock.ExpectExec(`DELETE FROM sonarly\.refresh_tokens`).
		WithArgs("token-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.DeleteByID(context.Background(), "token-1"); err != nil {
		t.Fatalf("DeleteByID returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_DeleteByIDAlreadyConsumed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	mock.ExpectExec(`DELETE FROM sonarly\.refresh_tokens`).
		WithArgs("token-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.DeleteByID(context.Background(), "token-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("DeleteByID on consumed token = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_DeleteByTokenIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	mock.ExpectExec(`DELETE FROM sonarly\.refresh_tokens`).
		WithArgs("absent").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.DeleteByToken(context.Background(), "absent"); err != nil {
		t.Fatalf("DeleteByToken for absent token returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	next := domain.RefreshToken{
		ID:        "token-2",
		AccountID: "acc-1",
		Token:     "next.jwt.value",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sonarly\.refresh_tokens`).
		WithArgs("token-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO sonarly\.refresh_tokens`).
		WithArgs(next.ID, next.AccountID, next.Token, next.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Rotate(context.Background(), "token-1", next); err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_RotateConsumedRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRefreshTokenRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sonarly\.refresh_tokens`).
		WithArgs("token-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	next := domain.RefreshToken{
		ID:        "token-2",
		AccountID: "acc-1",
		Token:     "next.jwt.value",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Rotate(context.Background(), "token-1", next); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Rotate on consumed token = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
