package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
	"github.com/GaboCancellieri/galtec-api/internal/core/port"
	"github.com/GaboCancellieri/galtec-api/internal/infra/email"
	"github.com/GaboCancellieri/galtec-api/internal/infra/logger"
	"github.com/GaboCancellieri/galtec-api/internal/infra/security"
	"github.com/GaboCancellieri/galtec-api/internal/repository"
)

const (
	verificationCodeLength = 10
	dispatchTimeout        = 10 * time.Second
)

var (
	// ErrInvalidInput indicates a request field failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials indicates the email/password pair does not
	// authenticate. Malformed and merely wrong credentials produce the same
	// error so responses cannot be used to probe the password policy.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound indicates no account exists for the given identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateAccount indicates the username or email is already taken.
	ErrDuplicateAccount = errors.New("username or email already registered")
	// ErrAccountNotActive indicates the account exists but may not log in.
	ErrAccountNotActive = errors.New("account is not active")
	// ErrNotVerifiable indicates the account is not awaiting email verification.
	ErrNotVerifiable = errors.New("account is not awaiting verification")
	// ErrInvalidVerificationCode indicates the supplied code does not match.
	ErrInvalidVerificationCode = errors.New("verification code invalid")
	// ErrRefreshTokenRevoked indicates the refresh token is absent from the
	// store: consumed by rotation, invalidated by logout, or never issued.
	ErrRefreshTokenRevoked = errors.New("refresh token revoked or unknown")
	// ErrRefreshTokenInvalid indicates the refresh token failed signature
	// verification.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
)

// TokenPair bundles the credentials returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DateOfBirth time.Time
}

// AccountService implements the account lifecycle: registration, login,
// logout, refresh rotation, and email verification.
type AccountService struct {
	accounts port.AccountRepository
	tokens   port.RefreshTokenRepository
	issuer   *security.TokenIssuer
	emails   port.EmailSender
	events   port.EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewAccountService constructs the account lifecycle service.
func NewAccountService(
	accounts port.AccountRepository,
	tokens port.RefreshTokenRepository,
	issuer *security.TokenIssuer,
	emails port.EmailSender,
	events port.EventPublisher,
	log *zap.Logger,
) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		accounts: accounts,
		tokens:   tokens,
		issuer:   issuer,
		emails:   emails,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// WithClock injects a custom clock (primarily for testing).
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	if now != nil {
		s.now = now
	}
	return s
}

// Register creates a not_verified account and dispatches the verification
// email in the background. Delivery failures are logged, never surfaced to
// the registering client.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if !security.ValidateEmail(in.Email) {
		return nil, fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	if !security.ValidatePassword(in.Password) {
		return nil, fmt.Errorf("%w: password does not meet the policy", ErrInvalidInput)
	}
	now := s.now().UTC()
	if in.DateOfBirth.IsZero() || in.DateOfBirth.After(now) {
		return nil, fmt.Errorf("%w: date of birth is invalid", ErrInvalidInput)
	}

	taken, err := s.accounts.ExistsByUsernameOrEmail(ctx, username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if taken {
		return nil, ErrDuplicateAccount
	}

	code, err := security.RandomCode(verificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	passwordHash, err := security.HashSecret(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	codeHash, err := security.HashSecret(code)
	if err != nil {
		return nil, fmt.Errorf("hash verification code: %w", err)
	}

	account := domain.Account{
		ID:                    uuid.NewString(),
		Username:              username,
		Email:                 strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:          passwordHash,
		DateOfBirth:           in.DateOfBirth,
		VerificationCodeHash:  codeHash,
		EnableExplicitContent: security.IsAdult(in.DateOfBirth, now),
		Status:                domain.AccountStatusNotVerified,
		DateJoined:            now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	go s.dispatchVerification(account, code)

	return &account, nil
}

// dispatchVerification sends the verification email and publishes the
// registration event outside the request lifecycle.
func (s *AccountService) dispatchVerification(account domain.Account, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if s.emails != nil {
		subject, body, err := email.VerificationEmail(account.Username, code)
		if err != nil {
			s.log.Error("render verification email failed",
				zap.String("account_id", account.ID), zap.Error(err))
		} else if err := s.emails.Send(ctx, account.Email, subject, body); err != nil {
			s.log.Error("verification email delivery failed",
				zap.String("account_id", account.ID),
				zap.String("email", logger.MaskEmail(account.Email)),
				zap.Error(err))
		}
	}

	if s.events != nil {
		event := domain.AccountRegisteredEvent{
			AccountID:    account.ID,
			Username:     account.Username,
			Email:        account.Email,
			Status:       string(account.Status),
			RegisteredAt: account.DateJoined,
		}
		if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
			s.log.Error("publish account registered failed",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}
}

// Login authenticates the credentials, refreshes the explicit-content
// eligibility flag, and issues a new token pair.
func (s *AccountService) Login(ctx context.Context, emailAddr, password string) (TokenPair, error) {
	var zero TokenPair
	if !security.ValidateEmail(emailAddr) || !security.ValidatePassword(password) {
		return zero, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, ErrAccountNotFound
		}
		return zero, fmt.Errorf("load account: %w", err)
	}

	if !security.VerifySecret(password, account.PasswordHash) {
		return zero, ErrInvalidCredentials
	}
	if !account.CanLogin() {
		return zero, ErrAccountNotActive
	}

	explicit := security.IsAdult(account.DateOfBirth, s.now().UTC())
	if explicit != account.EnableExplicitContent {
		if err := s.accounts.UpdateExplicitContent(ctx, account.ID, explicit); err != nil {
			s.log.Warn("persist explicit content flag failed",
				zap.String("account_id", account.ID), zap.Error(err))
		}
		account.EnableExplicitContent = explicit
	}

	return s.issuePair(ctx, account)
}

// Logout invalidates the presented refresh token. Unknown tokens succeed so
// the operation stays idempotent.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}

	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if s.events != nil {
		event := domain.SessionRevokedEvent{
			RevokedAt: s.now().UTC(),
			Reason:    "logout",
		}
		if claims, err := s.issuer.ParseRefreshToken(refreshToken); err == nil {
			event.AccountID = claims.AccountID
		}
		if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
			s.log.Warn("publish session revoked failed", zap.Error(err))
		}
	}

	return nil
}

// Refresh rotates the presented refresh token: the old record is consumed
// and a fresh pair is issued. A token that is absent from the store fails
// even when its signature verifies.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var zero TokenPair
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return zero, fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}

	claims, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return zero, ErrRefreshTokenInvalid
	}

	record, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, ErrRefreshTokenRevoked
		}
		return zero, fmt.Errorf("load refresh token: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, ErrRefreshTokenRevoked
		}
		return zero, fmt.Errorf("load account: %w", err)
	}
	if !account.CanLogin() {
		return zero, ErrRefreshTokenRevoked
	}

	accessToken, nextRefresh, err := s.signPair(account)
	if err != nil {
		return zero, err
	}

	next := domain.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Token:     nextRefresh,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tokens.Rotate(ctx, record.ID, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Another request consumed the token first.
			return zero, ErrRefreshTokenRevoked
		}
		return zero, fmt.Errorf("rotate refresh token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: nextRefresh}, nil
}

// VerifyEmail redeems a verification code, activates the account, and
// returns a fresh access token so the client can proceed without logging in
// again.
func (s *AccountService) VerifyEmail(ctx context.Context, emailAddr, code string) (string, error) {
	if !security.ValidateEmail(emailAddr) {
		return "", fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: verification code is required", ErrInvalidInput)
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("load account: %w", err)
	}

	if !account.IsVerifiable() {
		return "", ErrNotVerifiable
	}
	if !security.VerifySecret(code, account.VerificationCodeHash) {
		return "", ErrInvalidVerificationCode
	}

	if err := s.accounts.Activate(ctx, account.ID); err != nil {
		return "", fmt.Errorf("activate account: %w", err)
	}
	account.Activate()

	accessToken, err := s.issuer.IssueAccessToken(s.claimsFor(account))
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	if s.events != nil {
		event := domain.EmailVerifiedEvent{
			AccountID:  account.ID,
			Email:      account.Email,
			VerifiedAt: s.now().UTC(),
		}
		if err := s.events.PublishEmailVerified(ctx, event); err != nil {
			s.log.Warn("publish email verified failed",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return accessToken, nil
}

// GetAccount loads an account by identifier for profile-style reads.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// ParseAccessToken validates a bearer access token for the HTTP gate.
func (s *AccountService) ParseAccessToken(token string) (*security.Claims, error) {
	return s.issuer.ParseAccessToken(token)
}

func (s *AccountService) claimsFor(account *domain.Account) security.Claims {
	return security.Claims{
		AccountID:             account.ID,
		Email:                 account.Email,
		Status:                string(account.Status),
		EnableExplicitContent: account.EnableExplicitContent,
	}
}

func (s *AccountService) signPair(account *domain.Account) (access, refresh string, err error) {
	claims := s.claimsFor(account)

	access, err = s.issuer.IssueAccessToken(claims)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, err = s.issuer.IssueRefreshToken(claims)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}

	return access, refresh, nil
}

func (s *AccountService) issuePair(ctx context.Context, account *domain.Account) (TokenPair, error) {
	var zero TokenPair

	access, refresh, err := s.signPair(account)
	if err != nil {
		return zero, err
	}

	record := domain.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Token:     refresh,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tokens.Save(ctx, record); err != nil {
		return zero, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
