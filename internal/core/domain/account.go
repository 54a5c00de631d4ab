package domain

import "time"

// AccountStatus enumerates possible account states.
type AccountStatus string

const (
	AccountStatusNotVerified AccountStatus = "not_verified"
	AccountStatusActive      AccountStatus = "active"
	AccountStatusBanned      AccountStatus = "banned"
	AccountStatusInRevision  AccountStatus = "in_revision"
)

// Account mirrors the persisted representation in the user_accounts table.
type Account struct {
	ID                    string
	Username              string
	Email                 string
	PasswordHash          string
	DateOfBirth           time.Time
	VerificationCodeHash  string
	EnableExplicitContent bool
	Status                AccountStatus
	DateJoined            time.Time
}

// CanLogin reports whether the account may receive new sessions.
// Only verified, non-banned accounts pass.
func (a Account) CanLogin() bool {
	return a.Status == AccountStatusActive
}

// IsVerifiable reports whether the account can still redeem an email
// verification code. Activation is the only transition out of this state.
func (a Account) IsVerifiable() bool {
	return a.Status == AccountStatusNotVerified
}

// Activate moves the account out of the not_verified state and drops the
// consumed verification code. Returns true when the state changed.
func (a *Account) Activate() bool {
	if a.Status != AccountStatusNotVerified {
		return false
	}
	a.Status = AccountStatusActive
	a.VerificationCodeHash = ""
	return true
}
