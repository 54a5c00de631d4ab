package domain

import "time"

// AccountRegisteredEvent represents the payload for auth.account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Username     string
	Email        string
	Status       string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// EmailVerifiedEvent represents the payload for auth.email.verified messages.
type EmailVerifiedEvent struct {
	EventID    string
	AccountID  string
	Email      string
	VerifiedAt time.Time
	Metadata   map[string]any
}

// SessionRevokedEvent represents the payload for auth.session.revoked messages.
type SessionRevokedEvent struct {
	EventID   string
	AccountID string
	RevokedAt time.Time
	Reason    string
	Metadata  map[string]any
}
