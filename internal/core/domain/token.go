package domain

import "time"

// RefreshToken represents a persisted refresh token. Presence of the row is
// the sole source of truth for validity beyond signature checking: a deleted
// row revokes the token even while its signature remains valid.
type RefreshToken struct {
	ID        string
	AccountID string
	Token     string
	CreatedAt time.Time
}
