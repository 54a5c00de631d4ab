package security

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T, now time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("access-secret-for-tests", "refresh-secret-for-tests", "sonarly")
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}
	return issuer.WithClock(func() time.Time { return now })
}

func testClaims() Claims {
	return Claims{
		AccountID:             "acc-1",
		Email:                 "alice@x.com",
		Status:                "active",
		EnableExplicitContent: true,
	}
}

func TestNewTokenIssuerRejectsSharedSecret(t *testing.T) {
	if _, err := NewTokenIssuer("same", "same", "sonarly"); err == nil {
		t.Fatalf("expected error for identical access and refresh secrets")
	}
	if _, err := NewTokenIssuer("", "refresh", "sonarly"); err == nil {
		t.Fatalf("expected error for empty access secret")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)

	token, err := issuer.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}

	claims, err := issuer.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.AccountID != "acc-1" || claims.Email != "alice@x.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if !claims.EnableExplicitContent {
		t.Errorf("EnableExplicitContent not preserved")
	}
}

func TestAccessTokenExpiresAtNextMidnight(t *testing.T) {
	cases := []struct {
		name    string
		now     time.Time
		wantTTL time.Duration
	}{
		{
			name:    "one second before midnight",
			now:     time.Date(2024, time.March, 10, 23, 59, 59, 0, time.UTC),
			wantTTL: time.Second,
		},
		{
			name:    "one second after midnight",
			now:     time.Date(2024, time.March, 10, 0, 0, 1, 0, time.UTC),
			wantTTL: 86399 * time.Second,
		},
		{
			name:    "midday",
			now:     time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC),
			wantTTL: 12 * time.Hour,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issuer := newTestIssuer(t, tc.now)
			token, err := issuer.IssueAccessToken(testClaims())
			if err != nil {
				t.Fatalf("IssueAccessToken returned error: %v", err)
			}

			claims, err := issuer.ParseAccessToken(token)
			if err != nil {
				t.Fatalf("ParseAccessToken returned error: %v", err)
			}

			ttl := claims.ExpiresAt.Time.Sub(tc.now)
			if ttl != tc.wantTTL {
				t.Errorf("token TTL = %v, want %v", ttl, tc.wantTTL)
			}
		})
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	issued := time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, issued)

	token, err := issuer.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}

	later := issuer.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })
	if _, err := later.ParseAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ParseAccessToken after expiry = %v, want ErrTokenExpired", err)
	}
}

func TestParseDistinguishesExpiredFromInvalid(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)

	token, err := issuer.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}

	other, err := NewTokenIssuer("a-completely-different-secret", "refresh-secret-for-tests", "sonarly")
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}
	if _, err := other.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("foreign-signed token = %v, want ErrTokenInvalid", err)
	}

	if _, err := issuer.ParseAccessToken("garbage.token.value"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("malformed token = %v, want ErrTokenInvalid", err)
	}
	if _, err := issuer.ParseAccessToken(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("empty token = %v, want ErrTokenInvalid", err)
	}
}

func TestRefreshTokenHasNoExpiry(t *testing.T) {
	issued := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, issued)

	token, err := issuer.IssueRefreshToken(testClaims())
	if err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}

	// Still parseable far in the future; store membership governs validity.
	future := issuer.WithClock(func() time.Time { return issued.AddDate(10, 0, 0) })
	claims, err := future.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("ParseRefreshToken returned error: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Errorf("refresh token carries an expiry, want none")
	}
}

func TestTokenSecretsAreDistinct(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)

	refresh, err := issuer.IssueRefreshToken(testClaims())
	if err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}
	if _, err := issuer.ParseAccessToken(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}

	access, err := issuer.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}
	if _, err := issuer.ParseRefreshToken(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}
