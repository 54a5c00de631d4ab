package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// emailPattern is a conservative RFC-5322-like check. Input is lowercased
// before matching, so the pattern only needs lowercase classes.
var emailPattern = regexp.MustCompile(`^[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~.-]+@([a-z0-9-]+\.)+[a-z]{2,}$`)

const (
	passwordMinLength = 10
	passwordSymbols   = "@#$%^&+!="
	codeAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ValidateEmail reports whether the supplied string looks like a deliverable
// email address. Comparison is case-insensitive.
func ValidateEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	return emailPattern.MatchString(email)
}

// ValidatePassword enforces the account password policy: at least 10
// characters with one lowercase, one uppercase, one digit, and one symbol
// from the fixed set, and no characters outside letters/digits/that set.
func ValidatePassword(password string) bool {
	if len(password) < passwordMinLength {
		return false
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		default:
			return false
		}
	}

	return hasLower && hasUpper && hasDigit && hasSymbol
}

// secondsPerYear approximates a calendar year as 365.25 days. Boundary dates
// can therefore differ from exact calendar age by up to a day; the historical
// behavior is preserved deliberately.
const secondsPerYear = 365.25 * 24 * 60 * 60

// IsAdult reports whether the holder of the supplied date of birth has
// reached the age of majority (18 whole years) at the reference time.
func IsAdult(dateOfBirth, now time.Time) bool {
	if dateOfBirth.After(now) {
		return false
	}
	years := now.Sub(dateOfBirth).Seconds() / secondsPerYear
	return int(years) >= 18
}

// RandomCode returns a random alphanumeric string of the given length,
// suitable for one-time email verification codes.
func RandomCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	max := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		out[i] = codeAlphabet[n.Int64()]
	}

	return string(out), nil
}
