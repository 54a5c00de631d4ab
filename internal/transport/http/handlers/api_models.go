package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GaboCancellieri/galtec-api/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports liveness information.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports readiness of downstream dependencies.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// AccountSummary describes the client-facing view of an account.
type AccountSummary struct {
	ID                    string               `json:"id"`
	Username              string               `json:"username"`
	Email                 string               `json:"email"`
	Status                domain.AccountStatus `json:"status"`
	EnableExplicitContent bool                 `json:"enableExplicitContent"`
	DateJoined            time.Time            `json:"dateJoined"`
}

// NewAccountSummary projects a domain account into its API representation.
func NewAccountSummary(account *domain.Account) AccountSummary {
	return AccountSummary{
		ID:                    account.ID,
		Username:              account.Username,
		Email:                 account.Email,
		Status:                account.Status,
		EnableExplicitContent: account.EnableExplicitContent,
		DateJoined:            account.DateJoined,
	}
}

// RegisterRequest defines the payload for account registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// VerifyEmailRequest defines the payload for verification code redemption.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// TokenPairResponse carries a freshly issued access/refresh token pair.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AccessTokenResponse carries a standalone access token.
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}
