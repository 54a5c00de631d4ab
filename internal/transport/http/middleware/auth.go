package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GaboCancellieri/galtec-api/internal/infra/security"
	"github.com/GaboCancellieri/galtec-api/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth validates the Authorization header and injects the access
// token claims into the gin context. A missing header or a failed token
// check is 401; a header that is present but not a well-formed bearer
// scheme is 403.
func RequireAuth(accounts *usecase.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "missing access token"))
			return
		}

		claims, err := accounts.ParseAccessToken(token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "access token expired"))
			case errors.Is(err, security.ErrTokenInvalid):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid access token"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(AccountIDKey, claims.AccountID)
		c.Set(ClaimsKey, claims)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.AccountID = claims.AccountID
		}

		c.Next()
	}
}

// GetAuthenticatedAccountID retrieves the account ID from context (helper for handlers)
func GetAuthenticatedAccountID(c *gin.Context) (string, bool) {
	accountID, exists := c.Get(AccountIDKey)
	if !exists {
		return "", false
	}

	if id, ok := accountID.(string); ok {
		return id, true
	}

	return "", false
}

// GetClaims retrieves the parsed access token claims from context.
func GetClaims(c *gin.Context) (*security.Claims, bool) {
	val, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*security.Claims)
	return claims, ok
}
