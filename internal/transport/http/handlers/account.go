package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GaboCancellieri/galtec-api/internal/transport/http/middleware"
	"github.com/GaboCancellieri/galtec-api/internal/usecase"
)

const dateOfBirthLayout = "2006-01-02"

// AccountHandler exposes the account lifecycle endpoints.
type AccountHandler struct {
	accounts *usecase.AccountService
	logger   *zap.Logger
}

// NewAccountHandler creates an account handler backed by the account service.
func NewAccountHandler(accounts *usecase.AccountService, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// Register handles POST /userAccount/register.
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request body"))
		return
	}

	dob, err := time.Parse(dateOfBirthLayout, req.DateOfBirth)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid date of birth, expected YYYY-MM-DD"))
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), usecase.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: dob,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "Invalid registration data"},
			{Err: usecase.ErrDuplicateAccount, Status: http.StatusConflict, Message: "Username or email already in use"},
		}, http.StatusInternalServerError, "Registration failed")
		return
	}

	// The account itself is not exposed until the client authenticates.
	c.JSON(http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("User %s created successfully.", account.Email),
	})
}

// Login handles POST /userAccount/login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request body"))
		return
	}

	pair, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusBadRequest, Message: "Invalid email or password"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "Account not found"},
			{Err: usecase.ErrAccountNotActive, Status: http.StatusForbidden, Message: "Account is not active"},
		}, http.StatusInternalServerError, "Login failed")
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout handles POST /userAccount/logout. The refresh token travels as a bearer credential.
func (h *AccountHandler) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing refresh token"))
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "Missing refresh token"},
		}, http.StatusInternalServerError, "Logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// Refresh handles POST /userAccount/refresh. Rotates the presented refresh token.
func (h *AccountHandler) Refresh(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing refresh token"))
		return
	}

	pair, err := h.accounts.Refresh(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRefreshTokenInvalid, Status: http.StatusUnauthorized, Message: "Invalid refresh token"},
			{Err: usecase.ErrRefreshTokenRevoked, Status: http.StatusBadRequest, Message: "Refresh token is no longer valid"},
		}, http.StatusInternalServerError, "Token refresh failed")
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// VerifyEmail handles POST /userAccount/verify-email.
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request body"))
		return
	}

	accessToken, err := h.accounts.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "Invalid verification data"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "Account not found"},
			{Err: usecase.ErrNotVerifiable, Status: http.StatusBadRequest, Message: "Account cannot be verified"},
			{Err: usecase.ErrInvalidVerificationCode, Status: http.StatusBadRequest, Message: "Invalid verification code"},
		}, http.StatusInternalServerError, "Verification failed")
		return
	}

	c.JSON(http.StatusOK, AccessTokenResponse{AccessToken: accessToken})
}

// Me handles GET /userAccount/me for the authenticated account.
func (h *AccountHandler) Me(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "Authentication required"))
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "Account not found"},
		}, http.StatusInternalServerError, "Failed to load account")
		return
	}

	c.JSON(http.StatusOK, NewAccountSummary(account))
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}
