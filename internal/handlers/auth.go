// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/unigo/internal/auth"
	authsvc "codeberg.org/oliverandrich/unigo/internal/services/auth"
	"codeberg.org/oliverandrich/unigo/internal/services/token"
	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

const minPasswordLength = 6

// emailFormat checks the address syntax without any DNS lookups.
var emailFormat = validation.NewStringRule(govalidator.IsEmail, "must be a valid email address")

// CodeDispatcher delivers verification codes out of band.
type CodeDispatcher interface {
	Dispatch(ctx context.Context, to, code string)
}

// AuthHandlers contains handlers for registration, verification and login.
type AuthHandlers struct {
	auth *authsvc.Service
	mail CodeDispatcher
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *authsvc.Service, mail CodeDispatcher) *AuthHandlers {
	return &AuthHandlers{
		auth: svc,
		mail: mail,
	}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, emailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, 0)),
	)
}

// VerifyRequest is the request body for email verification.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r VerifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, emailFormat),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6)),
	)
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, emailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AccountResponse is the public view of the authenticated account.
type AccountResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
}

// Register creates an unverified account and mails the verification code.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx := c.Request().Context()
	code, err := h.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return RespondError(c, err, map[string]any{
			"Email":  req.Email,
			"Domain": domainOf(req.Email),
		})
	}

	h.mail.Dispatch(ctx, req.Email, code)
	return c.NoContent(http.StatusNoContent)
}

// Verify consumes a verification code and marks the account verified.
func (h *AuthHandlers) Verify(c echo.Context) error {
	var req VerifyRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := h.auth.VerifyEmail(c.Request().Context(), req.Email, req.Code); err != nil {
		return RespondError(c, err, nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	tok, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return RespondError(c, err, nil)
	}

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   "bearer",
	})
}

// Me returns the authenticated account.
func (h *AuthHandlers) Me(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return RespondError(c, token.ErrInvalidToken, nil)
	}

	return c.JSON(http.StatusOK, AccountResponse{
		ID:         user.ID,
		Email:      user.Email,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
	})
}

func domainOf(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
