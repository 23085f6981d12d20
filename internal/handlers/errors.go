// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/unigo/internal/i18n"
	"codeberg.org/oliverandrich/unigo/internal/services/auth"
	"codeberg.org/oliverandrich/unigo/internal/services/ledger"
	"codeberg.org/oliverandrich/unigo/internal/services/profile"
	"codeberg.org/oliverandrich/unigo/internal/services/token"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

type errorMapping struct {
	err       error
	status    int
	messageID string
}

var errorMappings = []errorMapping{
	{auth.ErrDomainNotAllowed, http.StatusBadRequest, "error_domain_not_allowed"},
	{auth.ErrAccountExists, http.StatusBadRequest, "error_account_exists"},
	{ledger.ErrNoPendingCode, http.StatusBadRequest, "error_no_pending_code"},
	{ledger.ErrCodeExpired, http.StatusBadRequest, "error_code_expired"},
	{ledger.ErrInvalidCode, http.StatusBadRequest, "error_invalid_code"},
	{auth.ErrAccountNotFound, http.StatusNotFound, "error_account_not_found"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "error_invalid_credentials"},
	{auth.ErrAccountDisabled, http.StatusForbidden, "error_account_disabled"},
	{auth.ErrEmailNotVerified, http.StatusForbidden, "error_email_not_verified"},
	{token.ErrTokenExpired, http.StatusUnauthorized, "error_token_expired"},
	{token.ErrInvalidToken, http.StatusUnauthorized, "error_not_authenticated"},
	{profile.ErrNotFound, http.StatusNotFound, "error_not_found"},
	{profile.ErrUnsupportedContentType, http.StatusBadRequest, "error_unsupported_content_type"},
	{profile.ErrAvatarTooLarge, http.StatusBadRequest, "error_avatar_too_large"},
}

// StatusFor returns the HTTP status and message ID for a service error.
// Unknown errors map to 500.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.messageID
		}
	}
	return http.StatusInternalServerError, "error_internal"
}

// RespondError writes err as a localized JSON error. data fills the
// placeholders of the message template.
func RespondError(c echo.Context, err error, data map[string]any) error {
	ctx := c.Request().Context()

	var missing *profile.MissingFieldsError
	if errors.As(err, &missing) {
		return fieldsError(c, "error_missing_fields", missing.Fields)
	}
	var invalid *profile.InvalidFieldsError
	if errors.As(err, &invalid) {
		return fieldsError(c, "error_invalid_fields", invalid.Fields)
	}

	status, messageID := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "path", c.Path(), "error", err)
	}
	if status == http.StatusUnauthorized && !errors.Is(err, auth.ErrInvalidCredentials) {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	return c.JSON(status, ErrorResponse{Error: i18n.TData(ctx, messageID, data)})
}

// InvalidPayload writes a 400 for a malformed or invalid request body.
func InvalidPayload(c echo.Context, fields ...string) error {
	if len(fields) > 0 {
		return fieldsError(c, "error_invalid_fields", fields)
	}
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: i18n.T(c.Request().Context(), "error_invalid_payload"),
	})
}

func fieldsError(c echo.Context, messageID string, fields []string) error {
	msg := i18n.TData(c.Request().Context(), messageID, map[string]any{
		"Fields": strings.Join(fields, ", "),
	})
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Fields: fields})
}

// HTTPErrorHandler writes errors that escape the handlers, such as echo's
// 404, 405 and 413, in the API error format.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
	}

	var messageID string
	switch {
	case status == http.StatusNotFound:
		messageID = "error_not_found"
	case status == http.StatusMethodNotAllowed:
		messageID = "error_method_not_allowed"
	case status == http.StatusRequestEntityTooLarge:
		messageID = "error_request_too_large"
	case status >= http.StatusInternalServerError:
		messageID = "error_internal"
		slog.ErrorContext(c.Request().Context(), "unhandled error", "path", c.Path(), "error", err)
	default:
		messageID = "error_invalid_payload"
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Error: translate(c, messageID)})
	}
	if writeErr != nil {
		slog.ErrorContext(c.Request().Context(), "write error response", "error", writeErr)
	}
}

func translate(c echo.Context, messageID string) string {
	return i18n.T(c.Request().Context(), messageID)
}
