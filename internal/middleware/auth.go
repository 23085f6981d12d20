// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware holds echo middleware shared by the API routes.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/unigo/internal/auth"
	"codeberg.org/oliverandrich/unigo/internal/i18n"
	"codeberg.org/oliverandrich/unigo/internal/models"
	"codeberg.org/oliverandrich/unigo/internal/services/token"
	"github.com/labstack/echo/v4"
)

// AccountResolver resolves a bearer token to its account.
type AccountResolver interface {
	CurrentAccount(ctx context.Context, bearer string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// RequireAuth rejects requests without a valid bearer token and stores the
// account in the request context otherwise.
func RequireAuth(resolver AccountResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			bearer, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c, "error_not_authenticated")
			}

			user, err := resolver.CurrentAccount(ctx, bearer)
			switch {
			case err == nil:
			case errors.Is(err, token.ErrTokenExpired):
				return unauthorized(c, "error_token_expired")
			case errors.Is(err, token.ErrInvalidToken):
				slog.DebugContext(ctx, "bearer_rejected", "error", err)
				return unauthorized(c, "error_not_authenticated")
			default:
				slog.ErrorContext(ctx, "resolve bearer", "error", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": i18n.T(ctx, "error_internal"),
				})
			}

			c.SetRequest(c.Request().WithContext(auth.SetUser(ctx, user)))
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, messageID string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": i18n.T(c.Request().Context(), messageID),
	})
}
