// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/unigo/internal/auth"
	"codeberg.org/oliverandrich/unigo/internal/services/profile"
	"codeberg.org/oliverandrich/unigo/internal/services/token"
	"github.com/labstack/echo/v4"
)

// avatarField is the multipart form field carrying the image.
const avatarField = "file"

// ProfileHandlers contains handlers for the profile of the current user.
type ProfileHandlers struct {
	profiles *profile.Service
}

// NewProfile creates a new ProfileHandlers instance.
func NewProfile(svc *profile.Service) *ProfileHandlers {
	return &ProfileHandlers{profiles: svc}
}

// Get returns the profile of the authenticated user.
func (h *ProfileHandlers) Get(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return RespondError(c, token.ErrInvalidToken, nil)
	}

	p, err := h.profiles.Get(c.Request().Context(), user.ID)
	if err != nil {
		return RespondError(c, err, nil)
	}
	return c.JSON(http.StatusOK, p)
}

// Update replaces the profile of the authenticated user.
func (h *ProfileHandlers) Update(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return RespondError(c, token.ErrInvalidToken, nil)
	}

	var req profile.Update
	if err := c.Bind(&req); err != nil {
		return InvalidPayload(c)
	}

	p, err := h.profiles.Update(c.Request().Context(), user.ID, req)
	if err != nil {
		return RespondError(c, err, nil)
	}
	return c.JSON(http.StatusOK, p)
}

// UploadAvatar stores the uploaded PNG or JPEG as the user's avatar.
func (h *ProfileHandlers) UploadAvatar(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return RespondError(c, token.ErrInvalidToken, nil)
	}

	fh, err := c.FormFile(avatarField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: translate(c, "error_avatar_missing"),
			})
		}
		return InvalidPayload(c)
	}

	f, err := fh.Open()
	if err != nil {
		return RespondError(c, err, nil)
	}
	defer func() {
		_ = f.Close()
	}()

	p, err := h.profiles.UploadAvatar(c.Request().Context(), user.ID, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return RespondError(c, err, nil)
	}
	return c.JSON(http.StatusOK, p)
}
