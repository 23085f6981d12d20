// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON API endpoints.
package handlers

import (
	"errors"
	"net/http"
	"sort"

	"codeberg.org/oliverandrich/unigo/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

// Handlers contains the service-independent handlers.
type Handlers struct {
	repo *repository.Repository
}

// New creates a new Handlers instance.
func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.DB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// bind decodes the JSON body into req and runs its validation rules.
// It writes the 400 response itself and reports whether handling may go on.
func bind(c echo.Context, req validation.Validatable) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, InvalidPayload(c)
	}
	if err := req.Validate(); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return false, InvalidPayload(c, invalidFields(errs)...)
		}
		return false, InvalidPayload(c)
	}
	return true, nil
}

func invalidFields(errs validation.Errors) []string {
	fields := make([]string, 0, len(errs))
	for name := range errs {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
