// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// StripTrailingSlash routes "/auth/login/" like "/auth/login". The path is
// rewritten in place so request bodies survive. Register it with e.Pre.
func StripTrailingSlash() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if path != "/" && strings.HasSuffix(path, "/") {
				req.URL.Path = strings.TrimRight(path, "/")
				if req.URL.Path == "" {
					req.URL.Path = "/"
				}
				req.URL.RawPath = ""
			}
			return next(c)
		}
	}
}
