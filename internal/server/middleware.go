// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/unigo/internal/config"
	appmw "codeberg.org/oliverandrich/unigo/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Pre(appmw.StripTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(cfg))
	e.Use(appmw.Locale())
	e.Use(middleware.Secure())
	if cfg.Server.MaxBodySize > 0 {
		uploadRoute := cfg.Server.APIPrefix + avatarPath
		e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			Skipper: func(c echo.Context) bool {
				return c.Path() == uploadRoute
			},
			Limit: fmt.Sprintf("%dM", cfg.Server.MaxBodySize),
		}))
	}
	e.Use(corsMiddleware(cfg))
}

// avatarBodyLimit caps avatar uploads at the configured image size plus the
// multipart envelope. The exact image size is enforced by the profile service.
func avatarBodyLimit(cfg *config.Config) []echo.MiddlewareFunc {
	if cfg.Avatar.MaxSize <= 0 {
		return nil
	}
	return []echo.MiddlewareFunc{
		middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Avatar.MaxSize+multipartOverheadMB)),
	}
}

// corsMiddleware allows the configured frontend origins with credentials.
func corsMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"},
		AllowCredentials: true,
	})
}

// requestLogger returns middleware that logs requests using slog.
// Health checks and avatar downloads are not logged.
func requestLogger(cfg *config.Config) echo.MiddlewareFunc {
	quiet := []string{cfg.Server.APIPrefix + "/health"}
	if cfg.Avatar.PublicPrefix != "" {
		quiet = append(quiet, cfg.Avatar.PublicPrefix+"/")
	}

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return skipLogging(c.Request().URL.Path, quiet)
		},
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

func skipLogging(path string, quiet []string) bool {
	for _, q := range quiet {
		if path == q || (strings.HasSuffix(q, "/") && strings.HasPrefix(path, q)) {
			return true
		}
	}
	return false
}
