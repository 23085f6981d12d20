// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestParseDomains(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "ugr.es", []string{"ugr.es"}},
		{"csv", "ugr.es, correo.ugr.es", []string{"ugr.es", "correo.ugr.es"}},
		{"csv with empties", "ugr.es,,", []string{"ugr.es"}},
		{"uppercase", "UGR.ES", []string{"ugr.es"}},
		{"leading at", "@ugr.es", []string{"ugr.es"}},
		{"json array", `["ugr.es", "US.ES"]`, []string{"ugr.es", "us.es"}},
		{"empty json array", `[]`, nil},
		{"broken json falls back to csv", `[ugr.es, us.es]`, []string{"ugr.es", "us.es"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDomains(tt.raw))
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"", ""},
		{"/", ""},
		{"/api", "/api"},
		{"/api/", "/api"},
		{"api", "/api"},
		{"/static/avatars", "/static/avatars"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePrefix(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Auth: AuthConfig{
				SecretKey:      "secret",
				AccessTokenTTL: time.Hour,
				EmailCodeTTL:   15 * time.Minute,
			},
			Mail:   MailConfig{Driver: MailDriverLog},
			Avatar: AvatarConfig{Dir: "data/avatars"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.SecretKey = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("unknown mail driver", func(t *testing.T) {
		cfg := valid()
		cfg.Mail.Driver = "pigeon"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown mail driver")
	})

	t.Run("non positive ttl", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.EmailCodeTTL = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestFlags(t *testing.T) {
	flags := Flags()

	assert.NotEmpty(t, flags)

	flagNames := make(map[string]bool)
	for _, f := range flags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{
		"host", "port", "log-level", "database-dsn", "secret-key",
		"access-token-expire-minutes", "email-code-expire-minutes",
		"allowed-email-domains", "mail-driver", "avatar-dir", "avatar-public-prefix",
	} {
		assert.True(t, flagNames[name], "should have %s flag", name)
	}
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.NotNil(t, cfg)
			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 8000, cfg.Server.Port)
			assert.Empty(t, cfg.Server.APIPrefix)
			assert.Equal(t, []string{"http://localhost:3001"}, cfg.Server.CORSOrigins)
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, "text", cfg.Log.Format)
			assert.Equal(t, DefaultSecretKey, cfg.Auth.SecretKey)
			assert.Equal(t, 60*time.Minute, cfg.Auth.AccessTokenTTL)
			assert.Equal(t, 15*time.Minute, cfg.Auth.EmailCodeTTL)
			assert.Empty(t, cfg.Auth.AllowedEmailDomains)
			assert.Equal(t, MailDriverSMTP, cfg.Mail.Driver)
			assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
			assert.Equal(t, "/static/avatars", cfg.Avatar.PublicPrefix)
			assert.NoError(t, cfg.Validate())

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "/api", cfg.Server.APIPrefix)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, "./data/test.db", cfg.Database.DSN)
			assert.Equal(t, []string{"ugr.es", "us.es"}, cfg.Auth.AllowedEmailDomains)
			assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
			assert.Equal(t, MailDriverLog, cfg.Mail.Driver)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--api-prefix", "api/",
		"--log-level", "debug",
		"--database-dsn", "./data/test.db",
		"--allowed-email-domains", "ugr.es,us.es",
		"--access-token-expire-minutes", "30",
		"--mail-driver", "LOG",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}

func TestNewFromCLI_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ALLOWED_EMAIL_DOMAINS", `["ugr.es"]`)
	t.Setenv("MAIL_SERVER", "mailhog")

	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, []string{"ugr.es"}, cfg.Auth.AllowedEmailDomains)
			assert.Equal(t, "mailhog", cfg.Mail.Host)

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}
