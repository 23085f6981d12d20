// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// DefaultSecretKey is the development signing secret. Startup warns when it is in use.
const DefaultSecretKey = "change-me"

// Mail drivers.
const (
	MailDriverSMTP   = "smtp"   // wneessen/go-mail
	MailDriverGomail = "gomail" // gopkg.in/gomail.v2
	MailDriverLog    = "log"    // log the code instead of sending it
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
	Avatar   AvatarConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host          string
	Port          int
	MaxBodySize   int    // in MB
	APIPrefix     string // mounted in front of every API route, e.g. "/api"
	CORSOrigins   []string
	DefaultLocale string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string // SQLite path or postgres:// URL
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	SecretKey           string
	TokenIssuer         string
	AccessTokenTTL      time.Duration
	EmailCodeTTL        time.Duration
	AllowedEmailDomains []string // empty permits every domain
}

type MailConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Driver   string // smtp, gomail, log
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
	Timeout  time.Duration
}

type AvatarConfig struct {
	Dir          string
	PublicPrefix string
	MaxSize      int // in MB
}

func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		Server: ServerConfig{
			Host:          cmd.String("host"),
			Port:          int(cmd.Int("port")),
			MaxBodySize:   int(cmd.Int("max-body-size")),
			APIPrefix:     normalizePrefix(cmd.String("api-prefix")),
			CORSOrigins:   cmd.StringSlice("cors-origins"),
			DefaultLocale: cmd.String("default-locale"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Auth: AuthConfig{
			SecretKey:           cmd.String("secret-key"),
			TokenIssuer:         cmd.String("token-issuer"),
			AccessTokenTTL:      time.Duration(cmd.Int("access-token-expire-minutes")) * time.Minute,
			EmailCodeTTL:        time.Duration(cmd.Int("email-code-expire-minutes")) * time.Minute,
			AllowedEmailDomains: ParseDomains(cmd.String("allowed-email-domains")),
		},
		Mail: MailConfig{
			Driver:   strings.ToLower(cmd.String("mail-driver")),
			Host:     cmd.String("mail-host"),
			Port:     int(cmd.Int("mail-port")),
			Username: cmd.String("mail-username"),
			Password: cmd.String("mail-password"),
			From:     cmd.String("mail-from"),
			FromName: cmd.String("mail-from-name"),
			TLS:      cmd.Bool("mail-tls"),
			Timeout:  time.Duration(cmd.Int("mail-timeout")) * time.Second,
		},
		Avatar: AvatarConfig{
			Dir:          cmd.String("avatar-dir"),
			PublicPrefix: normalizePrefix(cmd.String("avatar-public-prefix")),
			MaxSize:      int(cmd.Int("avatar-max-size")),
		},
	}
}

// Validate reports configuration errors that would make the server unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token lifetime must be positive"))
	}
	if c.Auth.EmailCodeTTL <= 0 {
		errs = append(errs, errors.New("email code lifetime must be positive"))
	}
	switch c.Mail.Driver {
	case MailDriverSMTP, MailDriverGomail, MailDriverLog:
	default:
		errs = append(errs, fmt.Errorf("unknown mail driver: %q", c.Mail.Driver))
	}
	if c.Avatar.Dir == "" {
		errs = append(errs, errors.New("avatar directory is required"))
	}
	return errors.Join(errs...)
}

// ParseDomains parses the allowed email domains setting. It accepts either a
// JSON array string (`["ugr.es", "correo.ugr.es"]`) or a comma separated list.
// Entries are trimmed, lowercased and stripped of a leading "@".
func ParseDomains(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var items []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			items = strings.Split(strings.Trim(raw, "[]"), ",")
		}
	} else {
		items = strings.Split(raw, ",")
	}

	domains := make([]string, 0, len(items))
	for _, item := range items {
		d := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(item), `"'`)))
		d = strings.TrimPrefix(d, "@")
		if d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		return nil
	}
	return domains
}

// normalizePrefix returns "" or a path starting with "/" and without trailing slash.
func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// sources chains environment variables with a key of the TOML config file.
func sources(tomlKey string, envKeys ...string) cli.ValueSourceChain {
	srcs := make([]cli.ValueSource, 0, len(envKeys)+1)
	for _, k := range envKeys {
		srcs = append(srcs, cli.EnvVar(k))
	}
	srcs = append(srcs, toml.TOML(tomlKey, configFile))
	return cli.NewValueSourceChain(srcs...)
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources("server.host", "HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8000,
			Usage:   "Port to listen on",
			Sources: sources("server.port", "PORT"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum JSON request body size in MB",
			Sources: sources("server.max_body_size", "MAX_BODY_SIZE"),
		},
		&cli.StringFlag{
			Name:    "api-prefix",
			Usage:   "Path prefix for all API routes (e.g. /api)",
			Sources: sources("server.api_prefix", "API_PREFIX"),
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Value:   []string{"http://localhost:3001"},
			Usage:   "Allowed CORS origins",
			Sources: sources("server.cors_origins", "CORS_ORIGINS"),
		},
		&cli.StringFlag{
			Name:    "default-locale",
			Value:   "es",
			Usage:   "Locale used when the client sends no Accept-Language header (es, en)",
			Sources: sources("server.default_locale", "DEFAULT_LOCALE"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources("log.level", "LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources("log.format", "LOG_FORMAT"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/unigo.db",
			Usage:   "Database DSN (SQLite path or postgres:// URL)",
			Sources: sources("database.dsn", "DATABASE_DSN", "DATABASE_URL"),
		},
		// Auth flags
		&cli.StringFlag{
			Name:    "secret-key",
			Value:   DefaultSecretKey,
			Usage:   "Secret used to sign access tokens",
			Sources: sources("auth.secret_key", "SECRET_KEY"),
		},
		&cli.StringFlag{
			Name:    "token-issuer",
			Value:   "unigo",
			Usage:   "Issuer claim of access tokens",
			Sources: sources("auth.token_issuer", "TOKEN_ISSUER"),
		},
		&cli.IntFlag{
			Name:    "access-token-expire-minutes",
			Value:   60,
			Usage:   "Access token lifetime in minutes",
			Sources: sources("auth.access_token_expire_minutes", "ACCESS_TOKEN_EXPIRE_MINUTES"),
		},
		&cli.IntFlag{
			Name:    "email-code-expire-minutes",
			Value:   15,
			Usage:   "Verification code lifetime in minutes",
			Sources: sources("auth.email_code_expire_minutes", "EMAIL_CODE_EXPIRE_MINUTES"),
		},
		&cli.StringFlag{
			Name:    "allowed-email-domains",
			Usage:   "Allowed email domains, CSV or JSON array (empty allows all)",
			Sources: sources("auth.allowed_email_domains", "ALLOWED_EMAIL_DOMAINS"),
		},
		// Mail flags
		&cli.StringFlag{
			Name:    "mail-driver",
			Value:   MailDriverSMTP,
			Usage:   "Mail driver (smtp, gomail, log)",
			Sources: sources("mail.driver", "MAIL_DRIVER"),
		},
		&cli.StringFlag{
			Name:    "mail-host",
			Value:   "127.0.0.1",
			Usage:   "SMTP host",
			Sources: sources("mail.host", "MAIL_HOST", "MAIL_SERVER"),
		},
		&cli.IntFlag{
			Name:    "mail-port",
			Value:   1025,
			Usage:   "SMTP port",
			Sources: sources("mail.port", "MAIL_PORT"),
		},
		&cli.StringFlag{
			Name:    "mail-username",
			Usage:   "SMTP username",
			Sources: sources("mail.username", "MAIL_USERNAME"),
		},
		&cli.StringFlag{
			Name:    "mail-password",
			Usage:   "SMTP password",
			Sources: sources("mail.password", "MAIL_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "mail-from",
			Value:   "no-reply@unigo.local",
			Usage:   "Sender address of outgoing mail",
			Sources: sources("mail.from", "MAIL_FROM"),
		},
		&cli.StringFlag{
			Name:    "mail-from-name",
			Value:   "UniGo",
			Usage:   "Sender display name of outgoing mail",
			Sources: sources("mail.from_name", "MAIL_FROM_NAME"),
		},
		&cli.BoolFlag{
			Name:    "mail-tls",
			Usage:   "Require TLS for SMTP (implicit TLS on port 465, STARTTLS otherwise)",
			Sources: sources("mail.tls", "MAIL_TLS"),
		},
		&cli.IntFlag{
			Name:    "mail-timeout",
			Value:   10,
			Usage:   "Timeout in seconds for sending one mail",
			Sources: sources("mail.timeout", "MAIL_TIMEOUT"),
		},
		// Avatar flags
		&cli.StringFlag{
			Name:    "avatar-dir",
			Value:   "data/avatars",
			Usage:   "Directory where uploaded avatars are stored",
			Sources: sources("avatar.dir", "AVATAR_DIR"),
		},
		&cli.StringFlag{
			Name:    "avatar-public-prefix",
			Value:   "/static/avatars",
			Usage:   "Public URL prefix under which avatars are served",
			Sources: sources("avatar.public_prefix", "AVATAR_PUBLIC_PREFIX"),
		},
		&cli.IntFlag{
			Name:    "avatar-max-size",
			Value:   5,
			Usage:   "Maximum avatar upload size in MB",
			Sources: sources("avatar.max_size", "AVATAR_MAX_SIZE"),
		},
	}
}
