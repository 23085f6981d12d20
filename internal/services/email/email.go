// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers verification codes.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/unigo/internal/config"
	"codeberg.org/oliverandrich/unigo/internal/i18n"
)

var (
	ErrEmptyCode     = errors.New("verification code must not be empty")
	ErrUnknownDriver = errors.New("unknown mail driver")
)

// Sender delivers a verification code to an address.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// Message is a rendered plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// VerificationMessage renders the verification mail in the locale carried
// by ctx. ttl is stated in the body in whole minutes.
func VerificationMessage(ctx context.Context, to, code string, ttl time.Duration) (Message, error) {
	if code == "" {
		return Message{}, ErrEmptyCode
	}
	return Message{
		To:      to,
		Subject: i18n.T(ctx, "email_verification_subject"),
		Body: i18n.TData(ctx, "email_verification_body", map[string]any{
			"Code":    code,
			"Minutes": int(ttl.Minutes()),
		}),
	}, nil
}

// NewSender returns the sender selected by cfg.Driver. codeTTL is the
// lifetime stated in the mail body.
func NewSender(cfg *config.MailConfig, codeTTL time.Duration) (Sender, error) {
	switch cfg.Driver {
	case config.MailDriverSMTP, "":
		return NewSMTPSender(cfg, codeTTL)
	case config.MailDriverGomail:
		return NewGomailSender(cfg, codeTTL)
	case config.MailDriverLog:
		return NewLogSender(codeTTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func checkSMTPConfig(cfg *config.MailConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return fmt.Errorf("SMTP from address is required")
	}
	return nil
}
