// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/unigo/internal/config"
	"gopkg.in/gomail.v2"
)

// GomailSender sends mail synchronously through gomail's SMTP dialer.
type GomailSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	ttl      time.Duration
}

// NewGomailSender creates a gomail backed sender.
func NewGomailSender(cfg *config.MailConfig, codeTTL time.Duration) (*GomailSender, error) {
	if err := checkSMTPConfig(cfg); err != nil {
		return nil, err
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.TLS && cfg.Port == 465

	return &GomailSender{
		dialer:   dialer,
		from:     cfg.From,
		fromName: cfg.FromName,
		ttl:      codeTTL,
	}, nil
}

// SendVerificationCode mails the code to the address. gomail has no context
// support; cancellation is checked before dialing only.
func (s *GomailSender) SendVerificationCode(ctx context.Context, to, code string) error {
	m, err := VerificationMessage(ctx, to, code, s.ttl)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(s.build(m)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (s *GomailSender) build(m Message) *gomail.Message {
	msg := gomail.NewMessage()
	if s.fromName != "" {
		msg.SetAddressHeader("From", s.from, s.fromName)
	} else {
		msg.SetHeader("From", s.from)
	}
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)
	return msg
}
