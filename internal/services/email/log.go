// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"log/slog"
	"time"
)

// LogSender writes the verification mail to the log instead of sending it.
// Meant for development.
type LogSender struct {
	ttl time.Duration
}

func NewLogSender(codeTTL time.Duration) *LogSender {
	return &LogSender{ttl: codeTTL}
}

func (s *LogSender) SendVerificationCode(ctx context.Context, to, code string) error {
	m, err := VerificationMessage(ctx, to, code, s.ttl)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "verification_code", "to", m.To, "subject", m.Subject, "code", code)
	return nil
}
