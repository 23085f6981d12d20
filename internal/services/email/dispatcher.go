// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSendTimeout bounds a single background send.
const DefaultSendTimeout = 30 * time.Second

// Dispatcher sends mail in the background so callers do not wait for the
// mail server. Failures are logged and otherwise dropped.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{sender: sender, timeout: timeout}
}

// Dispatch sends the verification code in a new goroutine. ctx only
// contributes its values (locale, request ID); its cancellation is ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, to, code string) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.sender.SendVerificationCode(ctx, to, code); err != nil {
			slog.ErrorContext(ctx, "verification_mail_failed", "to", to, "error", err)
			return
		}
		slog.DebugContext(ctx, "verification_mail_sent", "to", to)
	})
}

// Wait blocks until every dispatched send has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
