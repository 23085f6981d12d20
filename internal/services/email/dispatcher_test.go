// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/unigo/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []string
	err     error
	release chan struct{}
}

func (s *recordingSender) SendVerificationCode(ctx context.Context, to, code string) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+":"+code)
	return s.err
}

func (s *recordingSender) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func TestDispatcher_Dispatch(t *testing.T) {
	sender := &recordingSender{}
	d := email.NewDispatcher(sender, time.Second)

	d.Dispatch(context.Background(), "ada@ugr.es", "012345")
	d.Dispatch(context.Background(), "bob@ugr.es", "999999")

	require.NoError(t, d.Wait(context.Background()))
	assert.ElementsMatch(t, []string{"ada@ugr.es:012345", "bob@ugr.es:999999"}, sender.Sent())
}

func TestDispatcher_IgnoresCallerCancellation(t *testing.T) {
	sender := &recordingSender{}
	d := email.NewDispatcher(sender, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Dispatch(ctx, "ada@ugr.es", "012345")

	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, []string{"ada@ugr.es:012345"}, sender.Sent())
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := email.NewDispatcher(sender, time.Second)

	d.Dispatch(context.Background(), "ada@ugr.es", "012345")

	assert.NoError(t, d.Wait(context.Background()))
	assert.Len(t, sender.Sent(), 1)
}

func TestDispatcher_DoesNotBlockCaller(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{})}
	d := email.NewDispatcher(sender, time.Minute)

	start := time.Now()
	d.Dispatch(context.Background(), "ada@ugr.es", "012345")
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)

	close(sender.release)
	require.NoError(t, d.Wait(context.Background()))
	assert.Len(t, sender.Sent(), 1)
}

func TestDispatcher_SendTimeout(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{})}
	d := email.NewDispatcher(sender, 10*time.Millisecond)

	d.Dispatch(context.Background(), "ada@ugr.es", "012345")

	require.NoError(t, d.Wait(context.Background()))
	assert.Empty(t, sender.Sent())
}
