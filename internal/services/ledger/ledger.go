// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ledger issues and consumes short-lived numeric verification codes.
package ledger

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"codeberg.org/oliverandrich/unigo/internal/models"
	"codeberg.org/oliverandrich/unigo/internal/repository"
)

const (
	// CodeLength is the number of digits in a code.
	CodeLength = 6
	// DefaultTTL is how long a code stays valid when no TTL is configured.
	DefaultTTL = 15 * time.Minute
)

var codeSpace = big.NewInt(1_000_000)

var (
	ErrNoPendingCode = errors.New("no pending code")
	ErrCodeExpired   = errors.New("code expired")
	ErrInvalidCode   = errors.New("invalid code")
)

// Store persists verification codes.
type Store interface {
	CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error
	LatestPendingVerificationCode(ctx context.Context, email, purpose string) (*models.VerificationCode, error)
	IncrementVerificationAttempts(ctx context.Context, id int64) error
	MarkVerificationCodeConsumed(ctx context.Context, id int64) error
}

// Ledger issues and consumes verification codes.
type Ledger struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRandom sets the entropy source used for codes.
func WithRandom(r io.Reader) Option {
	return func(l *Ledger) { l.random = r }
}

// New creates a ledger. A non-positive ttl falls back to DefaultTTL.
func New(store Store, ttl time.Duration, opts ...Option) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l := &Ledger{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithStore returns a copy of the ledger backed by store, typically a
// transaction-bound repository.
func (l *Ledger) WithStore(store Store) *Ledger {
	c := *l
	c.store = store
	return &c
}

// TTL returns the validity period of issued codes.
func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

// Issue stores a new code for email and purpose and returns it. Older codes
// stay pending but lose to the newest one on Consume.
func (l *Ledger) Issue(ctx context.Context, email, purpose string) (string, error) {
	code, err := l.generate()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	now := l.now().UTC()
	vc := &models.VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}
	if err := l.store.CreateVerificationCode(ctx, vc); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Consume checks submitted against the newest pending code for email and
// purpose and marks it consumed on a match. A mismatch counts an attempt.
// Expired codes are left pending.
func (l *Ledger) Consume(ctx context.Context, email, purpose, submitted string) error {
	vc, err := l.store.LatestPendingVerificationCode(ctx, email, purpose)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoPendingCode
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}

	if vc.Expired(l.now()) {
		return ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(vc.Code), []byte(submitted)) != 1 {
		if err := l.store.IncrementVerificationAttempts(ctx, vc.ID); err != nil {
			return fmt.Errorf("count attempt: %w", err)
		}
		return ErrInvalidCode
	}

	err = l.store.MarkVerificationCodeConsumed(ctx, vc.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// Someone else consumed it between the read and the update.
		return ErrNoPendingCode
	}
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	return nil
}

// generate returns a uniformly random zero-padded 6-digit string.
func (l *Ledger) generate() (string, error) {
	n, err := rand.Int(l.random, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
