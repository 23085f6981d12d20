// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements registration, email verification and login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/unigo/internal/config"
	"codeberg.org/oliverandrich/unigo/internal/models"
	"codeberg.org/oliverandrich/unigo/internal/repository"
	"codeberg.org/oliverandrich/unigo/internal/services/ledger"
	"codeberg.org/oliverandrich/unigo/internal/services/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDomainNotAllowed   = errors.New("email domain not allowed")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInternal           = errors.New("internal error")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

type Service struct {
	repo           *repository.Repository
	ledger         *ledger.Ledger
	tokens         *token.Issuer
	allowedDomains []string
	hashCost       int
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(repo *repository.Repository, codes *ledger.Ledger, tokens *token.Issuer, cfg *config.AuthConfig, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		ledger:         codes,
		tokens:         tokens,
		allowedDomains: cfg.AllowedEmailDomains,
		hashCost:       bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CodeTTL returns how long issued verification codes stay valid.
func (s *Service) CodeTTL() time.Duration {
	return s.ledger.TTL()
}

// DomainAllowed reports whether the email's domain is on the allow-list.
// An entry matches its own domain and any subdomain of it. An empty list
// allows every domain.
func (s *Service) DomainAllowed(email string) bool {
	return DomainAllowed(email, s.allowedDomains)
}

// DomainAllowed reports whether email's domain equals one of allowed or is
// a subdomain of one.
func DomainAllowed(email string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])

	for _, base := range allowed {
		base = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(base)), "@")
		if base == "" {
			continue
		}
		if domain == base || strings.HasSuffix(domain, "."+base) {
			return true
		}
	}
	return false
}

// Register creates an unverified account and returns a verification code
// for out-of-band delivery. The account and the code are written in one
// transaction. Known emails are rejected before the password is hashed; the
// check is repeated inside the transaction, which does not hold its write
// lock while bcrypt runs.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	if !s.DomainAllowed(email) {
		slog.Warn("register_failed", "email", email, "reason", "domain_not_allowed")
		return "", ErrDomainNotAllowed
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		slog.Warn("register_failed", "email", email, "reason", "account_exists")
		return "", ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", internal(fmt.Errorf("check existing user: %w", err))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", internal(fmt.Errorf("hash password: %w", err))
	}

	var (
		code string
		user *models.User
	)
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		_, err := tx.GetUserByEmail(ctx, email)
		if err == nil {
			return ErrAccountExists
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return internal(fmt.Errorf("check existing user: %w", err))
		}

		user = &models.User{
			Email:        email,
			PasswordHash: string(passwordHash),
			IsActive:     true,
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAccountExists
			}
			return internal(fmt.Errorf("create user: %w", err))
		}

		code, err = s.ledger.WithStore(tx).Issue(ctx, email, models.PurposeVerifyEmail)
		if err != nil {
			return internal(fmt.Errorf("issue code: %w", err))
		}
		return nil
	})
	if err != nil {
		slog.Warn("register_failed", "email", email, "reason", reason(err))
		return "", asInternal(err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", email)
	return code, nil
}

// VerifyEmail consumes the newest pending code for email and marks the
// account verified. Failed attempts are recorded even though the call fails.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	var invalid error
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		err := s.ledger.WithStore(tx).Consume(ctx, email, models.PurposeVerifyEmail, code)
		if errors.Is(err, ledger.ErrInvalidCode) {
			// Commit the attempt counter.
			invalid = err
			return nil
		}
		if err != nil {
			return err
		}

		user, err := tx.GetUserByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return internal(fmt.Errorf("load user: %w", err))
		}
		if user.IsVerified {
			return nil
		}
		if err := tx.SetUserVerified(ctx, user.ID); err != nil {
			return internal(fmt.Errorf("mark verified: %w", err))
		}
		return nil
	})
	if err == nil {
		err = invalid
	}
	if err != nil {
		slog.Warn("verify_failed", "email", email, "reason", reason(err))
		return asInternal(err)
	}

	slog.Info("verify_success", "email", email)
	return nil
}

// Login checks the credentials and returns an access token. Unknown emails
// and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (token.Token, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return token.Token{}, ErrInvalidCredentials
		}
		return token.Token{}, internal(fmt.Errorf("get user: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return token.Token{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		slog.Warn("login_failed", "email", email, "reason", "disabled")
		return token.Token{}, ErrAccountDisabled
	}
	if !user.IsVerified {
		slog.Warn("login_failed", "email", email, "reason", "not_verified")
		return token.Token{}, ErrEmailNotVerified
	}

	tok, err := s.tokens.Mint(user.ID)
	if err != nil {
		return token.Token{}, internal(err)
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return tok, nil
}

// CurrentAccount resolves a bearer token to its account.
func (s *Service) CurrentAccount(ctx context.Context, bearer string) (*models.User, error) {
	id, err := s.tokens.Validate(bearer)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown subject %d", token.ErrInvalidToken, id)
	}
	if err != nil {
		return nil, internal(fmt.Errorf("get user: %w", err))
	}
	return user, nil
}

func internal(err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// asInternal passes known failure kinds through and wraps everything else.
func asInternal(err error) error {
	for _, known := range []error{
		ErrInternal, ErrAccountExists, ErrAccountNotFound,
		ledger.ErrNoPendingCode, ledger.ErrCodeExpired, ledger.ErrInvalidCode,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return internal(err)
}

// reason returns a short log tag for a failure.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ledger.ErrNoPendingCode):
		return "no_pending_code"
	case errors.Is(err, ledger.ErrCodeExpired):
		return "code_expired"
	case errors.Is(err, ledger.ErrInvalidCode):
		return "invalid_code"
	default:
		return err.Error()
	}
}
