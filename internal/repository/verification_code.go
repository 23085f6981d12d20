// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/unigo/internal/models"
)

// CreateVerificationCode inserts a new unconsumed code and fills in its ID.
func (r *Repository) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	code.Consumed = false
	code.Attempts = 0

	return r.get(ctx, &code.ID, `
		INSERT INTO email_codes (email, code, purpose, expires_at, consumed, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		code.Email, code.Code, code.Purpose, code.ExpiresAt.UTC(), false, 0, code.CreatedAt.UTC(),
	)
}

// LatestPendingVerificationCode returns the most recently issued unconsumed
// code for the email and purpose, or ErrNotFound.
func (r *Repository) LatestPendingVerificationCode(ctx context.Context, email, purpose string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	err := r.get(ctx, &code, `
		SELECT id, email, code, purpose, expires_at, consumed, attempts, created_at
		FROM email_codes
		WHERE email = ? AND purpose = ? AND consumed = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		email, purpose, false,
	)
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// IncrementVerificationAttempts records one failed attempt against the code.
func (r *Repository) IncrementVerificationAttempts(ctx context.Context, id int64) error {
	return r.updateOne(ctx, `UPDATE email_codes SET attempts = attempts + 1 WHERE id = ?`, id)
}

// MarkVerificationCodeConsumed flips the code to consumed. It returns
// ErrNotFound if the code does not exist or was consumed already, so two
// concurrent consumers cannot both succeed.
func (r *Repository) MarkVerificationCodeConsumed(ctx context.Context, id int64) error {
	return r.updateOne(ctx, `UPDATE email_codes SET consumed = ? WHERE id = ? AND consumed = ?`, true, id, false)
}

// CountPendingVerificationCodes returns how many unconsumed codes exist for
// the email and purpose.
func (r *Repository) CountPendingVerificationCodes(ctx context.Context, email, purpose string) (int64, error) {
	var n int64
	err := r.get(ctx, &n, `
		SELECT count(*) FROM email_codes WHERE email = ? AND purpose = ? AND consumed = ?`,
		email, purpose, false,
	)
	return n, err
}
