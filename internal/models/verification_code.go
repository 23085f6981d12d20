// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// PurposeVerifyEmail tags codes that confirm ownership of an email address.
const PurposeVerifyEmail = "verify_email"

// VerificationCode is one issued code of the ledger. It refers to the account
// by email value only; the account does not have to exist.
type VerificationCode struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Code      string    `db:"code" json:"-"`
	Purpose   string    `db:"purpose" json:"purpose"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Consumed  bool      `db:"consumed" json:"consumed"`
	Attempts  int       `db:"attempts" json:"attempts"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the code is past its expiry at the given time.
func (c VerificationCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
