// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/unigo/internal/models"
)

const userColumns = `id, email, password_hash, is_active, is_verified,
	full_name, university, degree, course, ride_intent, avatar_url, created_at`

// CreateUser inserts a new user and fills in its ID. Returns ErrDuplicate if
// the email is taken.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	return r.get(ctx, &user.ID, `
		INSERT INTO users (email, password_hash, is_active, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		user.Email, user.PasswordHash, user.IsActive, user.IsVerified, user.CreatedAt,
	)
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by exact email match.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser writes the account flags and password hash of an existing user.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.updateOne(ctx, `
		UPDATE users SET password_hash = ?, is_active = ?, is_verified = ?
		WHERE id = ?`,
		user.PasswordHash, user.IsActive, user.IsVerified, user.ID,
	)
}

// SetUserVerified marks the user's email as verified.
func (r *Repository) SetUserVerified(ctx context.Context, id int64) error {
	return r.updateOne(ctx, `UPDATE users SET is_verified = ? WHERE id = ?`, true, id)
}

// UpdateUserProfile writes the profile columns of an existing user.
func (r *Repository) UpdateUserProfile(ctx context.Context, user *models.User) error {
	return r.updateOne(ctx, `
		UPDATE users SET full_name = ?, university = ?, degree = ?, course = ?, ride_intent = ?
		WHERE id = ?`,
		user.FullName, user.University, user.Degree, user.Course, user.RideIntent, user.ID,
	)
}

// SetUserAvatar stores the public URL of the user's avatar.
func (r *Repository) SetUserAvatar(ctx context.Context, id int64, url string) error {
	return r.updateOne(ctx, `UPDATE users SET avatar_url = ? WHERE id = ?`, url, id)
}

// updateOne runs an update and returns ErrNotFound if no row matched.
func (r *Repository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
