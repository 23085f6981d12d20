// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"slices"
	"time"
)

// RideIntent states whether a student offers rides, seeks rides or both.
type RideIntent string

const (
	RideIntentOffers RideIntent = "offers"
	RideIntentSeeks  RideIntent = "seeks"
	RideIntentBoth   RideIntent = "both"
)

// RideIntents lists every valid ride intent.
func RideIntents() []RideIntent {
	return []RideIntent{RideIntentOffers, RideIntentSeeks, RideIntentBoth}
}

// Valid reports whether r is one of the known ride intents.
func (r RideIntent) Valid() bool {
	return slices.Contains(RideIntents(), r)
}

// User is an account row. The profile columns stay nil until the user
// completes the profile.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64       `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	IsActive     bool        `db:"is_active" json:"is_active"`
	IsVerified   bool        `db:"is_verified" json:"is_verified"`
	FullName     *string     `db:"full_name" json:"full_name"`
	University   *string     `db:"university" json:"university"`
	Degree       *string     `db:"degree" json:"degree"`
	Course       *int        `db:"course" json:"course"`
	RideIntent   *RideIntent `db:"ride_intent" json:"ride_intent"`
	AvatarURL    *string     `db:"avatar_url" json:"avatar_url"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// Profile returns the profile view of the user.
func (u User) Profile() Profile {
	return Profile{
		Email:      u.Email,
		FullName:   u.FullName,
		University: u.University,
		Degree:     u.Degree,
		Course:     u.Course,
		RideIntent: u.RideIntent,
		AvatarURL:  u.AvatarURL,
	}
}

// WithProfile returns a copy of the user carrying the profile fields of p.
// Email and avatar are account-owned and left untouched.
func (u User) WithProfile(p Profile) User {
	u.FullName = p.FullName
	u.University = p.University
	u.Degree = p.Degree
	u.Course = p.Course
	u.RideIntent = p.RideIntent
	return u
}
