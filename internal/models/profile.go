// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// Profile is the public, editable part of a user. Fields are nil until set.
type Profile struct {
	Email      string      `json:"email"`
	FullName   *string     `json:"full_name"`
	University *string     `json:"university"`
	Degree     *string     `json:"degree"`
	Course     *int        `json:"course"`
	RideIntent *RideIntent `json:"ride_intent"`
	AvatarURL  *string     `json:"avatar_url"`
}

// RequiredProfileFields lists the profile fields a complete profile must carry,
// in the order they are reported when missing.
var RequiredProfileFields = []string{"full_name", "university", "degree", "course", "ride_intent"}

// MissingFields returns the names of required fields that are nil, empty or zero.
func (p Profile) MissingFields() []string {
	var missing []string
	if isBlank(p.FullName) {
		missing = append(missing, "full_name")
	}
	if isBlank(p.University) {
		missing = append(missing, "university")
	}
	if isBlank(p.Degree) {
		missing = append(missing, "degree")
	}
	if p.Course == nil || *p.Course == 0 {
		missing = append(missing, "course")
	}
	if p.RideIntent == nil || *p.RideIntent == "" {
		missing = append(missing, "ride_intent")
	}
	return missing
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
