// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package profile reads and updates the profile of the signed-in user.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"codeberg.org/oliverandrich/unigo/internal/models"
	"codeberg.org/oliverandrich/unigo/internal/repository"
	"codeberg.org/oliverandrich/unigo/internal/services/avatar"
)

const maxTextLength = 150

var (
	ErrNotFound               = errors.New("profile not found")
	ErrAvatarTooLarge         = errors.New("avatar too large")
	ErrUnsupportedContentType = avatar.ErrUnsupportedContentType
)

// MissingFieldsError lists required profile fields absent from an update.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// InvalidFieldsError lists profile fields whose values are out of range.
type InvalidFieldsError struct {
	Fields []string
	Errs   validation.Errors
}

func (e *InvalidFieldsError) Error() string {
	return "invalid fields: " + e.Errs.Error()
}

// Update is the payload of a profile update. Every field is required.
type Update struct {
	FullName   *string            `json:"full_name"`
	University *string            `json:"university"`
	Degree     *string            `json:"degree"`
	Course     *int               `json:"course"`
	RideIntent *models.RideIntent `json:"ride_intent"`
}

// normalized trims the text fields.
func (u Update) normalized() Update {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	u.FullName = trim(u.FullName)
	u.University = trim(u.University)
	u.Degree = trim(u.Degree)
	return u
}

func (u Update) profile() models.Profile {
	return models.Profile{
		FullName:   u.FullName,
		University: u.University,
		Degree:     u.Degree,
		Course:     u.Course,
		RideIntent: u.RideIntent,
	}
}

// Validate checks lengths, the course range and the ride intent.
func (u Update) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.FullName, validation.RuneLength(0, maxTextLength)),
		validation.Field(&u.University, validation.RuneLength(0, maxTextLength)),
		validation.Field(&u.Degree, validation.RuneLength(0, maxTextLength)),
		validation.Field(&u.Course, validation.Min(1), validation.Max(6)),
		validation.Field(&u.RideIntent, validation.By(knownRideIntent)),
	)
}

func knownRideIntent(value any) error {
	r, ok := value.(*models.RideIntent)
	if !ok || r == nil {
		return nil
	}
	if !r.Valid() {
		return errors.New("must be one of " + strings.Join(rideIntentNames(), ", "))
	}
	return nil
}

func rideIntentNames() []string {
	names := make([]string, 0, len(models.RideIntents()))
	for _, r := range models.RideIntents() {
		names = append(names, string(r))
	}
	return names
}

type Service struct {
	repo          *repository.Repository
	storage       *avatar.Storage
	maxAvatarSize int64
}

// NewService creates a profile service. maxAvatarSize is in bytes; zero
// disables the limit.
func NewService(repo *repository.Repository, storage *avatar.Storage, maxAvatarSize int64) *Service {
	return &Service{
		repo:          repo,
		storage:       storage,
		maxAvatarSize: maxAvatarSize,
	}
}

// Get returns the profile of the user.
func (s *Service) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := s.load(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// Update replaces the profile fields of the user. All required fields must
// be present; missing ones are reported in a fixed order.
func (s *Service) Update(ctx context.Context, userID int64, upd Update) (*models.Profile, error) {
	upd = upd.normalized()

	if missing := upd.profile().MissingFields(); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	if err := upd.Validate(); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return nil, &InvalidFieldsError{Fields: fieldNames(errs), Errs: errs}
		}
		return nil, err
	}

	var updated models.User
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		user, err := s.load(ctx, tx, userID)
		if err != nil {
			return err
		}
		updated = user.WithProfile(upd.profile())
		if err := tx.UpdateUserProfile(ctx, &updated); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("profile_updated", "user_id", userID)
	p := updated.Profile()
	return &p, nil
}

// UploadAvatar stores a PNG or JPEG image as the user's avatar.
func (s *Service) UploadAvatar(ctx context.Context, userID int64, contentType string, r io.Reader) (*models.Profile, error) {
	if _, err := avatar.Extension(contentType); err != nil {
		return nil, err
	}

	if s.maxAvatarSize > 0 {
		r = io.LimitReader(r, s.maxAvatarSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if s.maxAvatarSize > 0 && int64(len(data)) > s.maxAvatarSize {
		return nil, ErrAvatarTooLarge
	}

	if _, err := s.load(ctx, s.repo, userID); err != nil {
		return nil, err
	}

	url, err := s.storage.Save(userID, contentType, data)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetUserAvatar(ctx, userID, url); err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}

	slog.Info("avatar_uploaded", "user_id", userID, "url", url)
	return s.Get(ctx, userID)
}

func (s *Service) load(ctx context.Context, repo *repository.Repository, userID int64) (*models.User, error) {
	user, err := repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// fieldNames returns the failing fields in the order of RequiredProfileFields.
func fieldNames(errs validation.Errors) []string {
	names := make([]string, 0, len(errs))
	for _, name := range models.RequiredProfileFields {
		if _, ok := errs[name]; ok {
			names = append(names, name)
		}
	}
	for name := range errs {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}
