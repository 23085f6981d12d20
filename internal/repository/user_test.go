// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/unigo/internal/models"
	"codeberg.org/oliverandrich/unigo/internal/repository"
	"codeberg.org/oliverandrich/unigo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "ada@ugr.es", PasswordHash: "hash", IsActive: true}
	err := repo.CreateUser(ctx, user)

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotZero(t, user.CreatedAt)

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@ugr.es", stored.Email)
	assert.Equal(t, "hash", stored.PasswordHash)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.IsVerified)
	assert.Nil(t, stored.FullName)
	assert.Nil(t, stored.RideIntent)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestUser(t, repo, "ada@ugr.es")

	err := repo.CreateUser(ctx, &models.User{Email: "ada@ugr.es", PasswordHash: "hash"})

	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestCreateUser_EmailIsCaseSensitive(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestUser(t, repo, "ada@ugr.es")

	err := repo.CreateUser(ctx, &models.User{Email: "Ada@ugr.es", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = repo.GetUserByEmail(ctx, "ADA@UGR.ES")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetUserByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByID(context.Background(), 999)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	created := testutil.NewTestUser(t, repo, "ada@ugr.es")

	retrieved, err := repo.GetUserByEmail(context.Background(), "ada@ugr.es")

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@ugr.es")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "ada@ugr.es")

	changed := *user
	changed.IsActive = false
	changed.PasswordHash = "new-hash"
	require.NoError(t, repo.UpdateUser(ctx, &changed))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "new-hash", stored.PasswordHash)
}

func TestUpdateUser_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	err := repo.UpdateUser(context.Background(), &models.User{ID: 42})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetUserVerified(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "ada@ugr.es")

	require.NoError(t, repo.SetUserVerified(ctx, user.ID))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
}

func TestUpdateUserProfile(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "ada@ugr.es")

	updated := user.WithProfile(models.Profile{
		FullName:   ptr("Ada Lovelace"),
		University: ptr("Universidad de Granada"),
		Degree:     ptr("Informática"),
		Course:     ptr(3),
		RideIntent: ptr(models.RideIntentOffers),
	})
	require.NoError(t, repo.UpdateUserProfile(ctx, &updated))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FullName)
	assert.Equal(t, "Ada Lovelace", *stored.FullName)
	assert.Equal(t, 3, *stored.Course)
	assert.Equal(t, models.RideIntentOffers, *stored.RideIntent)
	assert.Nil(t, stored.AvatarURL)
}

func TestUpdateUserProfile_CourseOutOfRange(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "ada@ugr.es")

	updated := user.WithProfile(models.Profile{Course: ptr(9)})
	err := repo.UpdateUserProfile(context.Background(), &updated)

	assert.Error(t, err)
}

func TestSetUserAvatar(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "ada@ugr.es")

	require.NoError(t, repo.SetUserAvatar(ctx, user.ID, "/static/avatars/1_abc.png"))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AvatarURL)
	assert.Equal(t, "/static/avatars/1_abc.png", *stored.AvatarURL)
}
