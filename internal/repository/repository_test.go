// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/oliverandrich/unigo/internal/models"
	"codeberg.org/oliverandrich/unigo/internal/repository"
	"codeberg.org/oliverandrich/unigo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	db, repo := testutil.NewTestDB(t)

	assert.NotNil(t, repo)
	assert.Same(t, db, repo.DB())
	assert.False(t, repo.InTx())
}

func TestWithTx_Commit(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		assert.True(t, tx.InTx())
		return tx.CreateUser(ctx, &models.User{Email: "a@ugr.es", PasswordHash: "x", IsActive: true})
	})
	require.NoError(t, err)

	_, err = repo.GetUserByEmail(ctx, "a@ugr.es")
	assert.NoError(t, err)
}

func TestWithTx_Rollback(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		require.NoError(t, tx.CreateUser(ctx, &models.User{Email: "a@ugr.es", PasswordHash: "x"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetUserByEmail(ctx, "a@ugr.es")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithTx_Nested(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(outer *repository.Repository) error {
		return outer.WithTx(ctx, func(inner *repository.Repository) error {
			assert.Same(t, outer, inner)
			return nil
		})
	})
	assert.NoError(t, err)
}
