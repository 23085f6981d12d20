// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/unigo/internal/auth"
	"codeberg.org/oliverandrich/unigo/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGetUser_Empty(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, auth.GetUser(ctx))
	assert.False(t, auth.IsAuthenticated(ctx))
}

func TestSetUser(t *testing.T) {
	user := &models.User{ID: 1, Email: "ada@ugr.es"}

	ctx := auth.SetUser(context.Background(), user)

	assert.Same(t, user, auth.GetUser(ctx))
	assert.True(t, auth.IsAuthenticated(ctx))
}
