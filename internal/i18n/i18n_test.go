// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/unigo/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	require.NoError(t, i18n.Init(""))
	require.NoError(t, i18n.Init("en"))
	require.NoError(t, i18n.Init("es"))
}

func TestInit_InvalidLocale(t *testing.T) {
	t.Cleanup(func() { _ = i18n.Init("") })

	assert.Error(t, i18n.Init("not a locale!"))
}

func TestT_Spanish(t *testing.T) {
	require.NoError(t, i18n.Init(""))

	ctx := i18n.WithLocale(context.Background(), language.Spanish)

	assert.Equal(t, "Tipo de archivo no permitido", i18n.T(ctx, "error_unsupported_content_type"))
}

func TestT_English(t *testing.T) {
	require.NoError(t, i18n.Init(""))

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "Invalid credentials", i18n.T(ctx, "error_invalid_credentials"))
}

func TestT_UnknownKey(t *testing.T) {
	require.NoError(t, i18n.Init(""))

	ctx := i18n.WithLocale(context.Background(), language.English)

	// Should return the key itself for unknown messages
	result := i18n.T(ctx, "unknown_key_that_does_not_exist")
	assert.Equal(t, "unknown_key_that_does_not_exist", result)
}

func TestT_NoLocaleContext(t *testing.T) {
	t.Cleanup(func() { _ = i18n.Init("") })

	require.NoError(t, i18n.Init(""))
	assert.Equal(t, "Usuario deshabilitado", i18n.T(context.Background(), "error_account_disabled"))

	require.NoError(t, i18n.Init("en"))
	assert.Equal(t, "User disabled", i18n.T(context.Background(), "error_account_disabled"))
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init(""))

	ctx := i18n.WithLocale(context.Background(), language.Spanish)

	result := i18n.TData(ctx, "error_missing_fields", map[string]any{"Fields": "university, degree"})
	assert.Equal(t, "Faltan campos obligatorios: university, degree", result)
}

func TestTData_VerificationBody(t *testing.T) {
	require.NoError(t, i18n.Init(""))

	ctx := i18n.WithLocale(context.Background(), language.English)

	body := i18n.TData(ctx, "email_verification_body", map[string]any{"Code": "012345", "Minutes": 15})
	assert.Contains(t, body, "012345")
	assert.Contains(t, body, "15 minutes")
}

func TestGetLocale(t *testing.T) {
	require.NoError(t, i18n.Init(""))

	assert.Equal(t, "es", i18n.GetLocale(context.Background()))

	ctx := i18n.WithLocale(context.Background(), language.English)
	assert.Equal(t, "en", i18n.GetLocale(ctx))
}

func TestMatchLanguage(t *testing.T) {
	require.NoError(t, i18n.Init(""))

	tests := []struct {
		header   string
		expected language.Tag
	}{
		{"", language.Spanish},
		{"en", language.English},
		{"en-US,en;q=0.9", language.English},
		{"es-ES", language.Spanish},
		{"de-DE", language.Spanish},
		{"fr;q=0.9, en;q=0.8", language.English},
		{"garbage;;;", language.Spanish},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			base, _ := i18n.MatchLanguage(tt.header).Base()
			expected, _ := tt.expected.Base()
			assert.Equal(t, expected, base)
		})
	}
}
