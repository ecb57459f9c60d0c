package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/settings"
	"github.com/betterfly/betterfly/internal/shared"
)

func TestThemeDefaultsToLight(t *testing.T) {
	svc := settings.NewThemeService(kv.NewMemoryStore(), nil)
	mode, err := svc.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeLight, mode)
}

func TestThemeIgnoresUnknownValue(t *testing.T) {
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), settings.KeyTheme, "sepia"))
	svc := settings.NewThemeService(store, nil)

	mode, err := svc.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeLight, mode)
}

func TestSetAndToggleTheme(t *testing.T) {
	store := kv.NewMemoryStore()
	svc := settings.NewThemeService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetTheme(ctx, settings.ThemeDark))
	raw, _, err := store.Get(ctx, settings.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)

	mode, err := svc.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeLight, mode)

	mode, err = svc.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeDark, mode)

	err = svc.SetTheme(ctx, "blue")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
