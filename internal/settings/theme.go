// Package settings persists device-level preferences.
package settings

import (
	"context"
	"log/slog"

	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
)

// KeyTheme is the storage key of the theme mode.
const KeyTheme = "@meditation_theme"

// ThemeMode is light or dark.
type ThemeMode string

// Supported modes.
const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// ParseThemeMode validates a mode name.
func ParseThemeMode(s string) (ThemeMode, error) {
	switch ThemeMode(s) {
	case ThemeLight, ThemeDark:
		return ThemeMode(s), nil
	default:
		return "", shared.ValidationError("theme must be %q or %q", ThemeLight, ThemeDark)
	}
}

// ThemeService reads and writes the theme mode.
type ThemeService struct {
	store  kv.Store
	logger *slog.Logger
}

// NewThemeService constructs a ThemeService.
func NewThemeService(store kv.Store, logger *slog.Logger) *ThemeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThemeService{store: store, logger: logger}
}

// Theme returns the stored mode. Missing or unrecognised values are light.
func (s *ThemeService) Theme(ctx context.Context) (ThemeMode, error) {
	raw, ok, err := s.store.Get(ctx, KeyTheme)
	if err != nil {
		s.logger.Error("load theme", slog.Any("error", err))
		return ThemeLight, err
	}
	if !ok {
		return ThemeLight, nil
	}
	mode, err := ParseThemeMode(raw)
	if err != nil {
		return ThemeLight, nil
	}
	return mode, nil
}

// SetTheme stores mode.
func (s *ThemeService) SetTheme(ctx context.Context, mode ThemeMode) error {
	if _, err := ParseThemeMode(string(mode)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyTheme, string(mode)); err != nil {
		s.logger.Error("save theme", slog.Any("error", err))
		return err
	}
	return nil
}

// ToggleTheme flips between light and dark and returns the new mode.
func (s *ThemeService) ToggleTheme(ctx context.Context) (ThemeMode, error) {
	current, err := s.Theme(ctx)
	if err != nil {
		return current, err
	}
	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	if err := s.SetTheme(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}
