// Package ui provides the RoomLoad drawing viewer.
//
// This file defines a compact Fyne theme for dense load schedules.

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// RoomLoadTheme wraps the default Fyne theme with compact sizing and a
// fixed light/dark variant taken from the app config.
type RoomLoadTheme struct {
	base    fyne.Theme
	variant fyne.ThemeVariant
	system  bool
}

// NewRoomLoadTheme creates a theme for a config value of "light", "dark"
// or "system". Unknown values follow the system.
func NewRoomLoadTheme(name string) *RoomLoadTheme {
	t := &RoomLoadTheme{base: theme.DefaultTheme()}
	t.SetMode(name)
	return t
}

// SetMode switches between "light", "dark" and "system".
func (t *RoomLoadTheme) SetMode(name string) {
	switch name {
	case "light":
		t.variant, t.system = theme.VariantLight, false
	case "dark":
		t.variant, t.system = theme.VariantDark, false
	default:
		t.system = true
	}
}

// Color delegates to the base theme, forcing the configured variant.
func (t *RoomLoadTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if t.system {
		return t.base.Color(name, variant)
	}
	return t.base.Color(name, t.variant)
}

func (t *RoomLoadTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *RoomLoadTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns compact sizing overrides.
func (t *RoomLoadTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameCaptionText:
		return 9
	case theme.SizeNameHeadingText:
		return 20
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameInlineIcon:
		return 16
	default:
		return t.base.Size(name)
	}
}
