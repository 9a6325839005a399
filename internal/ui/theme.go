package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/colek/internal/config"
)

// Palette. Defaults are Catppuccin Mocha; [theme] in the config file
// overrides individual colors.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorBright = lipgloss.Color("#cdd6f4")
)

var (
	styleDone      lipgloss.Style
	styleFailed    lipgloss.Style
	styleDuplicate lipgloss.Style
	styleMuted     lipgloss.Style
	styleBright    lipgloss.Style
)

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	styleDone = lipgloss.NewStyle().Foreground(ColorGreen)
	styleFailed = lipgloss.NewStyle().Foreground(ColorRed)
	styleDuplicate = lipgloss.NewStyle().Foreground(ColorYellow)
	styleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	styleBright = lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
}

// ApplyTheme overrides palette colors from the config file.
func ApplyTheme(t config.ThemeConfig) {
	set := func(dst *lipgloss.Color, v *string) {
		if v != nil && *v != "" {
			*dst = lipgloss.Color(*v)
		}
	}
	set(&ColorGreen, t.Green)
	set(&ColorYellow, t.Yellow)
	set(&ColorRed, t.Red)
	set(&ColorMuted, t.Muted)
	set(&ColorBright, t.Bright)
	rebuildStyles()
}

// styler renders text with a style only when output is a terminal.
type styler bool

func (s styler) render(st lipgloss.Style, text string) string {
	if !s {
		return text
	}
	return st.Render(text)
}
