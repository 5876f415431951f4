package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	ColorAccent     = lipgloss.Color("#ef233c")
	ColorAccentDark = lipgloss.Color("#d90429")
	ColorBackground = lipgloss.Color("#2b2d42")
	ColorForeground = lipgloss.Color("#edf2f4")
	ColorMuted      = lipgloss.Color("#8d99ae")

	ColorSuccess = lipgloss.Color("#2ecc71")
	ColorWarning = lipgloss.Color("#f39c12")
	ColorError   = ColorAccent
	ColorInfo    = lipgloss.Color("#3498db")
)

// Media type colors
var mediaTypeColors = map[string]lipgloss.Color{
	"movie":   ColorInfo,
	"tv":      ColorSuccess,
	"anime":   ColorWarning,
	"unknown": ColorMuted,
}

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorForeground).
			Background(ColorAccent).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Background(ColorBackground).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			MarginTop(1).
			MarginBottom(1)

	ContentStyle = lipgloss.NewStyle().
			Foreground(ColorForeground)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(ColorBackground).
			Background(ColorAccent).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	StatStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)
)

// MediaTypeBadge renders a media type as a colored tag.
func MediaTypeBadge(mediaType string) string {
	color, ok := mediaTypeColors[mediaType]
	if !ok {
		color = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render("[" + mediaType + "]")
}

// FormatKeybinding formats a keybinding for display in footer
func FormatKeybinding(key, description string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	return keyStyle.Render(key) + " " + MutedStyle.Render(description)
}

// FormatHeader formats a header with consistent styling
func FormatHeader(title string, width int) string {
	return HeaderStyle.Width(width).Render(title)
}

// FormatFooter formats footer with keybindings
func FormatFooter(width int, keybindings ...string) string {
	return FooterStyle.Width(width).Render(strings.Join(keybindings, "  "))
}

// Status markers
var (
	OKMarker   = lipgloss.NewStyle().Foreground(ColorSuccess).SetString("[OK]")
	InfoMarker = lipgloss.NewStyle().Foreground(ColorInfo).SetString("[INFO]")
	WarnMarker = lipgloss.NewStyle().Foreground(ColorWarning).SetString("[WARN]")
	FailMarker = lipgloss.NewStyle().Foreground(ColorError).SetString("[FAIL]")
)

// FormatStatusOK returns an [OK] marker with message
func FormatStatusOK(message string) string {
	return OKMarker.String() + " " + message
}

// FormatStatusInfo returns an [INFO] marker with message
func FormatStatusInfo(message string) string {
	return InfoMarker.String() + " " + message
}

// FormatStatusWarn returns a [WARN] marker with message
func FormatStatusWarn(message string) string {
	return WarnMarker.String() + " " + message
}

// FormatStatusFail returns a [FAIL] marker with message
func FormatStatusFail(message string) string {
	return FailMarker.String() + " " + message
}
