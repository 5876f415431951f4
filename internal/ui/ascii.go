package ui

import "github.com/charmbracelet/lipgloss"

const banner = `┌┬┐┌─┐┌┬┐┬┌─┐┌─┐┬  ┬ ┬┌─┐
│││├┤  ││││├─┤│  │  │ │├┤
┴ ┴└─┘─┴┘┴┴ ┴└─┘┴─┘└─┘└─┘`

// FormatBanner renders the mediaclue banner with an optional subtitle.
func FormatBanner(subtext string) string {
	out := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render(banner)
	if subtext != "" {
		out += "\n\n" + MutedStyle.Render(subtext)
	}
	return out
}
