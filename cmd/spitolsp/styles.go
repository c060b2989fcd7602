// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	// ColorPrimary is purple - titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is gray - secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is green - values and positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red - failures.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is amber - warnings.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is blue - paths and keys.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for values and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// PathStyle is for file paths and configuration keys.
	PathStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// kindStyles colors completion kinds in `complete` output.
	kindStyles = map[string]lipgloss.Style{
		"module":   TitleStyle,
		"function": SuccessStyle,
		"variable": WarningStyle,
	}
)
