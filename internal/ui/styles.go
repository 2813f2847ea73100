package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/portpal/internal/models"
)

var (
	// Color palette
	colorPrimary   = lipgloss.Color("#00BFFF") // Deep sky blue
	colorSecondary = lipgloss.Color("#87CEEB") // Sky blue
	colorDanger    = lipgloss.Color("#FF6B6B") // Red
	colorSunset    = lipgloss.Color("#FF6B35") // Urgent states
	colorWarning   = lipgloss.Color("#FFD93D") // Yellow
	colorSuccess   = lipgloss.Color("#6BCF7F") // Green
	colorMuted     = lipgloss.Color("#6C757D") // Gray
	colorBorder    = lipgloss.Color("#4A90E2") // Border blue

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(1, 0)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				Padding(0, 1).
				MarginTop(1)

	// countdown digits
	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2)

	sectionBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginBottom(1)

	alertBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorSunset).
				Bold(true).
				Padding(0, 1)
)

// stateColor picks the accent for a travel state
func stateColor(s models.TravelState) lipgloss.Color {
	switch s {
	case models.StateAllAboard, models.StateBonVoyage:
		return colorSunset
	case models.StateLandHo:
		return colorWarning
	case models.StateExplorationTime:
		return colorSuccess
	case models.StateCruiseComplete, models.StateUntilNextTime:
		return colorSecondary
	}
	return colorPrimary
}

// urgencyStyle colors the shore-time call to action
func urgencyStyle(u models.ExplorationUrgency) lipgloss.Style {
	switch u {
	case models.UrgencyModerate:
		return lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	case models.UrgencyUrgent:
		return lipgloss.NewStyle().Foreground(colorSunset).Bold(true)
	case models.UrgencyCritical:
		return lipgloss.NewStyle().Foreground(colorDanger).Bold(true).Blink(true)
	}
	return lipgloss.NewStyle().Foreground(colorSuccess)
}
