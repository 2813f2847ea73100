package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/timers"
)

const progressWidth = 30

// viewCountdown renders the countdown screen for the selected timer
func (m Model) viewCountdown() string {
	if m.selected == nil {
		return m.viewError()
	}
	t := *m.selected

	header := titleStyle.Render(fmt.Sprintf("⚓ %s", t.ShipName))

	paneWidth := m.width - 4
	side := m.width >= 100
	if side {
		paneWidth = (m.width - 6) / 2
	}

	countdown := m.renderCountdownPane(paneWidth)
	details := lipgloss.JoinVertical(lipgloss.Left,
		m.renderVesselPane(paneWidth),
		m.renderWeatherPane(paneWidth),
	)

	var body string
	if side {
		body = lipgloss.JoinHorizontal(lipgloss.Top, countdown, details)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, countdown, details)
	}

	help := helpStyle.Render("Esc: Back • Q: Quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

// renderCountdownPane renders the state, headline and time remaining
func (m Model) renderCountdownPane(width int) string {
	var content strings.Builder
	t := *m.selected

	if m.status == nil {
		content.WriteString(m.spinner.View())
		content.WriteString(" Checking the schedule...")
		return sectionBoxStyle.Width(width).Render(content.String())
	}
	if m.status.Err != nil {
		content.WriteString(errorStyle.Render("✗ " + m.status.Err.Error()))
		return sectionBoxStyle.Width(width).Render(content.String())
	}

	res := m.status.Result
	accent := lipgloss.NewStyle().Foreground(stateColor(res.State)).Bold(true)

	content.WriteString(accent.Render(res.State.String()))
	content.WriteString("  ")
	content.WriteString(mutedStyle.Render(res.State.StatusText()))
	content.WriteString("\n\n")

	content.WriteString(valueStyle.Render(timers.Headline(t, res.State, m.now)))
	content.WriteString("\n")
	content.WriteString(mutedStyle.Render(timers.BerthLine(t, res.State, res.Target)))
	content.WriteString("\n\n")

	if res.State.Terminal() {
		content.WriteString(labelStyle.Render("Welcome home!"))
		return sectionBoxStyle.Width(width).Render(content.String())
	}

	h, mins, s := models.TimeLeft(res.Target, m.now)
	content.WriteString(clockStyle.Foreground(stateColor(res.State)).Render(fmt.Sprintf("%02d:%02d:%02d", h, mins, s)))
	content.WriteString("\n")
	content.WriteString(progressBar(models.Progress(res.Target, m.now), progressWidth))
	content.WriteString("\n")

	if res.Urgency != nil {
		content.WriteString("\n")
		content.WriteString(urgencyStyle(*res.Urgency).Render(res.Urgency.Message()))
		content.WriteString("\n")
	}
	if res.Fallback {
		content.WriteString("\n")
		content.WriteString(warningStyle.Render("⚠ Itinerary could not be matched; showing a placeholder"))
		content.WriteString("\n")
	}

	return sectionBoxStyle.Width(width).Render(content.String())
}

// renderVesselPane renders the live position and arrival estimate
func (m Model) renderVesselPane(width int) string {
	var content strings.Builder
	content.WriteString(sectionHeaderStyle.Render("Vessel"))
	content.WriteString("\n")

	if m.status == nil || (m.status.Position == nil && !m.status.Degraded) {
		content.WriteString(mutedStyle.Render("Schedule only"))
		return sectionBoxStyle.Width(width).Render(content.String())
	}

	if p := m.status.Position; p != nil {
		content.WriteString(labelStyle.Render("Position: "))
		content.WriteString(valueStyle.Render(fmt.Sprintf("%.4f, %.4f", p.Latitude, p.Longitude)))
		content.WriteString("\n")
		content.WriteString(labelStyle.Render("Speed: "))
		content.WriteString(valueStyle.Render(fmt.Sprintf("%.1f kn, heading %.0f°", p.Speed, p.Heading)))
		content.WriteString("\n")
		if m.deps.Nearby != nil && !p.AtSea() {
			if port, ok := m.deps.Nearby(p.Latitude, p.Longitude); ok {
				content.WriteString(labelStyle.Render("Docked: "))
				content.WriteString(valueStyle.Render(port))
				content.WriteString("\n")
			}
		}
	}

	if eta := m.status.ETA; eta != nil {
		content.WriteString(labelStyle.Render("ETA: "))
		content.WriteString(valueStyle.Render(eta.EstimatedArrival.Format("Mon 3:04 PM")))
		content.WriteString(" ")
		content.WriteString(etaStyle(eta.Status).Render(etaText(*eta)))
		content.WriteString("\n")
	}

	if m.status.Simulated {
		content.WriteString(warningStyle.Render("Simulated position"))
		content.WriteString("\n")
	}
	if m.status.Degraded {
		content.WriteString(warningStyle.Render("⚠ Live feed reconnecting"))
		content.WriteString("\n")
	}
	return sectionBoxStyle.Width(width).Render(strings.TrimRight(content.String(), "\n"))
}

// renderWeatherPane renders the weather snapshot stored on the timer
func (m Model) renderWeatherPane(width int) string {
	var content strings.Builder
	w := m.selected.Weather

	content.WriteString(sectionHeaderStyle.Render("Weather"))
	content.WriteString("\n")
	content.WriteString(valueStyle.Render(fmt.Sprintf("%d°F %s", w.Temp, w.Condition)))

	for _, f := range w.Forecast {
		content.WriteString("\n")
		content.WriteString(labelStyle.Render(f.Time + ": "))
		content.WriteString(valueStyle.Render(fmt.Sprintf("%d°F %s", f.Temp, f.Condition)))
	}

	for _, a := range m.advisories {
		content.WriteString("\n")
		style := warningStyle
		if a.Serious() {
			style = errorStyle
		}
		content.WriteString(style.Render("⚠ " + a.Event))
		if !a.Expires.IsZero() {
			content.WriteString(mutedStyle.Render(" until " + a.Expires.In(m.now.Location()).Format("Mon 3:04 PM")))
		}
	}
	return sectionBoxStyle.Width(width).Render(content.String())
}

func etaText(eta models.ETAEstimate) string {
	switch {
	case eta.MinutesEarly != nil:
		return fmt.Sprintf("(%d min early)", *eta.MinutesEarly)
	case eta.MinutesLate != nil:
		return fmt.Sprintf("(%d min late)", *eta.MinutesLate)
	}
	return "(" + string(eta.Status) + ")"
}

func etaStyle(s models.ArrivalStatus) lipgloss.Style {
	switch s {
	case models.ArrivalDelayed:
		return warningStyle
	case models.ArrivalEarly:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	}
	return mutedStyle
}

// progressBar draws the remaining share of the day as a bar
func progressBar(ratio float64, width int) string {
	filled := int(ratio*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return lipgloss.NewStyle().Foreground(colorPrimary).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}
