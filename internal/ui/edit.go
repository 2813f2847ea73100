package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/notify"
)

const departureLayout = "2006-01-02 15:04"

// edit form fields, in tab order
const (
	fieldShip = iota
	fieldPort
	fieldBerth
	fieldDeparture
	fieldCount
)

var fieldLabels = [fieldCount]string{"Ship", "Port", "Berth", "Departure"}

// newEditForm fills one input per editable field from t
func newEditForm(t models.Timer) []textinput.Model {
	values := [fieldCount]string{
		t.ShipName,
		t.TargetPort,
		t.Berth,
		t.DepartureInstant.Format(departureLayout),
	}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 60
		ti.Width = 40
		ti.SetValue(values[i])
		inputs[i] = ti
	}
	inputs[fieldDeparture].Placeholder = "YYYY-MM-DD HH:MM"
	inputs[fieldShip].Focus()
	return inputs
}

// editFromForm reads the form back. The departure is read in the
// timer's own location.
func editFromForm(inputs []textinput.Model, loc *time.Location) (models.TimerEdit, error) {
	ship := strings.TrimSpace(inputs[fieldShip].Value())
	port := strings.TrimSpace(inputs[fieldPort].Value())
	berth := strings.TrimSpace(inputs[fieldBerth].Value())
	raw := strings.TrimSpace(inputs[fieldDeparture].Value())

	if ship == "" || port == "" {
		return models.TimerEdit{}, fmt.Errorf("ship and port are required")
	}
	if berth == "" {
		berth = models.DefaultBerth
	}
	departure, err := time.ParseInLocation(departureLayout, raw, loc)
	if err != nil {
		return models.TimerEdit{}, fmt.Errorf("departure %q is not YYYY-MM-DD HH:MM", raw)
	}
	return models.TimerEdit{ShipName: &ship, Port: &port, Berth: &berth, Departure: &departure}, nil
}

func (m Model) handleEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = nil
		m.err = nil
		m.state = StateTimers
		return m, nil
	case "tab", "down":
		return m.focusField((m.editFocus + 1) % fieldCount)
	case "shift+tab", "up":
		return m.focusField((m.editFocus + fieldCount - 1) % fieldCount)
	case "enter":
		edit, err := editFromForm(m.editInputs, m.editing.DepartureInstant.Location())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		return m, updateTimer(m.deps, m.editing.ID, edit)
	}

	var cmd tea.Cmd
	m.editInputs[m.editFocus], cmd = m.editInputs[m.editFocus].Update(msg)
	return m, cmd
}

func (m Model) focusField(i int) (tea.Model, tea.Cmd) {
	m.editInputs[m.editFocus].Blur()
	m.editFocus = i
	return m, m.editInputs[i].Focus()
}

func (m Model) viewEdit() string {
	sections := []string{titleStyle.Render("⚓ Edit Timer")}
	for i, in := range m.editInputs {
		label := labelStyle.Render(fmt.Sprintf("%-10s", fieldLabels[i]))
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, label, " ", in.View()))
	}
	if m.err != nil {
		sections = append(sections, "", errorStyle.Render("✗ "+m.err.Error()))
	}
	sections = append(sections, helpStyle.Render("Tab: Next field • Enter: Save • Esc: Cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// alert lead time rows, longest first
var alertRows = []struct {
	minutes int
	label   string
}{
	{60, "60 min before departure"},
	{30, "30 min before departure"},
	{15, "15 min before departure"},
	{5, "5 min before departure"},
}

func toggleAlert(s notify.Settings, minutes int) notify.Settings {
	switch minutes {
	case 60:
		s.Alert60 = !s.Alert60
	case 30:
		s.Alert30 = !s.Alert30
	case 15:
		s.Alert15 = !s.Alert15
	case 5:
		s.Alert5 = !s.Alert5
	}
	return s
}

func alertOn(s notify.Settings, minutes int) bool {
	switch minutes {
	case 60:
		return s.Alert60
	case 30:
		return s.Alert30
	case 15:
		return s.Alert15
	case 5:
		return s.Alert5
	}
	return false
}

func (m Model) handleAlertSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = StateTimers
		return m, nil
	case "up", "k":
		if m.alertCursor > 0 {
			m.alertCursor--
		}
	case "down", "j":
		if m.alertCursor < len(alertRows)-1 {
			m.alertCursor++
		}
	case " ", "x":
		m.alertSettings = toggleAlert(m.alertSettings, alertRows[m.alertCursor].minutes)
	case "enter", "s":
		return m, saveAlertSettings(m.deps, m.alertSettings)
	}
	return m, nil
}

func (m Model) viewAlertSettings() string {
	sections := []string{titleStyle.Render("🔔 Departure Alerts"), ""}
	for i, row := range alertRows {
		box := "[ ]"
		if alertOn(m.alertSettings, row.minutes) {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, row.label)
		if i == m.alertCursor {
			line = titleStyle.Render("> " + line)
		} else {
			line = "  " + valueStyle.Render(line)
		}
		sections = append(sections, line)
	}
	sections = append(sections, helpStyle.Render("Space: Toggle • Enter: Save • Esc: Cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
