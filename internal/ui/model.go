package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/noaa"
	"github.com/ngmaloney/portpal/internal/notify"
	"github.com/ngmaloney/portpal/internal/timers"
)

// AppState represents the current screen
type AppState int

const (
	StateTimers     AppState = iota // List of departure timers
	StateVoyages                    // Pick a catalog cruise
	StateEmbarkDate                 // Enter the embarkation date
	StateCurrentPort                // Pick where an in-progress cruise is today
	StateCountdown                  // Countdown for one timer
	StateEditTimer                  // Edit ship, port, berth and departure
	StateAlertSettings              // Toggle alert lead times
	StateError                      // Error state
)

const dateLayout = "2006-01-02"

// Tracker is the live feed as the countdown uses it
type Tracker interface {
	timers.Feed
	Start(ctx context.Context, vesselID string, scheduled time.Time, dest models.Coordinate) error
	Stop()
}

// Deps are the services the UI drives
type Deps struct {
	Manager *timers.Manager
	// Tracker is nil when live data is off
	Tracker Tracker
	Locate  timers.Locator
	// Nearby names the port a fix is at; nil skips it
	Nearby func(lat, lon float64) (string, bool)
	Alerts <-chan notify.Notification
	// Advisories is nil when weather warnings are not wanted
	Advisories noaa.AdvisorySource
	// SaveAlerts persists alert settings; nil keeps them for this run only
	SaveAlerts func(notify.Settings) error
	Now        func() time.Time
	// TickInterval is how often the monitor re-evaluates
	TickInterval time.Duration
}

// Model represents the application's state
type Model struct {
	deps   Deps
	state  AppState
	width  int
	height int
	err    error

	timerList  list.Model
	voyageList list.Model
	stopList   list.Model
	dateInput  textinput.Model
	spinner    spinner.Model

	voyage *voyageItem

	// countdown
	selected *models.Timer
	session  *session
	status   *timers.Status
	now      time.Time

	advisories []models.Advisory

	// edit form
	editing    *models.Timer
	editInputs []textinput.Model
	editFocus  int

	alertSettings notify.Settings
	alertCursor   int

	alert *notify.Notification
}

// NewModel creates the application model
func NewModel(deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Locate == nil {
		deps.Locate = func(string) models.Coordinate { return models.Coordinate{} }
	}

	ti := textinput.New()
	ti.Placeholder = "YYYY-MM-DD"
	ti.CharLimit = 10
	ti.Width = 20

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := Model{
		deps:      deps,
		state:     StateTimers,
		dateInput: ti,
		spinner:   s,
		now:       deps.Now(),
	}
	m.refreshTimers()
	m.voyageList = createVoyageList(m.listWidth(), m.listHeight())
	m.stopList = createStopList(models.Itinerary{}, m.listWidth(), m.listHeight())
	return m
}

// Init starts the clock and the alert listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickClock(), waitForAlert(m.deps.Alerts))
}

func (m *Model) refreshTimers() {
	var ts []models.Timer
	if m.deps.Manager != nil {
		ts = m.deps.Manager.Timers()
	}
	m.timerList = createTimerList(ts, m.listWidth(), m.listHeight())
}

func (m Model) listWidth() int {
	if m.width < 4 {
		return 80
	}
	return m.width - 4
}

func (m Model) listHeight() int {
	if m.height < 10 {
		return 20
	}
	return m.height - 8
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.timerList.SetSize(m.listWidth(), m.listHeight())
		m.voyageList.SetSize(m.listWidth(), m.listHeight())
		m.stopList.SetSize(m.listWidth(), m.listHeight())
		return m, nil
	}

	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	case clockMsg:
		m.now = time.Time(msg)
		return m, tickClock()

	case alertMsg:
		n := notify.Notification(msg)
		m.alert = &n
		return m, waitForAlert(m.deps.Alerts)

	case timersChangedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.editing = nil
		m.refreshTimers()
		m.state = StateTimers
		return m, nil

	case monitorStartedMsg:
		// the user may have backed out before the session came up
		if m.state != StateCountdown || m.selected == nil || m.selected.ID != msg.session.timerID {
			msg.session.stop()
			return m, nil
		}
		m.session = msg.session
		return m, waitForStatus(m.session)

	case statusMsg:
		if m.session == nil || msg.TimerID != m.session.timerID {
			return m, nil
		}
		st := timers.Status(msg)
		m.status = &st
		return m, waitForStatus(m.session)

	case monitorDoneMsg:
		return m, nil

	case alertSettingsMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.state = StateTimers
		return m, nil

	case advisoriesMsg:
		if m.selected == nil || msg.timerID != m.selected.ID {
			return m, nil
		}
		if msg.err != nil {
			log.Warnf("Advisories for %s unavailable: %v", m.selected.TargetPort, msg.err)
			return m, nil
		}
		m.advisories = msg.advisories
		return m, nil

	case spinner.TickMsg:
		if m.state == StateCountdown && m.status == nil {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "ctrl+c" {
			m.session.stop()
			return m, tea.Quit
		}
		// any key dismisses a delivered alert
		m.alert = nil

		switch m.state {
		case StateTimers:
			return m.handleTimerList(keyMsg)
		case StateVoyages:
			return m.handleVoyageList(keyMsg)
		case StateEmbarkDate:
			return m.handleDateInput(keyMsg)
		case StateCurrentPort:
			return m.handleStopList(keyMsg)
		case StateCountdown:
			return m.handleCountdown(keyMsg)
		case StateEditTimer:
			return m.handleEdit(keyMsg)
		case StateAlertSettings:
			return m.handleAlertSettings(keyMsg)
		case StateError:
			m.state = StateTimers
			m.err = nil
			return m, nil
		}
	}

	return m, nil
}

func (m Model) handleTimerList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n":
		m.voyageList = createVoyageList(m.listWidth(), m.listHeight())
		m.state = StateVoyages
		return m, nil
	case "enter":
		if item, ok := m.timerList.SelectedItem().(timerItem); ok {
			t := item.timer
			m.selected = &t
			m.status = nil
			m.advisories = nil
			m.state = StateCountdown
			return m, tea.Batch(startMonitor(m.deps, t), fetchAdvisories(m.deps, t), m.spinner.Tick)
		}
		return m, nil
	case "e":
		if item, ok := m.timerList.SelectedItem().(timerItem); ok {
			t := item.timer
			m.editing = &t
			m.editInputs = newEditForm(t)
			m.editFocus = fieldShip
			m.err = nil
			m.state = StateEditTimer
			return m, textinput.Blink
		}
		return m, nil
	case "a":
		if m.deps.Manager != nil {
			m.alertSettings = m.deps.Manager.Settings()
		}
		m.alertCursor = 0
		m.state = StateAlertSettings
		return m, nil
	case "d":
		if item, ok := m.timerList.SelectedItem().(timerItem); ok {
			return m, deleteTimer(m.deps, item.timer.ID)
		}
		return m, nil
	case "X":
		return m, clearTimers(m.deps)
	}
	m.timerList, cmd = m.timerList.Update(msg)
	return m, cmd
}

func (m Model) handleVoyageList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		m.state = StateTimers
		return m, nil
	case "enter", "p":
		item, ok := m.voyageList.SelectedItem().(voyageItem)
		if !ok {
			return m, nil
		}
		m.voyage = &item
		if msg.String() == "p" {
			m.stopList = createStopList(item.itinerary, m.listWidth(), m.listHeight())
			m.state = StateCurrentPort
			return m, nil
		}
		m.dateInput.SetValue("")
		m.dateInput.Focus()
		m.state = StateEmbarkDate
		return m, textinput.Blink
	}
	m.voyageList, cmd = m.voyageList.Update(msg)
	return m, cmd
}

func (m Model) handleDateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Type {
	case tea.KeyEsc:
		m.dateInput.Blur()
		m.state = StateVoyages
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.dateInput.Value())
		embark, err := time.ParseInLocation(dateLayout, value, m.deps.Now().Location())
		if err != nil {
			m.err = fmt.Errorf("embarkation date %q is not YYYY-MM-DD", value)
			return m, nil
		}
		m.err = nil
		m.dateInput.Blur()
		return m, createTimers(m.deps, m.voyage.ship, m.voyage.itinerary, embark, -1)
	}
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func (m Model) handleStopList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		m.state = StateVoyages
		return m, nil
	case "enter":
		if item, ok := m.stopList.SelectedItem().(stopItem); ok {
			return m, createTimers(m.deps, m.voyage.ship, m.voyage.itinerary, time.Time{}, item.index)
		}
		return m, nil
	}
	m.stopList, cmd = m.stopList.Update(msg)
	return m, cmd
}

func (m Model) handleCountdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.session.stop()
		return m, tea.Quit
	case "esc", "backspace":
		m.session.stop()
		m.session = nil
		m.selected = nil
		m.status = nil
		m.refreshTimers()
		m.state = StateTimers
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	switch m.state {
	case StateTimers:
		body = m.viewTimers()
	case StateVoyages:
		body = m.viewList(m.voyageList, "Enter: Pick embarkation date • P: Cruise already in progress • Esc: Back")
	case StateCurrentPort:
		body = m.viewList(m.stopList, "Enter: Select • Esc: Back")
	case StateEmbarkDate:
		body = m.viewDateInput()
	case StateCountdown:
		body = m.viewCountdown()
	case StateEditTimer:
		body = m.viewEdit()
	case StateAlertSettings:
		body = m.viewAlertSettings()
	case StateError:
		body = m.viewError()
	}

	if m.alert != nil {
		banner := alertBannerStyle.Render(m.alert.Title)
		body = lipgloss.JoinVertical(lipgloss.Left, banner, mutedStyle.Render(m.alert.Body), "", body)
	}
	return body
}

func (m Model) viewTimers() string {
	if len(m.timerList.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("⚓ PortPal"),
			mutedStyle.Render("No departure timers yet"),
			"",
			helpStyle.Render("N: New cruise • A: Alerts • Q: Quit"),
		)
	}
	return m.viewList(m.timerList, "Enter: Countdown • N: New cruise • E: Edit • A: Alerts • D: Delete • X: Delete all • Q: Quit")
}

func (m Model) viewList(l list.Model, help string) string {
	return lipgloss.JoinVertical(lipgloss.Left, l.View(), helpStyle.Render(help))
}

func (m Model) viewDateInput() string {
	var sections []string
	sections = append(sections, titleStyle.Render("⚓ Embarkation Date"))
	if m.voyage != nil {
		sections = append(sections, mutedStyle.Render(m.voyage.Title()))
	}
	sections = append(sections, "", sectionBoxStyle.Render(m.dateInput.View()))
	if m.err != nil {
		sections = append(sections, errorStyle.Render("✗ "+m.err.Error()))
	}
	sections = append(sections, helpStyle.Render("Enter: Create timers • Esc: Back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewError renders the error view
func (m Model) viewError() string {
	errorMsg := "An unknown error occurred"
	if m.err != nil {
		errorMsg = m.err.Error()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("✗ Error"),
		"",
		errorMsg,
		"",
		helpStyle.Render("Press any key to return • Ctrl+C: Quit"),
	)
}
