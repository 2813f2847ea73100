package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ngmaloney/portpal/internal/catalog"
	"github.com/ngmaloney/portpal/internal/models"
)

// timerItem wraps a Timer for use in a list
type timerItem struct {
	timer models.Timer
}

// FilterValue implements list.Item
func (i timerItem) FilterValue() string {
	return i.timer.ShipName + " " + i.timer.TargetPort
}

// Title implements list.DefaultItem
func (i timerItem) Title() string {
	return fmt.Sprintf("%s - %s", i.timer.TargetPort, i.timer.ShipName)
}

// Description implements list.DefaultItem
func (i timerItem) Description() string {
	return fmt.Sprintf("Departs %s • Berth %s • %s",
		i.timer.DepartureInstant.Format("Mon Jan 2 3:04 PM"), i.timer.Berth, i.timer.Status)
}

// voyageItem is one catalog itinerary on one ship
type voyageItem struct {
	ship      catalog.Ship
	itinerary models.Itinerary
}

func (i voyageItem) FilterValue() string {
	return i.ship.Name + " " + i.itinerary.Name
}

func (i voyageItem) Title() string {
	return fmt.Sprintf("%s - %s", i.ship.Name, i.itinerary.Name)
}

func (i voyageItem) Description() string {
	return fmt.Sprintf("%d days from %s • MMSI %s", i.itinerary.DurationDays, i.itinerary.EmbarkationPort, i.ship.MMSI)
}

// stopItem is an arrival that can be picked as the current port
type stopItem struct {
	index int
	stop  models.PortStop
}

func (i stopItem) FilterValue() string { return i.stop.Port }
func (i stopItem) Title() string       { return i.stop.Port }
func (i stopItem) Description() string {
	return fmt.Sprintf("%s, arriving %s", i.stop.DayLabel(), i.stop.Time)
}

func newList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)
	return l
}

// createTimerList creates a list.Model from the manager's timers
func createTimerList(ts []models.Timer, width, height int) list.Model {
	items := make([]list.Item, len(ts))
	for i, t := range ts {
		items[i] = timerItem{timer: t}
	}
	return newList("Departure Timers", items, width, height)
}

// createVoyageList lists every catalog itinerary
func createVoyageList(width, height int) list.Model {
	var items []list.Item
	for _, ship := range catalog.Ships() {
		for _, itin := range ship.Itineraries {
			items = append(items, voyageItem{ship: ship, itinerary: itin})
		}
	}
	return newList("Choose a Cruise", items, width, height)
}

// createStopList lists the arrivals of an itinerary
func createStopList(itin models.Itinerary, width, height int) list.Model {
	var items []list.Item
	for idx, s := range itin.Stops {
		if s.Status == models.StopArrival {
			items = append(items, stopItem{index: idx, stop: s})
		}
	}
	return newList("Where is the ship today?", items, width, height)
}
