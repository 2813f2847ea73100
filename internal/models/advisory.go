package models

import "time"

// AdvisorySeverity represents the severity level of a weather advisory
type AdvisorySeverity string

const (
	SeverityExtreme  AdvisorySeverity = "Extreme"
	SeveritySevere   AdvisorySeverity = "Severe"
	SeverityModerate AdvisorySeverity = "Moderate"
	SeverityMinor    AdvisorySeverity = "Minor"
	SeverityUnknown  AdvisorySeverity = "Unknown"
)

// Advisory is an active weather warning covering a port
type Advisory struct {
	ID          string
	Event       string // e.g. "Tropical Storm Warning", "Rip Current Statement"
	Headline    string
	Severity    AdvisorySeverity
	Onset       time.Time
	Expires     time.Time
	Instruction string
}

// Active reports whether the advisory is in force at now. A zero Expires never lapses.
func (a Advisory) Active(now time.Time) bool {
	if !a.Onset.IsZero() && now.Before(a.Onset) {
		return false
	}
	return a.Expires.IsZero() || now.Before(a.Expires)
}

// Serious reports whether shore plans should change because of it
func (a Advisory) Serious() bool {
	return a.Severity == SeverityExtreme || a.Severity == SeveritySevere
}
