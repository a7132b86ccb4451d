package scheduling

import (
	"time"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

// DateLayout is the canonical key format for calendar dates.
const DateLayout = "2006-01-02"

// DateKey normalizes a timestamp to its calendar-date key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Calendar answers whether a date is instructional and why. It indexes a
// blackout list by date key; absence means the day is instructional.
type Calendar struct {
	entries map[string]models.BlackoutEntry
}

// NewCalendar builds an indexed calendar from a blackout list. When the list
// carries more than one entry for a date, the last one wins, matching
// upsert-by-date persistence.
func NewCalendar(entries []models.BlackoutEntry) *Calendar {
	idx := make(map[string]models.BlackoutEntry, len(entries))
	for _, e := range entries {
		idx[DateKey(e.Date)] = e
	}
	return &Calendar{entries: idx}
}

// Lookup returns the blackout entry for a date, if any.
func (c *Calendar) Lookup(date time.Time) (models.BlackoutEntry, bool) {
	e, ok := c.entries[DateKey(date)]
	return e, ok
}

// IsDayOff reports whether the date is blocked for instruction.
func (c *Calendar) IsDayOff(date time.Time) bool {
	e, ok := c.entries[DateKey(date)]
	return ok && e.IsDayOff
}

// Title returns the blackout title for a date, or empty when the date is
// instructional.
func (c *Calendar) Title(date time.Time) string {
	if e, ok := c.entries[DateKey(date)]; ok {
		return e.Title
	}
	return ""
}

// WithDayOffs returns a copy of the calendar with the given dates added as
// day-off entries. The receiver is not modified.
func (c *Calendar) WithDayOffs(dates []time.Time, title string) *Calendar {
	idx := make(map[string]models.BlackoutEntry, len(c.entries)+len(dates))
	for k, v := range c.entries {
		idx[k] = v
	}
	for _, d := range dates {
		idx[DateKey(d)] = models.BlackoutEntry{Date: d, Title: title, IsDayOff: true}
	}
	return &Calendar{entries: idx}
}
