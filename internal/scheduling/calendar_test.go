package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, value)
	require.NoError(t, err)
	return d
}

func TestCalendarLookup(t *testing.T) {
	cal := NewCalendar([]models.BlackoutEntry{
		{Date: date(t, "2024-03-06"), Title: "Feriado Municipal", IsDayOff: true},
		{Date: date(t, "2024-03-08"), Title: "Palestra", IsDayOff: false},
	})

	entry, ok := cal.Lookup(date(t, "2024-03-06"))
	require.True(t, ok)
	assert.Equal(t, "Feriado Municipal", entry.Title)
	assert.True(t, cal.IsDayOff(date(t, "2024-03-06")))

	// Entry exists but instruction is not blocked.
	assert.False(t, cal.IsDayOff(date(t, "2024-03-08")))

	_, ok = cal.Lookup(date(t, "2024-03-07"))
	assert.False(t, ok)
	assert.False(t, cal.IsDayOff(date(t, "2024-03-07")))
}

func TestCalendarLastEntryWinsPerDate(t *testing.T) {
	cal := NewCalendar([]models.BlackoutEntry{
		{Date: date(t, "2024-03-06"), Title: "Old", IsDayOff: false},
		{Date: date(t, "2024-03-06"), Title: "Replaced", IsDayOff: true},
	})

	assert.True(t, cal.IsDayOff(date(t, "2024-03-06")))
	assert.Equal(t, "Replaced", cal.Title(date(t, "2024-03-06")))
}

func TestCalendarWithDayOffsDoesNotMutateReceiver(t *testing.T) {
	cal := NewCalendar(nil)
	extended := cal.WithDayOffs([]time.Time{date(t, "2024-05-01")}, "Dia do Trabalho")

	assert.True(t, extended.IsDayOff(date(t, "2024-05-01")))
	assert.False(t, cal.IsDayOff(date(t, "2024-05-01")))
}

func TestDateKeyNormalizesTimeOfDay(t *testing.T) {
	noon := time.Date(2024, 3, 6, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-06", DateKey(noon))
}
