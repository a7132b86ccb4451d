package scheduling

import (
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func groupMonFri(id string) models.ClassGroup {
	return models.ClassGroup{ID: id, ClassesPerDay: 5, WeekDays: pq.Int64Array{1, 2, 3, 4, 5}}
}

func findByID(bookings []models.Booking, id string) (models.Booking, bool) {
	for _, b := range bookings {
		if b.ID == id {
			return b, true
		}
	}
	return models.Booking{}, false
}

func TestReallocateNoConflictingBookingsIsNoop(t *testing.T) {
	day := date(t, "2024-03-07")
	bookings := []models.Booking{
		eveningClass("b1", day, "I1", "R1", "G1", "Math"),
	}

	result := Reallocate(ReallocationInput{
		Bookings:   bookings,
		NewDayOffs: []time.Time{date(t, "2024-03-20")},
		Calendar:   NewCalendar(nil),
		Groups:     map[string]models.ClassGroup{"G1": groupMonFri("G1")},
	})

	assert.False(t, result.Changed)
	assert.Empty(t, result.Moved)
	assert.Empty(t, result.Dropped)
	assert.Equal(t, bookings, result.Working)
}

func TestReallocateEmptyDayOffsIsNoop(t *testing.T) {
	bookings := []models.Booking{
		eveningClass("b1", date(t, "2024-03-07"), "I1", "R1", "G1", "Math"),
	}

	result := Reallocate(ReallocationInput{
		Bookings: bookings,
		Calendar: NewCalendar(nil),
		Groups:   map[string]models.ClassGroup{"G1": groupMonFri("G1")},
	})

	assert.False(t, result.Changed)
	assert.Equal(t, bookings, result.Working)
}

func TestReallocateTailAppendsAfterLatestSubjectSession(t *testing.T) {
	// Math for G1 exists on 03-04 (Mon) and 03-07 (Thu); 03-07 becomes a
	// holiday. The displaced session must land after 03-04, the latest
	// surviving Math date, on the next valid weekday that is not blocked.
	blocked := date(t, "2024-03-07")
	bookings := []models.Booking{
		eveningClass("b1", date(t, "2024-03-04"), "I1", "R1", "G1", "Math"),
		eveningClass("b2", blocked, "I1", "R1", "G1", "Math"),
	}

	result := Reallocate(ReallocationInput{
		Bookings:   bookings,
		NewDayOffs: []time.Time{blocked},
		Calendar:   NewCalendar(nil),
		Groups:     map[string]models.ClassGroup{"G1": groupMonFri("G1")},
		NewID:      sequentialIDs("moved"),
	})

	assert.True(t, result.Changed)
	require.Len(t, result.Moved, 1)
	assert.Equal(t, "b2", result.Moved[0].BookingID)
	// Day after 03-04 is 03-05 (Tue), a valid weekday and not blocked.
	assert.Equal(t, "2024-03-05", DateKey(result.Moved[0].To))

	// Original survivor is untouched; displaced booking replaced by clone.
	_, survived := findByID(result.Working, "b1")
	assert.True(t, survived)
	_, stillThere := findByID(result.Working, "b2")
	assert.False(t, stillThere)
	moved, ok := findByID(result.Working, "moved-1")
	require.True(t, ok)
	assert.Equal(t, "Math", moved.SubjectName())
	assert.Equal(t, "2024-03-05", DateKey(moved.Date))
}

func TestReallocateSkipsNewAndExistingBlackouts(t *testing.T) {
	blocked := date(t, "2024-03-06")
	bookings := []models.Booking{
		eveningClass("b1", date(t, "2024-03-05"), "I1", "R1", "G1", "Math"),
		eveningClass("b2", blocked, "I1", "R1", "G1", "Math"),
	}

	// 03-06 is the new day off; 03-07 is already blocked in the calendar,
	// so the clone must land on 03-08.
	result := Reallocate(ReallocationInput{
		Bookings:   bookings,
		NewDayOffs: []time.Time{blocked},
		Calendar: NewCalendar([]models.BlackoutEntry{
			{Date: date(t, "2024-03-07"), Title: "Recesso", IsDayOff: true},
		}),
		Groups: map[string]models.ClassGroup{"G1": groupMonFri("G1")},
		NewID:  sequentialIDs("moved"),
	})

	require.Len(t, result.Moved, 1)
	assert.Equal(t, "2024-03-08", DateKey(result.Moved[0].To))
}

func TestReallocateFoldOrderThreadsEarlierMoves(t *testing.T) {
	// Two Math sessions for the same group displaced by the same day off.
	// The second relocation must observe the first clone as the new latest
	// session and land after it.
	blocked := date(t, "2024-03-07")
	secondBlocked := date(t, "2024-03-08")
	bookings := []models.Booking{
		eveningClass("b1", date(t, "2024-03-04"), "I1", "R1", "G1", "Math"),
		eveningClass("b2", blocked, "I1", "R1", "G1", "Math"),
		eveningClass("b3", secondBlocked, "I1", "R1", "G1", "Math"),
	}

	result := Reallocate(ReallocationInput{
		Bookings:   bookings,
		NewDayOffs: []time.Time{blocked, secondBlocked},
		Calendar:   NewCalendar(nil),
		Groups:     map[string]models.ClassGroup{"G1": groupMonFri("G1")},
		NewID:      sequentialIDs("moved"),
	})

	require.Len(t, result.Moved, 2)
	assert.Equal(t, "2024-03-05", DateKey(result.Moved[0].To))
	assert.Equal(t, "2024-03-06", DateKey(result.Moved[1].To))
}

func TestReallocateDropsUnresolvedGroup(t *testing.T) {
	blocked := date(t, "2024-03-07")
	bookings := []models.Booking{
		eveningClass("b1", blocked, "I1", "R1", "G-missing", "Math"),
	}

	result := Reallocate(ReallocationInput{
		Bookings:   bookings,
		NewDayOffs: []time.Time{blocked},
		Calendar:   NewCalendar(nil),
		Groups:     map[string]models.ClassGroup{},
	})

	assert.True(t, result.Changed)
	assert.Empty(t, result.Moved)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "b1", result.Dropped[0].ID)
	assert.Empty(t, result.Working)
}

func TestReallocateLeavesNonClassBookingsInPlace(t *testing.T) {
	blocked := date(t, "2024-03-07")
	meeting := eveningClass("m1", blocked, "I1", "R1", "G1", "")
	meeting.Type = models.ActivityMeeting

	result := Reallocate(ReallocationInput{
		Bookings:   []models.Booking{meeting},
		NewDayOffs: []time.Time{blocked},
		Calendar:   NewCalendar(nil),
		Groups:     map[string]models.ClassGroup{"G1": groupMonFri("G1")},
	})

	assert.False(t, result.Changed)
	_, ok := findByID(result.Working, "m1")
	assert.True(t, ok)
}

func TestReallocateRespectsRemoteSubjectFridayOverride(t *testing.T) {
	blocked := date(t, "2024-03-06") // Wednesday
	bookings := []models.Booking{
		eveningClass("b1", blocked, "I1", "R1", "G1", "EAD - Redes"),
	}

	result := Reallocate(ReallocationInput{
		Bookings:   bookings,
		NewDayOffs: []time.Time{blocked},
		Calendar:   NewCalendar(nil),
		Groups:     map[string]models.ClassGroup{"G1": groupMonFri("G1")},
		NewID:      sequentialIDs("moved"),
	})

	require.Len(t, result.Moved, 1)
	assert.Equal(t, "2024-03-08", DateKey(result.Moved[0].To)) // next Friday
}

func TestReallocateCountsUnplacedSeparately(t *testing.T) {
	blocked := date(t, "2024-03-06")
	bookings := []models.Booking{
		eveningClass("b1", blocked, "I1", "R1", "G1", "Math"),
	}

	// Lookahead too small to reach any valid weekday: Saturday-only group
	// with a 1-day bound starting Thursday.
	group := groupMonFri("G1")
	group.WeekDays = pq.Int64Array{6}

	result := Reallocate(ReallocationInput{
		Bookings:         bookings,
		NewDayOffs:       []time.Time{blocked},
		Calendar:         NewCalendar(nil),
		Groups:           map[string]models.ClassGroup{"G1": group},
		MaxLookaheadDays: 1,
	})

	assert.Empty(t, result.Moved)
	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, "b1", result.Unplaced[0].ID)
}
