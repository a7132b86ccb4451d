package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

func strPtr(s string) *string { return &s }

func eveningClass(id string, day time.Time, instructor, room, group, subject string) models.Booking {
	b := models.Booking{
		ID:           id,
		Type:         models.ActivityClass,
		Title:        subject,
		Date:         day,
		Shift:        models.ShiftEvening,
		InstructorID: instructor,
		RoomID:       room,
	}
	if group != "" {
		b.ClassGroupID = strPtr(group)
	}
	if subject != "" {
		b.Subject = strPtr(subject)
	}
	return b
}

func TestValidateRejectsHoliday(t *testing.T) {
	day := date(t, "2024-03-06")
	cal := NewCalendar([]models.BlackoutEntry{{Date: day, Title: "Feriado", IsDayOff: true}})
	idx := NewBookingIndex(nil)

	candidate := eveningClass("b1", day, "I1", "R1", "G1", "Math")
	err := Validate(candidate, cal, idx, "")
	require.NotNil(t, err)
	assert.Equal(t, ReasonHoliday, err.Reason)
	assert.Equal(t, "Feriado", err.Title)
}

func TestValidateRejectsSameInstructorDifferentRoom(t *testing.T) {
	day := date(t, "2024-03-07")
	cal := NewCalendar(nil)
	idx := NewBookingIndex([]models.Booking{
		eveningClass("b1", day, "I1", "R1", "G1", "Math"),
	})

	candidate := eveningClass("b2", day, "I1", "R2", "G2", "Physics")
	err := Validate(candidate, cal, idx, "")
	require.NotNil(t, err)
	assert.Equal(t, ReasonConflict, err.Reason)
	assert.Equal(t, DimensionInstructor, err.Dimension)
	require.NotNil(t, err.Conflict)
	assert.Equal(t, "b1", err.Conflict.ID)
}

func TestValidateRejectsRoomAndClassGroupDimensions(t *testing.T) {
	day := date(t, "2024-03-07")
	cal := NewCalendar(nil)
	idx := NewBookingIndex([]models.Booking{
		eveningClass("b1", day, "I1", "R1", "G1", "Math"),
	})

	roomErr := Validate(eveningClass("b2", day, "I2", "R1", "G2", ""), cal, idx, "")
	require.NotNil(t, roomErr)
	assert.Equal(t, DimensionRoom, roomErr.Dimension)

	groupErr := Validate(eveningClass("b3", day, "I2", "R2", "G1", ""), cal, idx, "")
	require.NotNil(t, groupErr)
	assert.Equal(t, DimensionClassGroup, groupErr.Dimension)
}

func TestValidateAllowsDifferentShiftSameDay(t *testing.T) {
	day := date(t, "2024-03-07")
	cal := NewCalendar(nil)
	idx := NewBookingIndex([]models.Booking{
		eveningClass("b1", day, "I1", "R1", "G1", "Math"),
	})

	candidate := eveningClass("b2", day, "I1", "R1", "G1", "Math")
	candidate.Shift = models.ShiftMorning
	assert.Nil(t, Validate(candidate, cal, idx, ""))
}

func TestValidateExcludesOwnIdentityOnUpdate(t *testing.T) {
	day := date(t, "2024-03-07")
	cal := NewCalendar(nil)
	idx := NewBookingIndex([]models.Booking{
		eveningClass("b1", day, "I1", "R1", "G1", "Math"),
	})

	updated := eveningClass("b1", day, "I1", "R1", "G1", "Math")
	assert.Nil(t, Validate(updated, cal, idx, "b1"))
}

func TestValidateComparesCanonicalizedIDs(t *testing.T) {
	day := date(t, "2024-03-07")
	cal := NewCalendar(nil)
	idx := NewBookingIndex([]models.Booking{
		eveningClass("b1", day, " 42 ", "R1", "", ""),
	})

	candidate := eveningClass("b2", day, "42", "R2", "", "")
	err := Validate(candidate, cal, idx, "")
	require.NotNil(t, err)
	assert.Equal(t, DimensionInstructor, err.Dimension)
}

func TestValidateIgnoresUnsetClassGroup(t *testing.T) {
	day := date(t, "2024-03-07")
	cal := NewCalendar(nil)
	idx := NewBookingIndex([]models.Booking{
		eveningClass("b1", day, "I1", "R1", "", ""),
	})

	candidate := eveningClass("b2", day, "I2", "R2", "", "")
	assert.Nil(t, Validate(candidate, cal, idx, ""))
}
