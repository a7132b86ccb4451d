package scheduling

import (
	"fmt"
	"strings"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

// Reject reasons returned by Validate.
const (
	ReasonHoliday  = "HOLIDAY"
	ReasonConflict = "CONFLICT"
)

// Conflict dimensions.
const (
	DimensionInstructor = "INSTRUCTOR"
	DimensionRoom       = "ROOM"
	DimensionClassGroup = "CLASS_GROUP"
)

// ValidationError is a typed rejection from Validate. Reason is HOLIDAY when
// the date is blocked by the calendar, CONFLICT when another booking occupies
// the same date and shift on a shared dimension.
type ValidationError struct {
	Reason    string
	Dimension string
	Date      string
	Title     string
	Conflict  *models.Booking
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonHoliday {
		return fmt.Sprintf("date %s is not an instructional day (%s)", e.Date, e.Title)
	}
	return fmt.Sprintf("booking conflict on %s: %s already occupied", e.Date, strings.ToLower(e.Dimension))
}

// canonicalID normalizes identifiers before comparison. Upstream data has
// carried both numeric and string ids for the same entity, so ids are always
// compared as trimmed strings.
func canonicalID(id string) string {
	return strings.TrimSpace(id)
}

// occupancyKey addresses one shift of one calendar day.
type occupancyKey struct {
	date  string
	shift models.Shift
}

// BookingIndex is a derived index over the booking set keyed by (date, shift)
// for O(1) amortized conflict lookups.
type BookingIndex struct {
	byOccupancy map[occupancyKey][]models.Booking
}

// NewBookingIndex indexes the given bookings.
func NewBookingIndex(bookings []models.Booking) *BookingIndex {
	idx := &BookingIndex{byOccupancy: make(map[occupancyKey][]models.Booking, len(bookings))}
	for _, b := range bookings {
		idx.Add(b)
	}
	return idx
}

// Add inserts a booking into the index.
func (idx *BookingIndex) Add(b models.Booking) {
	key := occupancyKey{date: DateKey(b.Date), shift: b.Shift}
	idx.byOccupancy[key] = append(idx.byOccupancy[key], b)
}

// At returns the bookings occupying (date, shift).
func (idx *BookingIndex) At(date string, shift models.Shift) []models.Booking {
	return idx.byOccupancy[occupancyKey{date: date, shift: shift}]
}

// Validate decides whether a candidate booking may occupy its (date, shift).
// It rejects with HOLIDAY when the calendar marks the date as a day off, and
// with CONFLICT when another booking (excluding excludeID) shares the slot on
// the instructor, room or class-group dimension. Pure decision function; no
// side effects.
func Validate(candidate models.Booking, cal *Calendar, idx *BookingIndex, excludeID string) *ValidationError {
	dateKey := DateKey(candidate.Date)

	if entry, ok := cal.Lookup(candidate.Date); ok && entry.IsDayOff {
		return &ValidationError{
			Reason: ReasonHoliday,
			Date:   dateKey,
			Title:  entry.Title,
		}
	}

	exclude := canonicalID(excludeID)
	instructor := canonicalID(candidate.InstructorID)
	room := canonicalID(candidate.RoomID)
	group := canonicalID(candidate.GroupID())

	for _, other := range idx.At(dateKey, candidate.Shift) {
		if exclude != "" && canonicalID(other.ID) == exclude {
			continue
		}
		switch {
		case instructor != "" && canonicalID(other.InstructorID) == instructor:
			b := other
			return &ValidationError{Reason: ReasonConflict, Dimension: DimensionInstructor, Date: dateKey, Conflict: &b}
		case room != "" && canonicalID(other.RoomID) == room:
			b := other
			return &ValidationError{Reason: ReasonConflict, Dimension: DimensionRoom, Date: dateKey, Conflict: &b}
		case group != "" && canonicalID(other.GroupID()) == group:
			b := other
			return &ValidationError{Reason: ReasonConflict, Dimension: DimensionClassGroup, Date: dateKey, Conflict: &b}
		}
	}
	return nil
}
