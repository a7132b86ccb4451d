package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

// ReallocationInput carries everything the reallocator needs. Bookings is the
// full active set; NewDayOffs are the freshly declared blackout dates; Groups
// resolves class-group configuration by id. NewID generates ids for relocated
// clones and defaults to uuid.NewString.
type ReallocationInput struct {
	Bookings         []models.Booking
	NewDayOffs       []time.Time
	Calendar         *Calendar
	Groups           map[string]models.ClassGroup
	MaxLookaheadDays int
	NewID            func() string
}

// Relocation records one successful move.
type Relocation struct {
	BookingID string    `json:"booking_id"`
	NewID     string    `json:"new_id"`
	Subject   string    `json:"subject"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

// ReallocationResult is the replacement booking collection plus move and drop
// accounting. Working replaces the prior set atomically when Moved > 0 or
// Dropped is non-empty.
type ReallocationResult struct {
	Working  []models.Booking
	Moved    []Relocation
	Dropped  []models.Booking
	Unplaced []models.Booking
	Changed  bool
}

// Reallocate re-homes class sessions displaced by newly declared blackout
// dates. Conflicting bookings are processed as a fold in stable input order:
// each relocation is appended to the working set before the next is placed,
// so later moves observe earlier ones. Relocated sessions always land after
// the latest existing session for their group+subject (tail-append), never
// interleaved. Bookings whose class group cannot be resolved are dropped.
func Reallocate(in ReallocationInput) ReallocationResult {
	newID := in.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	dayOff := make(map[string]bool, len(in.NewDayOffs))
	for _, d := range in.NewDayOffs {
		dayOff[DateKey(d)] = true
	}

	var conflicting []models.Booking
	working := make([]models.Booking, 0, len(in.Bookings))
	for _, b := range in.Bookings {
		if b.Type == models.ActivityClass && dayOff[DateKey(b.Date)] {
			conflicting = append(conflicting, b)
		} else {
			working = append(working, b)
		}
	}

	result := ReallocationResult{Working: working}
	if len(conflicting) == 0 {
		return result
	}
	result.Changed = true

	cal := in.Calendar.WithDayOffs(in.NewDayOffs, "")

	for _, b := range conflicting {
		group, ok := in.Groups[canonicalID(b.GroupID())]
		if !ok {
			result.Dropped = append(result.Dropped, b)
			continue
		}

		base := latestSessionDate(result.Working, b)
		req := RecurrenceRequest{
			Start:            base.AddDate(0, 0, 1),
			Mode:             ModeSpecificDays,
			AllowedWeekdays:  AllowedWeekdays(b.SubjectName(), group.Weekdays()),
			TargetCount:      1,
			MaxLookaheadDays: in.MaxLookaheadDays,
		}
		expanded := Expand(req, cal)
		if len(expanded.Accepted) == 0 {
			result.Unplaced = append(result.Unplaced, b)
			continue
		}

		moved := b
		moved.ID = newID()
		moved.Date = expanded.Accepted[0]
		result.Working = append(result.Working, moved)
		result.Moved = append(result.Moved, Relocation{
			BookingID: b.ID,
			NewID:     moved.ID,
			Subject:   b.SubjectName(),
			From:      b.Date,
			To:        moved.Date,
		})
	}
	return result
}

// latestSessionDate finds the maximum date among working class sessions for
// the displaced booking's group+subject, falling back to the booking's own
// original date.
func latestSessionDate(working []models.Booking, displaced models.Booking) time.Time {
	base := displaced.Date
	group := canonicalID(displaced.GroupID())
	subject := displaced.SubjectName()
	for _, b := range working {
		if b.Type != models.ActivityClass {
			continue
		}
		if canonicalID(b.GroupID()) != group || b.SubjectName() != subject {
			continue
		}
		if b.Date.After(base) {
			base = b.Date
		}
	}
	return base
}
