package models

import "time"

// ActivityType enumerates the kinds of events that occupy a shift.
type ActivityType string

const (
	ActivityClass   ActivityType = "AULA"
	ActivityLab     ActivityType = "LABORATORIO"
	ActivityMeeting ActivityType = "REUNIAO"
	ActivityEvent   ActivityType = "EVENTO"
)

// Shift is the atomic unit of scheduling conflict. Finer per-lesson time
// slots exist in the UI data model but are never consulted for conflicts.
type Shift string

const (
	ShiftMorning   Shift = "MANHA"
	ShiftAfternoon Shift = "TARDE"
	ShiftEvening   Shift = "NOITE"
)

// Booking is a single activity event occupying (date, shift) for an
// instructor, a room and optionally a class group.
type Booking struct {
	ID           string       `db:"id" json:"id"`
	Type         ActivityType `db:"type" json:"type"`
	Title        string       `db:"title" json:"title"`
	Date         time.Time    `db:"date" json:"date"`
	Shift        Shift        `db:"shift" json:"shift"`
	InstructorID string       `db:"instructor_id" json:"instructor_id"`
	RoomID       string       `db:"room_id" json:"room_id"`
	ClassGroupID *string      `db:"class_group_id" json:"class_group_id,omitempty"`
	Subject      *string      `db:"subject" json:"subject,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// GroupID returns the class group id or empty when unset.
func (b Booking) GroupID() string {
	if b.ClassGroupID == nil {
		return ""
	}
	return *b.ClassGroupID
}

// SubjectName returns the subject or empty when unset.
func (b Booking) SubjectName() string {
	if b.Subject == nil {
		return ""
	}
	return *b.Subject
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	From         *time.Time
	To           *time.Time
	Shift        Shift
	Type         ActivityType
	InstructorID string
	RoomID       string
	ClassGroupID string
	Page         int
	PageSize     int
}

// BookingConflict describes an existing booking that blocks a candidate.
type BookingConflict struct {
	BookingID    string `json:"booking_id"`
	Date         string `json:"date"`
	Shift        Shift  `json:"shift"`
	InstructorID string `json:"instructor_id"`
	RoomID       string `json:"room_id"`
	ClassGroupID string `json:"class_group_id,omitempty"`
	Dimension    string `json:"dimension"`
}

// BookingConflictError is returned when a candidate collides with an existing
// booking on the same date and shift.
type BookingConflictError struct {
	Dimension string          `json:"dimension"`
	Message   string          `json:"message"`
	Conflict  BookingConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
