package models

import "time"

// BlackoutCategory labels a calendar entry. Presentational only; scheduling
// decisions depend solely on IsDayOff.
type BlackoutCategory string

const (
	BlackoutHoliday BlackoutCategory = "FERIADO"
	BlackoutRecess  BlackoutCategory = "RECESSO"
	BlackoutEvent   BlackoutCategory = "EVENTO"
	BlackoutOther   BlackoutCategory = "OUTRO"
)

// BlackoutEntry marks a calendar date. A date holds at most one active entry;
// upserting replaces by date.
type BlackoutEntry struct {
	ID        string           `db:"id" json:"id"`
	Date      time.Time        `db:"date" json:"date"`
	Title     string           `db:"title" json:"title"`
	IsDayOff  bool             `db:"is_day_off" json:"is_day_off"`
	Category  BlackoutCategory `db:"category" json:"category"`
	CreatedBy string           `db:"created_by" json:"created_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// BlackoutFilter narrows calendar listings.
type BlackoutFilter struct {
	From     *time.Time
	To       *time.Time
	DayOff   *bool
	Page     int
	PageSize int
}
