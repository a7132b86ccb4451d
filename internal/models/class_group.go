package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassGroup is a cohort of students following one course on a fixed weekly
// pattern. Weekdays use 0=Sunday..6=Saturday; an empty set means Monday to
// Friday.
type ClassGroup struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	CourseID      string        `db:"course_id" json:"course_id"`
	Shift         Shift         `db:"shift" json:"shift"`
	ClassesPerDay int           `db:"classes_per_day" json:"classes_per_day"`
	WeekDays      pq.Int64Array `db:"week_days" json:"week_days"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Weekdays resolves the configured pattern, falling back to Monday–Friday.
func (g ClassGroup) Weekdays() []time.Weekday {
	if len(g.WeekDays) == 0 {
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	days := make([]time.Weekday, 0, len(g.WeekDays))
	for _, d := range g.WeekDays {
		if d < 0 || d > 6 {
			continue
		}
		days = append(days, time.Weekday(d))
	}
	if len(days) == 0 {
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	return days
}
