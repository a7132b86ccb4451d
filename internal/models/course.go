package models

import "time"

// Course groups curriculum units taught to class groups.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is a curriculum unit with a planned total of instructional hours.
// Class bookings reference subjects by name.
type Subject struct {
	ID       string  `db:"id" json:"id"`
	CourseID string  `db:"course_id" json:"course_id"`
	Name     string  `db:"name" json:"name"`
	Hours    float64 `db:"hours" json:"hours"`
}
