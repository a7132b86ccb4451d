package scheduling

import "math"

// HoursPerLessonDay converts a class group's daily lesson count into
// instructional hours per scheduled day. The mapping is table-driven: the
// 4-lesson and 6-lesson layouts have negotiated hour totals, everything else
// falls back to 45-minute lessons.
func HoursPerLessonDay(classesPerDay int) float64 {
	switch classesPerDay {
	case 4:
		return 4.0
	case 6:
		return 5.0
	default:
		return float64(classesPerDay) * 0.75
	}
}

// LessonDaysNeeded returns how many scheduled days a subject's planned hours
// require for a group with the given daily lesson count.
func LessonDaysNeeded(subjectHours float64, classesPerDay int) int {
	perDay := HoursPerLessonDay(classesPerDay)
	if perDay <= 0 {
		return 0
	}
	return int(math.Ceil(subjectHours / perDay))
}

// RemainingSessions returns how many more class sessions a subject may still
// receive, never negative. scheduled is the count of existing class bookings
// for the group+subject, excluding any booking being edited.
func RemainingSessions(subjectHours float64, classesPerDay, scheduled int) int {
	remaining := LessonDaysNeeded(subjectHours, classesPerDay) - scheduled
	if remaining < 0 {
		return 0
	}
	return remaining
}
