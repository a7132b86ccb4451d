package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoursPerLessonDay(t *testing.T) {
	tests := []struct {
		classesPerDay int
		want          float64
	}{
		{4, 4.0},
		{6, 5.0},
		{5, 3.75},
		{3, 2.25},
		{8, 6.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HoursPerLessonDay(tt.classesPerDay))
	}
}

func TestLessonDaysNeeded(t *testing.T) {
	// 40h at 3.75h/day requires 11 days (ceil of 10.67).
	assert.Equal(t, 11, LessonDaysNeeded(40, 5))
	assert.Equal(t, 10, LessonDaysNeeded(40, 4))
	assert.Equal(t, 8, LessonDaysNeeded(40, 6))
	assert.Equal(t, 0, LessonDaysNeeded(40, 0))
}

func TestRemainingSessionsNeverNegative(t *testing.T) {
	assert.Equal(t, 11, RemainingSessions(40, 5, 0))
	assert.Equal(t, 1, RemainingSessions(40, 5, 10))
	assert.Equal(t, 0, RemainingSessions(40, 5, 11))
	assert.Equal(t, 0, RemainingSessions(40, 5, 20))
}

func TestRemainingSessionsDecreasesByOnePerBooking(t *testing.T) {
	prev := RemainingSessions(40, 5, 0)
	for scheduled := 1; scheduled <= 11; scheduled++ {
		curr := RemainingSessions(40, 5, scheduled)
		assert.Equal(t, prev-1, curr)
		prev = curr
	}
}
