package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
)

type bookingRepoStub struct {
	bookings []models.Booking
	nextID   int
}

func (s *bookingRepoStub) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	return s.bookings, len(s.bookings), nil
}

func (s *bookingRepoStub) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.bookings, nil
}

func (s *bookingRepoStub) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			b := s.bookings[i]
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *bookingRepoStub) FindByOccupancy(ctx context.Context, date time.Time, shift models.Shift) ([]models.Booking, error) {
	var out []models.Booking
	key := scheduling.DateKey(date)
	for _, b := range s.bookings {
		if scheduling.DateKey(b.Date) == key && b.Shift == shift {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingRepoStub) CountClassSessions(ctx context.Context, classGroupID, subject, excludeID string) (int, error) {
	count := 0
	for _, b := range s.bookings {
		if b.Type != models.ActivityClass || b.GroupID() != classGroupID || b.SubjectName() != subject {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		count++
	}
	return count, nil
}

func (s *bookingRepoStub) Create(ctx context.Context, booking *models.Booking) error {
	s.nextID++
	booking.ID = fmt.Sprintf("b-%d", s.nextID)
	s.bookings = append(s.bookings, *booking)
	return nil
}

func (s *bookingRepoStub) BulkCreate(ctx context.Context, bookings []models.Booking) error {
	for i := range bookings {
		s.nextID++
		bookings[i].ID = fmt.Sprintf("b-%d", s.nextID)
		s.bookings = append(s.bookings, bookings[i])
	}
	return nil
}

func (s *bookingRepoStub) Update(ctx context.Context, booking *models.Booking) error {
	for i := range s.bookings {
		if s.bookings[i].ID == booking.ID {
			s.bookings[i] = *booking
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *bookingRepoStub) Delete(ctx context.Context, id string) error {
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type blackoutReaderStub struct {
	entries []models.BlackoutEntry
}

func (s blackoutReaderStub) ListAll(ctx context.Context) ([]models.BlackoutEntry, error) {
	return s.entries, nil
}

type groupReaderStub struct {
	groups map[string]models.ClassGroup
}

func (s groupReaderStub) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	if g, ok := s.groups[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

type subjectReaderStub struct {
	subjects map[string]models.Subject
}

func (s subjectReaderStub) FindSubjectByName(ctx context.Context, courseID, name string) (*models.Subject, error) {
	if sub, ok := s.subjects[courseID+"/"+name]; ok {
		return &sub, nil
	}
	return nil, sql.ErrNoRows
}

type bookingFixture struct {
	repo    *bookingRepoStub
	service *BookingService
}

func newBookingFixture(t *testing.T, entries []models.BlackoutEntry, existing []models.Booking) bookingFixture {
	t.Helper()
	repo := &bookingRepoStub{bookings: existing, nextID: len(existing)}
	groups := groupReaderStub{groups: map[string]models.ClassGroup{
		"G1": {ID: "G1", Name: "TDS-1", CourseID: "course-1", Shift: models.ShiftEvening, ClassesPerDay: 5, WeekDays: pq.Int64Array{1, 2, 3, 4, 5}},
	}}
	subjects := subjectReaderStub{subjects: map[string]models.Subject{
		"course-1/Math":        {ID: "sub-1", CourseID: "course-1", Name: "Math", Hours: 40},
		"course-1/EAD - Redes": {ID: "sub-2", CourseID: "course-1", Name: "EAD - Redes", Hours: 15},
	}}
	svc := NewBookingService(repo, blackoutReaderStub{entries: entries}, groups, subjects, nil, nil, 0, nil, nil)
	return bookingFixture{repo: repo, service: svc}
}

func classAt(id, day string, instructor, room, group, subject string) models.Booking {
	d, _ := time.Parse(scheduling.DateLayout, day)
	b := models.Booking{
		ID:           id,
		Type:         models.ActivityClass,
		Title:        subject,
		Date:         d,
		Shift:        models.ShiftEvening,
		InstructorID: instructor,
		RoomID:       room,
	}
	if group != "" {
		b.ClassGroupID = &group
	}
	if subject != "" {
		b.Subject = &subject
	}
	return b
}

func TestBookingServiceCreateSuccess(t *testing.T) {
	f := newBookingFixture(t, nil, nil)

	booking, err := f.service.Create(context.Background(), CreateBookingRequest{
		Type:         "AULA",
		Title:        "Math",
		Date:         "2024-03-04",
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: testStringPtr("G1"),
		Subject:      testStringPtr("Math"),
		CreatedBy:    "user-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Len(t, f.repo.bookings, 1)
}

func TestBookingServiceCreateRejectsHoliday(t *testing.T) {
	day, _ := time.Parse(scheduling.DateLayout, "2024-03-04")
	f := newBookingFixture(t, []models.BlackoutEntry{{Date: day, Title: "Feriado", IsDayOff: true}}, nil)

	_, err := f.service.Create(context.Background(), CreateBookingRequest{
		Type:         "REUNIAO",
		Title:        "Team sync",
		Date:         "2024-03-04",
		Shift:        "MANHA",
		InstructorID: "I1",
		RoomID:       "R1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHoliday.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.bookings)
}

func TestBookingServiceCreateRejectsInstructorConflict(t *testing.T) {
	existing := []models.Booking{classAt("b1", "2024-03-04", "I1", "R1", "G1", "Math")}
	f := newBookingFixture(t, nil, existing)

	_, err := f.service.Create(context.Background(), CreateBookingRequest{
		Type:         "LABORATORIO",
		Title:        "Lab",
		Date:         "2024-03-04",
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceCreateRejectsQuotaExhausted(t *testing.T) {
	// 40h at 3.75h/day needs 11 sessions; seed exactly 11.
	var existing []models.Booking
	for i := 0; i < 11; i++ {
		day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		existing = append(existing, classAt(fmt.Sprintf("seed-%d", i), day.Format(scheduling.DateLayout), "I1", "R1", "G1", "Math"))
	}
	f := newBookingFixture(t, nil, existing)

	_, err := f.service.Create(context.Background(), CreateBookingRequest{
		Type:         "AULA",
		Title:        "Math",
		Date:         "2024-04-01",
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: testStringPtr("G1"),
		Subject:      testStringPtr("Math"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrQuotaExhausted.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceCreateRecurringSkipsHolidayAndClamps(t *testing.T) {
	day, _ := time.Parse(scheduling.DateLayout, "2024-03-06")
	f := newBookingFixture(t, []models.BlackoutEntry{{Date: day, Title: "Feriado", IsDayOff: true}}, nil)

	result, err := f.service.CreateRecurring(context.Background(), CreateRecurringRequest{
		Title:        "Math",
		StartDate:    "2024-03-04",
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: "G1",
		Subject:      "Math",
		Mode:         "SPECIFIC_DAYS",
		Count:        5,
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 5)
	assert.Equal(t, "2024-03-04", scheduling.DateKey(result.Created[0].Date))
	assert.Equal(t, "2024-03-07", scheduling.DateKey(result.Created[2].Date))
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "2024-03-06", result.Skipped[0].Date)
	assert.False(t, result.Partial)
}

func TestBookingServiceCreateRecurringClampsToQuota(t *testing.T) {
	f := newBookingFixture(t, nil, nil)

	// Math needs 11 sessions total; requesting 20 yields 11.
	result, err := f.service.CreateRecurring(context.Background(), CreateRecurringRequest{
		Title:        "Math",
		StartDate:    "2024-03-04",
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: "G1",
		Subject:      "Math",
		Mode:         "SPECIFIC_DAYS",
		Count:        20,
	})
	require.NoError(t, err)
	assert.Len(t, result.Created, 11)
	assert.True(t, result.Partial)
	assert.Equal(t, 11, result.Quota)
}

func TestBookingServiceCreateRecurringRemoteSubjectFridaysOnly(t *testing.T) {
	f := newBookingFixture(t, nil, nil)

	result, err := f.service.CreateRecurring(context.Background(), CreateRecurringRequest{
		Title:        "EAD - Redes",
		StartDate:    "2024-03-04", // Monday
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: "G1",
		Subject:      "EAD - Redes",
		Mode:         "SPECIFIC_DAYS",
		WeekDays:     []int{1, 2, 3}, // ignored for remote subjects
		Count:        2,
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.Equal(t, "2024-03-08", scheduling.DateKey(result.Created[0].Date))
	assert.Equal(t, "2024-03-15", scheduling.DateKey(result.Created[1].Date))
}

func TestBookingServiceCreateRecurringUnknownGroup(t *testing.T) {
	f := newBookingFixture(t, nil, nil)

	_, err := f.service.CreateRecurring(context.Background(), CreateRecurringRequest{
		Title:        "Math",
		StartDate:    "2024-03-04",
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: "G-missing",
		Subject:      "Math",
		Mode:         "CONSECUTIVE",
		Count:        1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnresolvedGroup.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceUpdateExcludesOwnIdentity(t *testing.T) {
	existing := []models.Booking{classAt("b1", "2024-03-04", "I1", "R1", "G1", "Math")}
	f := newBookingFixture(t, nil, existing)

	updated, err := f.service.Update(context.Background(), "b1", UpdateBookingRequest{
		Type:         "AULA",
		Title:        "Math revised",
		Date:         "2024-03-04",
		Shift:        "NOITE",
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: testStringPtr("G1"),
		Subject:      testStringPtr("Math"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Math revised", updated.Title)
}

func TestBookingServiceRemainingQuota(t *testing.T) {
	existing := []models.Booking{
		classAt("b1", "2024-03-04", "I1", "R1", "G1", "Math"),
		classAt("b2", "2024-03-05", "I1", "R1", "G1", "Math"),
	}
	f := newBookingFixture(t, nil, existing)

	quota, err := f.service.RemainingQuota(context.Background(), "G1", "Math")
	require.NoError(t, err)
	assert.Equal(t, 11, quota.LessonDaysNeeded)
	assert.Equal(t, 2, quota.Scheduled)
	assert.Equal(t, 9, quota.Remaining)
	assert.Equal(t, 3.75, quota.HoursPerDay)
}

func TestBookingServiceDeleteNotFound(t *testing.T) {
	f := newBookingFixture(t, nil, nil)
	err := f.service.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func testStringPtr(val string) *string {
	return &val
}
