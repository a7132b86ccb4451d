package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
)

type blackoutRepoStub struct {
	entries map[string]models.BlackoutEntry
}

func newBlackoutRepoStub() *blackoutRepoStub {
	return &blackoutRepoStub{entries: map[string]models.BlackoutEntry{}}
}

func (s *blackoutRepoStub) List(ctx context.Context, filter models.BlackoutFilter) ([]models.BlackoutEntry, int, error) {
	all, _ := s.ListAll(ctx)
	return all, len(all), nil
}

func (s *blackoutRepoStub) ListAll(ctx context.Context) ([]models.BlackoutEntry, error) {
	out := make([]models.BlackoutEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *blackoutRepoStub) FindByDate(ctx context.Context, date time.Time) (*models.BlackoutEntry, error) {
	if e, ok := s.entries[scheduling.DateKey(date)]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (s *blackoutRepoStub) UpsertByDate(ctx context.Context, entry *models.BlackoutEntry) error {
	entry.ID = "entry-" + scheduling.DateKey(entry.Date)
	s.entries[scheduling.DateKey(entry.Date)] = *entry
	return nil
}

func (s *blackoutRepoStub) DeleteByDate(ctx context.Context, date time.Time) error {
	delete(s.entries, scheduling.DateKey(date))
	return nil
}

func newCalendarFixture(t *testing.T, bookings []models.Booking) (*CalendarService, *blackoutRepoStub, *reallocationRepoStub) {
	t.Helper()
	blackouts := newBlackoutRepoStub()
	bookingRepo := &reallocationRepoStub{bookings: bookings}
	reallocator := NewReallocationService(bookingRepo, blackouts, groupListerStub{groups: []models.ClassGroup{monFriGroup("G1")}}, nil, nil, 0, nil)
	svc := NewCalendarService(blackouts, reallocator, nil, nil, nil)
	return svc, blackouts, bookingRepo
}

func TestCalendarServiceUpsertValidatesPayload(t *testing.T) {
	svc, _, _ := newCalendarFixture(t, nil)

	_, err := svc.Upsert(context.Background(), UpsertBlackoutRequest{Date: "not-a-date", Title: "X", Category: "FERIADO"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarServiceUpsertStoresEntry(t *testing.T) {
	svc, blackouts, _ := newCalendarFixture(t, nil)

	result, err := svc.Upsert(context.Background(), UpsertBlackoutRequest{
		Date:     "2024-05-01",
		Title:    "Dia do Trabalho",
		IsDayOff: true,
		Category: "FERIADO",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Entry.ID)
	assert.Len(t, blackouts.entries, 1)
	require.NotNil(t, result.Reallocation)
	assert.Equal(t, 0, result.Reallocation.Moved)
}

func TestCalendarServiceDayOffTriggersReallocation(t *testing.T) {
	bookings := []models.Booking{
		classAt("b1", "2024-03-04", "I1", "R1", "G1", "Math"),
		classAt("b2", "2024-03-07", "I1", "R1", "G1", "Math"),
	}
	svc, _, bookingRepo := newCalendarFixture(t, bookings)

	result, err := svc.Upsert(context.Background(), UpsertBlackoutRequest{
		Date:     "2024-03-07",
		Title:    "Feriado",
		IsDayOff: true,
		Category: "FERIADO",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Reallocation)
	assert.Equal(t, 1, result.Reallocation.Moved)
	require.Len(t, bookingRepo.inserted, 1)
	assert.Equal(t, "2024-03-05", scheduling.DateKey(bookingRepo.inserted[0].Date))
}

func TestCalendarServiceNonDayOffSkipsReallocation(t *testing.T) {
	bookings := []models.Booking{
		classAt("b1", "2024-03-07", "I1", "R1", "G1", "Math"),
	}
	svc, _, bookingRepo := newCalendarFixture(t, bookings)

	result, err := svc.Upsert(context.Background(), UpsertBlackoutRequest{
		Date:     "2024-03-07",
		Title:    "Palestra",
		IsDayOff: false,
		Category: "EVENTO",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Reallocation)
	assert.Equal(t, 0, bookingRepo.applyRuns)
}

func TestCalendarServiceDeleteRemovesEntry(t *testing.T) {
	svc, blackouts, _ := newCalendarFixture(t, nil)
	_, err := svc.Upsert(context.Background(), UpsertBlackoutRequest{
		Date:     "2024-05-01",
		Title:    "Dia do Trabalho",
		IsDayOff: true,
		Category: "FERIADO",
	})
	require.NoError(t, err)

	day, _ := time.Parse(scheduling.DateLayout, "2024-05-01")
	require.NoError(t, svc.Delete(context.Background(), day))
	assert.Empty(t, blackouts.entries)
}
