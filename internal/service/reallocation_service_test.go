package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
)

type reallocationRepoStub struct {
	bookings  []models.Booking
	removed   []string
	inserted  []models.Booking
	applyErr  error
	applyRuns int
}

func (s *reallocationRepoStub) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.bookings, nil
}

func (s *reallocationRepoStub) ApplyReallocation(ctx context.Context, removeIDs []string, inserts []models.Booking) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applyRuns++
	s.removed = append(s.removed, removeIDs...)
	s.inserted = append(s.inserted, inserts...)
	return nil
}

type groupListerStub struct {
	groups []models.ClassGroup
}

func (s groupListerStub) ListAll(ctx context.Context) ([]models.ClassGroup, error) {
	return s.groups, nil
}

func monFriGroup(id string) models.ClassGroup {
	return models.ClassGroup{ID: id, ClassesPerDay: 5, WeekDays: pq.Int64Array{1, 2, 3, 4, 5}}
}

func TestReallocationServiceMovesDisplacedSession(t *testing.T) {
	blocked, _ := time.Parse(scheduling.DateLayout, "2024-03-07")
	repo := &reallocationRepoStub{bookings: []models.Booking{
		classAt("b1", "2024-03-04", "I1", "R1", "G1", "Math"),
		classAt("b2", "2024-03-07", "I1", "R1", "G1", "Math"),
	}}
	svc := NewReallocationService(repo, blackoutReaderStub{}, groupListerStub{groups: []models.ClassGroup{monFriGroup("G1")}}, nil, nil, 0, nil)

	summary, err := svc.Reallocate(context.Background(), []time.Time{blocked})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 0, summary.Dropped)

	require.Len(t, repo.removed, 1)
	assert.Equal(t, "b2", repo.removed[0])
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "2024-03-05", scheduling.DateKey(repo.inserted[0].Date))
	assert.NotEqual(t, "b2", repo.inserted[0].ID)
	assert.Equal(t, "Math", repo.inserted[0].SubjectName())
}

func TestReallocationServiceNoConflictsSkipsPersistence(t *testing.T) {
	free, _ := time.Parse(scheduling.DateLayout, "2024-06-01")
	repo := &reallocationRepoStub{bookings: []models.Booking{
		classAt("b1", "2024-03-04", "I1", "R1", "G1", "Math"),
	}}
	svc := NewReallocationService(repo, blackoutReaderStub{}, groupListerStub{groups: []models.ClassGroup{monFriGroup("G1")}}, nil, nil, 0, nil)

	summary, err := svc.Reallocate(context.Background(), []time.Time{free})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Moved)
	assert.Equal(t, 0, repo.applyRuns)
}

func TestReallocationServiceEmptyDatesIsNoop(t *testing.T) {
	repo := &reallocationRepoStub{}
	svc := NewReallocationService(repo, blackoutReaderStub{}, groupListerStub{}, nil, nil, 0, nil)

	summary, err := svc.Reallocate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Moved)
	assert.Equal(t, 0, repo.applyRuns)
}

func TestReallocationServiceDropsOrphanedBooking(t *testing.T) {
	blocked, _ := time.Parse(scheduling.DateLayout, "2024-03-07")
	repo := &reallocationRepoStub{bookings: []models.Booking{
		classAt("b1", "2024-03-07", "I1", "R1", "G-missing", "Math"),
	}}
	svc := NewReallocationService(repo, blackoutReaderStub{}, groupListerStub{}, nil, nil, 0, nil)

	summary, err := svc.Reallocate(context.Background(), []time.Time{blocked})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Moved)
	assert.Equal(t, 1, summary.Dropped)
	require.Len(t, repo.removed, 1)
	assert.Empty(t, repo.inserted)
}
