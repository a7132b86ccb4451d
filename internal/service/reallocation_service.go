package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
)

type reallocationBookingRepository interface {
	ListAll(ctx context.Context) ([]models.Booking, error)
	ApplyReallocation(ctx context.Context, removeIDs []string, inserts []models.Booking) error
}

type classGroupLister interface {
	ListAll(ctx context.Context) ([]models.ClassGroup, error)
}

// ReallocationSummary reports the outcome of one reallocation run. Moved and
// Dropped are surfaced separately so callers can warn about lost sessions.
type ReallocationSummary struct {
	Moved    int                     `json:"moved"`
	Dropped  int                     `json:"dropped"`
	Unplaced int                     `json:"unplaced"`
	Details  []scheduling.Relocation `json:"details,omitempty"`
}

// ReallocationService re-homes class sessions displaced by newly declared
// blackout dates. The whole run is atomic: displaced bookings are removed and
// their relocated clones inserted in one transaction.
type ReallocationService struct {
	bookings  reallocationBookingRepository
	blackouts blackoutReader
	groups    classGroupLister
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger

	maxLookaheadDays int
}

// NewReallocationService instantiates ReallocationService.
func NewReallocationService(bookings reallocationBookingRepository, blackouts blackoutReader, groups classGroupLister, cache *CacheService, metrics *MetricsService, maxLookaheadDays int, logger *zap.Logger) *ReallocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLookaheadDays <= 0 {
		maxLookaheadDays = scheduling.DefaultMaxLookaheadDays
	}
	return &ReallocationService{
		bookings:         bookings,
		blackouts:        blackouts,
		groups:           groups,
		cache:            cache,
		metrics:          metrics,
		logger:           logger,
		maxLookaheadDays: maxLookaheadDays,
	}
}

// Reallocate finds class bookings on the given dates and re-homes each at the
// tail of its subject's timeline. Invoked after a day-off entry lands in the
// calendar.
func (s *ReallocationService) Reallocate(ctx context.Context, dates []time.Time) (*ReallocationSummary, error) {
	if len(dates) == 0 {
		return &ReallocationSummary{}, nil
	}

	bookings, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	entries, err := s.blackouts.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	groupList, err := s.groups.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class groups")
	}
	groups := make(map[string]models.ClassGroup, len(groupList))
	for _, g := range groupList {
		groups[g.ID] = g
	}

	result := scheduling.Reallocate(scheduling.ReallocationInput{
		Bookings:         bookings,
		NewDayOffs:       dates,
		Calendar:         scheduling.NewCalendar(entries),
		Groups:           groups,
		MaxLookaheadDays: s.maxLookaheadDays,
	})

	summary := &ReallocationSummary{
		Moved:    len(result.Moved),
		Dropped:  len(result.Dropped),
		Unplaced: len(result.Unplaced),
		Details:  result.Moved,
	}
	if !result.Changed {
		return summary, nil
	}

	byID := make(map[string]models.Booking, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
	}

	removeIDs := make([]string, 0, len(result.Moved)+len(result.Dropped)+len(result.Unplaced))
	inserts := make([]models.Booking, 0, len(result.Moved))
	for _, move := range result.Moved {
		removeIDs = append(removeIDs, move.BookingID)
		clone := byID[move.BookingID]
		clone.ID = move.NewID
		clone.Date = move.To
		inserts = append(inserts, clone)
	}
	for _, dropped := range result.Dropped {
		removeIDs = append(removeIDs, dropped.ID)
	}
	for _, unplaced := range result.Unplaced {
		removeIDs = append(removeIDs, unplaced.ID)
	}

	if err := s.bookings.ApplyReallocation(ctx, removeIDs, inserts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist reallocation")
	}

	s.metrics.RecordReallocation("moved", summary.Moved)
	s.metrics.RecordReallocation("dropped", summary.Dropped)
	s.metrics.RecordReallocation("unplaced", summary.Unplaced)
	s.cache.InvalidateBookings(ctx)

	s.logger.Info("holiday reallocation applied",
		zap.Int("moved", summary.Moved),
		zap.Int("dropped", summary.Dropped),
		zap.Int("unplaced", summary.Unplaced),
		zap.Int("dates", len(dates)))
	return summary, nil
}
