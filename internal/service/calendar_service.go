package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
)

type blackoutRepository interface {
	List(ctx context.Context, filter models.BlackoutFilter) ([]models.BlackoutEntry, int, error)
	ListAll(ctx context.Context) ([]models.BlackoutEntry, error)
	FindByDate(ctx context.Context, date time.Time) (*models.BlackoutEntry, error)
	UpsertByDate(ctx context.Context, entry *models.BlackoutEntry) error
	DeleteByDate(ctx context.Context, date time.Time) error
}

// UpsertBlackoutRequest inserts or replaces the calendar entry for a date.
type UpsertBlackoutRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Title     string `json:"title" validate:"required"`
	IsDayOff  bool   `json:"is_day_off"`
	Category  string `json:"category" validate:"required,oneof=FERIADO RECESSO EVENTO OUTRO"`
	CreatedBy string `json:"-"`
}

// UpsertBlackoutResult carries the stored entry plus the reallocation outcome
// when declaring the date a day off displaced class sessions.
type UpsertBlackoutResult struct {
	Entry        models.BlackoutEntry `json:"entry"`
	Reallocation *ReallocationSummary `json:"reallocation,omitempty"`
}

// CalendarService manages blackout entries and triggers reallocation when a
// new day off lands on already-scheduled classes.
type CalendarService struct {
	repo        blackoutRepository
	reallocator *ReallocationService
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCalendarService instantiates CalendarService.
func NewCalendarService(repo blackoutRepository, reallocator *ReallocationService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, reallocator: reallocator, cache: cache, validator: validate, logger: logger}
}

type cachedBlackoutList struct {
	Entries    []models.BlackoutEntry `json:"entries"`
	Pagination models.Pagination      `json:"pagination"`
}

// List returns blackout entries with pagination metadata. Results are cached
// per filter and invalidated on any calendar mutation.
func (s *CalendarService) List(ctx context.Context, filter models.BlackoutFilter) ([]models.BlackoutEntry, *models.Pagination, error) {
	key := CalendarListKey(filter)
	var cached cachedBlackoutList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		pagination := cached.Pagination
		return cached.Entries, &pagination, nil
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar entries")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	_ = s.cache.Set(ctx, key, cachedBlackoutList{Entries: entries, Pagination: *pagination}, 0)
	return entries, pagination, nil
}

// Lookup returns the entry for a date, or nil when the day is instructional.
func (s *CalendarService) Lookup(ctx context.Context, date time.Time) (*models.BlackoutEntry, error) {
	entry, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar entry")
	}
	return entry, nil
}

// Upsert stores the entry for a date. Declaring a date a day off triggers
// reallocation of any class sessions already scheduled on it.
func (s *CalendarService) Upsert(ctx context.Context, req UpsertBlackoutRequest) (*UpsertBlackoutResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar payload")
	}
	date, err := time.Parse(scheduling.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar date")
	}

	entry := models.BlackoutEntry{
		Date:      date,
		Title:     req.Title,
		IsDayOff:  req.IsDayOff,
		Category:  models.BlackoutCategory(req.Category),
		CreatedBy: req.CreatedBy,
	}
	if err := s.repo.UpsertByDate(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store calendar entry")
	}
	s.cache.InvalidateCalendar(ctx)

	result := &UpsertBlackoutResult{Entry: entry}
	if req.IsDayOff && s.reallocator != nil {
		summary, err := s.reallocator.Reallocate(ctx, []time.Time{date})
		if err != nil {
			// The entry is already stored; surface the failure so the
			// caller can retry the reallocation.
			return nil, err
		}
		result.Reallocation = summary
	}
	return result, nil
}

// Delete removes the entry for a date, making it instructional again.
func (s *CalendarService) Delete(ctx context.Context, date time.Time) error {
	if err := s.repo.DeleteByDate(ctx, date); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete calendar entry")
	}
	s.cache.InvalidateCalendar(ctx)
	return nil
}
