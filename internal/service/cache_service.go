package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
)

// Cache key patterns for agenda payloads.
const (
	cacheKeyBookingsPrefix = "agenda:bookings:"
	cacheKeyCalendar       = "agenda:calendar"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics. It is safe
// to use when disabled or when no backing store is configured.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, duration)
		}
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		if s.logger != nil {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false, err
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(true, duration)
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		if s.logger != nil {
			s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	return nil
}

// BookingListKey derives a stable cache key from a booking list filter.
func BookingListKey(filter models.BookingFilter) string {
	from, to := "", ""
	if filter.From != nil {
		from = filter.From.Format("2006-01-02")
	}
	if filter.To != nil {
		to = filter.To.Format("2006-01-02")
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%s:%s:%d:%d",
		cacheKeyBookingsPrefix, from, to, filter.Shift, filter.Type,
		filter.InstructorID, filter.RoomID, filter.ClassGroupID,
		filter.Page, filter.PageSize)
}

// CalendarListKey derives a stable cache key from a blackout list filter.
func CalendarListKey(filter models.BlackoutFilter) string {
	from, to, dayOff := "", "", ""
	if filter.From != nil {
		from = filter.From.Format("2006-01-02")
	}
	if filter.To != nil {
		to = filter.To.Format("2006-01-02")
	}
	if filter.DayOff != nil {
		dayOff = fmt.Sprintf("%t", *filter.DayOff)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%d:%d", cacheKeyCalendar, from, to, dayOff, filter.Page, filter.PageSize)
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		if s.logger != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		}
		return err
	}
	return nil
}

// InvalidateBookings drops every cached booking listing. Called after any
// mutation of the booking set, including reallocation runs.
func (s *CacheService) InvalidateBookings(ctx context.Context) {
	_ = s.Invalidate(ctx, cacheKeyBookingsPrefix+"*")
}

// InvalidateCalendar drops the cached calendar payload.
func (s *CacheService) InvalidateCalendar(ctx context.Context) {
	_ = s.Invalidate(ctx, cacheKeyCalendar+"*")
}
