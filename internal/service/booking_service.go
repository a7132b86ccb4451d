package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
)

type bookingRepository interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByOccupancy(ctx context.Context, date time.Time, shift models.Shift) ([]models.Booking, error)
	CountClassSessions(ctx context.Context, classGroupID, subject, excludeID string) (int, error)
	Create(ctx context.Context, booking *models.Booking) error
	BulkCreate(ctx context.Context, bookings []models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
}

type blackoutReader interface {
	ListAll(ctx context.Context) ([]models.BlackoutEntry, error)
}

type classGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
}

type subjectReader interface {
	FindSubjectByName(ctx context.Context, courseID, name string) (*models.Subject, error)
}

// CreateBookingRequest describes payload for creating a booking.
type CreateBookingRequest struct {
	Type         string  `json:"type" validate:"required,oneof=AULA LABORATORIO REUNIAO EVENTO"`
	Title        string  `json:"title" validate:"required"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	Shift        string  `json:"shift" validate:"required,oneof=MANHA TARDE NOITE"`
	InstructorID string  `json:"instructor_id" validate:"required"`
	RoomID       string  `json:"room_id" validate:"required"`
	ClassGroupID *string `json:"class_group_id"`
	Subject      *string `json:"subject"`
	CreatedBy    string  `json:"-"`
}

// UpdateBookingRequest replaces a booking by id. Re-validated with the prior
// identity excluded from the uniqueness check.
type UpdateBookingRequest struct {
	Type         string  `json:"type" validate:"required,oneof=AULA LABORATORIO REUNIAO EVENTO"`
	Title        string  `json:"title" validate:"required"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	Shift        string  `json:"shift" validate:"required,oneof=MANHA TARDE NOITE"`
	InstructorID string  `json:"instructor_id" validate:"required"`
	RoomID       string  `json:"room_id" validate:"required"`
	ClassGroupID *string `json:"class_group_id"`
	Subject      *string `json:"subject"`
}

// CreateRecurringRequest expands one class request into a series of bookings.
type CreateRecurringRequest struct {
	Title        string `json:"title" validate:"required"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Shift        string `json:"shift" validate:"required,oneof=MANHA TARDE NOITE"`
	InstructorID string `json:"instructor_id" validate:"required"`
	RoomID       string `json:"room_id" validate:"required"`
	ClassGroupID string `json:"class_group_id" validate:"required"`
	Subject      string `json:"subject" validate:"required"`
	Mode         string `json:"mode" validate:"required,oneof=CONSECUTIVE SPECIFIC_DAYS"`
	WeekDays     []int  `json:"week_days" validate:"omitempty,dive,min=0,max=6"`
	Count        int    `json:"count" validate:"required,min=1"`
	CreatedBy    string `json:"-"`
}

// RecurringResult summarises a recurring expansion. Requested may exceed
// Created when the quota clamps the count, the lookahead bound is reached, or
// individual dates collide with existing bookings.
type RecurringResult struct {
	Created   []models.Booking         `json:"created"`
	Skipped   []scheduling.SkippedDate `json:"skipped,omitempty"`
	Conflicts []models.BookingConflict `json:"conflicts,omitempty"`
	Requested int                      `json:"requested"`
	Quota     int                      `json:"quota"`
	Partial   bool                     `json:"partial"`
}

// SubjectQuota reports the remaining session budget for a group+subject.
type SubjectQuota struct {
	ClassGroupID     string  `json:"class_group_id"`
	Subject          string  `json:"subject"`
	SubjectHours     float64 `json:"subject_hours"`
	HoursPerDay      float64 `json:"hours_per_day"`
	LessonDaysNeeded int     `json:"lesson_days_needed"`
	Scheduled        int     `json:"scheduled"`
	Remaining        int     `json:"remaining"`
}

// BookingService coordinates booking validation, recurrence expansion and
// quota enforcement. Mutating operations are serialised by a mutex: conflict
// validation is check-then-act, so two near-simultaneous requests must not
// both pass before either commits.
type BookingService struct {
	repo      bookingRepository
	blackouts blackoutReader
	groups    classGroupReader
	subjects  subjectReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	maxLookaheadDays int
	mu               sync.Mutex
}

// NewBookingService instantiates BookingService.
func NewBookingService(repo bookingRepository, blackouts blackoutReader, groups classGroupReader, subjects subjectReader, cache *CacheService, metrics *MetricsService, maxLookaheadDays int, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLookaheadDays <= 0 {
		maxLookaheadDays = scheduling.DefaultMaxLookaheadDays
	}
	return &BookingService{
		repo:             repo,
		blackouts:        blackouts,
		groups:           groups,
		subjects:         subjects,
		cache:            cache,
		metrics:          metrics,
		validator:        validate,
		logger:           logger,
		maxLookaheadDays: maxLookaheadDays,
	}
}

type cachedBookingList struct {
	Bookings   []models.Booking  `json:"bookings"`
	Pagination models.Pagination `json:"pagination"`
}

// List returns bookings with pagination metadata. Results are cached per
// filter; every booking mutation invalidates the whole listing family.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	key := BookingListKey(filter)
	var cached cachedBookingList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		pagination := cached.Pagination
		return cached.Bookings, &pagination, nil
	}

	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
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
	_ = s.cache.Set(ctx, key, cachedBookingList{Bookings: bookings, Pagination: *pagination}, 0)
	return bookings, pagination, nil
}

// Get loads a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// Create inserts a new booking after calendar, conflict and quota checks.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	date, err := time.Parse(scheduling.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking date")
	}

	booking := models.Booking{
		Type:         models.ActivityType(req.Type),
		Title:        req.Title,
		Date:         date,
		Shift:        models.Shift(req.Shift),
		InstructorID: req.InstructorID,
		RoomID:       req.RoomID,
		ClassGroupID: req.ClassGroupID,
		Subject:      req.Subject,
		CreatedBy:    req.CreatedBy,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}

	if booking.Type == models.ActivityClass && booking.GroupID() != "" && booking.SubjectName() != "" {
		quota, err := s.resolveQuota(ctx, booking.GroupID(), booking.SubjectName(), "")
		if err != nil {
			return nil, err
		}
		if quota.Remaining <= 0 {
			s.metrics.RecordRejection(appErrors.ErrQuotaExhausted.Code)
			return nil, appErrors.Clone(appErrors.ErrQuotaExhausted, fmt.Sprintf("subject %q has no remaining sessions", booking.SubjectName()))
		}
	}

	if err := s.ensureNoConflict(ctx, booking, cal, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	s.metrics.RecordBookingCreated(string(booking.Type))
	s.cache.InvalidateBookings(ctx)
	return &booking, nil
}

// CreateRecurring expands a class request into a series of dated bookings.
// The requested count is clamped to the subject's remaining quota, blackout
// days are skipped without consuming the count, and each candidate date is
// conflict-checked with earlier batch members visible. The whole batch is
// persisted in one transaction.
func (s *BookingService) CreateRecurring(ctx context.Context, req CreateRecurringRequest) (*RecurringResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring booking payload")
	}
	start, err := time.Parse(scheduling.DateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group, err := s.resolveGroup(ctx, req.ClassGroupID)
	if err != nil {
		return nil, err
	}

	quota, err := s.resolveQuota(ctx, req.ClassGroupID, req.Subject, "")
	if err != nil {
		return nil, err
	}
	if quota.Remaining <= 0 {
		s.metrics.RecordRejection(appErrors.ErrQuotaExhausted.Code)
		return nil, appErrors.Clone(appErrors.ErrQuotaExhausted, fmt.Sprintf("subject %q has no remaining sessions", req.Subject))
	}

	count := req.Count
	if count > quota.Remaining {
		count = quota.Remaining
	}

	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}

	weekdays := scheduling.AllowedWeekdays(req.Subject, group.Weekdays())
	if len(req.WeekDays) > 0 && !scheduling.IsRemoteSubject(req.Subject) {
		weekdays = make([]time.Weekday, 0, len(req.WeekDays))
		for _, d := range req.WeekDays {
			weekdays = append(weekdays, time.Weekday(d))
		}
	}

	expanded := scheduling.Expand(scheduling.RecurrenceRequest{
		Start:            start,
		Mode:             scheduling.RecurrenceMode(req.Mode),
		AllowedWeekdays:  weekdays,
		TargetCount:      count,
		MaxLookaheadDays: s.maxLookaheadDays,
	}, cal)

	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	idx := scheduling.NewBookingIndex(existing)

	result := &RecurringResult{Requested: req.Count, Quota: quota.Remaining, Skipped: expanded.Skipped}
	groupID := req.ClassGroupID
	subject := req.Subject

	var toCreate []models.Booking
	for _, day := range expanded.Accepted {
		candidate := models.Booking{
			Type:         models.ActivityClass,
			Title:        req.Title,
			Date:         day,
			Shift:        models.Shift(req.Shift),
			InstructorID: req.InstructorID,
			RoomID:       req.RoomID,
			ClassGroupID: &groupID,
			Subject:      &subject,
			CreatedBy:    req.CreatedBy,
		}
		if verr := scheduling.Validate(candidate, cal, idx, ""); verr != nil {
			s.metrics.RecordRejection(verr.Reason)
			result.Conflicts = append(result.Conflicts, conflictDetail(verr))
			continue
		}
		toCreate = append(toCreate, candidate)
		idx.Add(candidate)
	}

	if len(toCreate) > 0 {
		if err := s.repo.BulkCreate(ctx, toCreate); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create recurring bookings")
		}
		for range toCreate {
			s.metrics.RecordBookingCreated(string(models.ActivityClass))
		}
		s.cache.InvalidateBookings(ctx)
	}

	result.Created = toCreate
	result.Partial = len(toCreate) < req.Count
	if result.Partial {
		s.metrics.RecordPartialBatch()
		s.logger.Info("recurring batch created partially",
			zap.Int("requested", req.Count),
			zap.Int("created", len(toCreate)),
			zap.Int("quota", quota.Remaining),
			zap.String("class_group_id", req.ClassGroupID),
			zap.String("subject", req.Subject))
	}
	return result, nil
}

// Update replaces a booking by id after re-validation.
func (s *BookingService) Update(ctx context.Context, id string, req UpdateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	date, err := time.Parse(scheduling.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	updated := models.Booking{
		ID:           existing.ID,
		Type:         models.ActivityType(req.Type),
		Title:        req.Title,
		Date:         date,
		Shift:        models.Shift(req.Shift),
		InstructorID: req.InstructorID,
		RoomID:       req.RoomID,
		ClassGroupID: req.ClassGroupID,
		Subject:      req.Subject,
		CreatedBy:    existing.CreatedBy,
		CreatedAt:    existing.CreatedAt,
	}

	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}

	if updated.Type == models.ActivityClass && updated.GroupID() != "" && updated.SubjectName() != "" {
		quota, err := s.resolveQuota(ctx, updated.GroupID(), updated.SubjectName(), existing.ID)
		if err != nil {
			return nil, err
		}
		if quota.Remaining <= 0 {
			s.metrics.RecordRejection(appErrors.ErrQuotaExhausted.Code)
			return nil, appErrors.Clone(appErrors.ErrQuotaExhausted, fmt.Sprintf("subject %q has no remaining sessions", updated.SubjectName()))
		}
	}

	if err := s.ensureNoConflict(ctx, updated, cal, existing.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}
	s.cache.InvalidateBookings(ctx)
	return &updated, nil
}

// Delete removes a booking by id. No side effects on other bookings.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	s.cache.InvalidateBookings(ctx)
	return nil
}

// RemainingQuota reports the session budget for a group+subject.
func (s *BookingService) RemainingQuota(ctx context.Context, classGroupID, subject string) (*SubjectQuota, error) {
	quota, err := s.resolveQuota(ctx, classGroupID, subject, "")
	if err != nil {
		return nil, err
	}
	return quota, nil
}

func (s *BookingService) loadCalendar(ctx context.Context) (*scheduling.Calendar, error) {
	entries, err := s.blackouts.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	return scheduling.NewCalendar(entries), nil
}

func (s *BookingService) resolveGroup(ctx context.Context, id string) (*models.ClassGroup, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnresolvedGroup, fmt.Sprintf("class group %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	return group, nil
}

func (s *BookingService) resolveQuota(ctx context.Context, classGroupID, subjectName, excludeID string) (*SubjectQuota, error) {
	group, err := s.resolveGroup(ctx, classGroupID)
	if err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindSubjectByName(ctx, group.CourseID, subjectName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %q not found in course %s", subjectName, group.CourseID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	scheduled, err := s.repo.CountClassSessions(ctx, classGroupID, subjectName, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scheduled sessions")
	}

	return &SubjectQuota{
		ClassGroupID:     classGroupID,
		Subject:          subjectName,
		SubjectHours:     subject.Hours,
		HoursPerDay:      scheduling.HoursPerLessonDay(group.ClassesPerDay),
		LessonDaysNeeded: scheduling.LessonDaysNeeded(subject.Hours, group.ClassesPerDay),
		Scheduled:        scheduled,
		Remaining:        scheduling.RemainingSessions(subject.Hours, group.ClassesPerDay, scheduled),
	}, nil
}

func (s *BookingService) ensureNoConflict(ctx context.Context, candidate models.Booking, cal *scheduling.Calendar, ignoreID string) error {
	occupants, err := s.repo.FindByOccupancy(ctx, candidate.Date, candidate.Shift)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check booking conflicts")
	}
	verr := scheduling.Validate(candidate, cal, scheduling.NewBookingIndex(occupants), ignoreID)
	if verr == nil {
		return nil
	}
	s.metrics.RecordRejection(verr.Reason)
	if verr.Reason == scheduling.ReasonHoliday {
		return appErrors.Clone(appErrors.ErrHoliday, fmt.Sprintf("date %s is blocked: %s", verr.Date, verr.Title))
	}
	domain := &models.BookingConflictError{
		Dimension: verr.Dimension,
		Message:   verr.Error(),
		Conflict:  conflictDetail(verr),
	}
	return appErrors.Wrap(domain, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, domain.Message)
}

func conflictDetail(verr *scheduling.ValidationError) models.BookingConflict {
	detail := models.BookingConflict{Date: verr.Date, Dimension: verr.Dimension}
	if verr.Conflict != nil {
		detail.BookingID = verr.Conflict.ID
		detail.Shift = verr.Conflict.Shift
		detail.InstructorID = verr.Conflict.InstructorID
		detail.RoomID = verr.Conflict.RoomID
		detail.ClassGroupID = verr.Conflict.GroupID()
	}
	return detail
}
