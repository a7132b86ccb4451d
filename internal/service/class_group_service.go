package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
)

type classGroupRepository interface {
	ListAll(ctx context.Context) ([]models.ClassGroup, error)
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
	Create(ctx context.Context, group *models.ClassGroup) error
	Update(ctx context.Context, group *models.ClassGroup) error
	Delete(ctx context.Context, id string) error
}

// SaveClassGroupRequest creates or updates a class group.
type SaveClassGroupRequest struct {
	Name          string `json:"name" validate:"required"`
	CourseID      string `json:"course_id" validate:"required"`
	Shift         string `json:"shift" validate:"required,oneof=MANHA TARDE NOITE"`
	ClassesPerDay int    `json:"classes_per_day" validate:"required,min=1,max=10"`
	WeekDays      []int  `json:"week_days" validate:"omitempty,dive,min=0,max=6"`
}

// ClassGroupService manages class group configuration.
type ClassGroupService struct {
	repo      classGroupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassGroupService instantiates ClassGroupService.
func NewClassGroupService(repo classGroupRepository, validate *validator.Validate, logger *zap.Logger) *ClassGroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassGroupService{repo: repo, validator: validate, logger: logger}
}

// List returns all class groups.
func (s *ClassGroupService) List(ctx context.Context) ([]models.ClassGroup, error) {
	groups, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class groups")
	}
	return groups, nil
}

// Get loads a class group by id.
func (s *ClassGroupService) Get(ctx context.Context, id string) (*models.ClassGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	return group, nil
}

// Create stores a new class group.
func (s *ClassGroupService) Create(ctx context.Context, req SaveClassGroupRequest) (*models.ClassGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class group payload")
	}
	group := models.ClassGroup{
		Name:          req.Name,
		CourseID:      req.CourseID,
		Shift:         models.Shift(req.Shift),
		ClassesPerDay: req.ClassesPerDay,
		WeekDays:      toInt64Array(req.WeekDays),
	}
	if err := s.repo.Create(ctx, &group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class group")
	}
	return &group, nil
}

// Update modifies an existing class group.
func (s *ClassGroupService) Update(ctx context.Context, id string, req SaveClassGroupRequest) (*models.ClassGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class group payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := models.ClassGroup{
		ID:            existing.ID,
		Name:          req.Name,
		CourseID:      req.CourseID,
		Shift:         models.Shift(req.Shift),
		ClassesPerDay: req.ClassesPerDay,
		WeekDays:      toInt64Array(req.WeekDays),
		CreatedAt:     existing.CreatedAt,
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class group")
	}
	return &updated, nil
}

// Delete removes a class group.
func (s *ClassGroupService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class group")
	}
	return nil
}

func toInt64Array(days []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(days))
	for _, d := range days {
		out = append(out, int64(d))
	}
	return out
}
