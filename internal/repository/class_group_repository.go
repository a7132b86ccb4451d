package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

const classGroupColumns = "id, name, course_id, shift, classes_per_day, week_days, created_at, updated_at"

// ClassGroupRepository provides persistence for class groups.
type ClassGroupRepository struct {
	db *sqlx.DB
}

// NewClassGroupRepository creates a new class group repository.
func NewClassGroupRepository(db *sqlx.DB) *ClassGroupRepository {
	return &ClassGroupRepository{db: db}
}

// ListAll returns every class group ordered by name.
func (r *ClassGroupRepository) ListAll(ctx context.Context) ([]models.ClassGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM class_groups ORDER BY name ASC", classGroupColumns)
	var groups []models.ClassGroup
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list class groups: %w", err)
	}
	return groups, nil
}

// FindByID loads a class group by id.
func (r *ClassGroupRepository) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM class_groups WHERE id = $1", classGroupColumns)
	var group models.ClassGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create stores a new class group.
func (r *ClassGroupRepository) Create(ctx context.Context, group *models.ClassGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	const query = `INSERT INTO class_groups (id, name, course_id, shift, classes_per_day, week_days, created_at, updated_at) VALUES (:id, :name, :course_id, :shift, :classes_per_day, :week_days, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create class group: %w", err)
	}
	return nil
}

// Update modifies a class group.
func (r *ClassGroupRepository) Update(ctx context.Context, group *models.ClassGroup) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_groups SET name = :name, course_id = :course_id, shift = :shift, classes_per_day = :classes_per_day, week_days = :week_days, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update class group: %w", err)
	}
	return nil
}

// Delete removes a class group by id.
func (r *ClassGroupRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM class_groups WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete class group: %w", err)
	}
	return nil
}
