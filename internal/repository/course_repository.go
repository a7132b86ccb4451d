package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

// CourseRepository provides persistence for courses and their subjects.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListAll returns every course ordered by name.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, created_at, updated_at FROM courses ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID loads a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create stores a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course and its subjects.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM subjects WHERE course_id = $1", id); err != nil {
		err = fmt.Errorf("delete course subjects: %w", err)
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id); err != nil {
		err = fmt.Errorf("delete course: %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course: %w", err)
	}
	return nil
}

// ListSubjects returns a course's subjects ordered by name.
func (r *CourseRepository) ListSubjects(ctx context.Context, courseID string) ([]models.Subject, error) {
	const query = `SELECT id, course_id, name, hours FROM subjects WHERE course_id = $1 ORDER BY name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, courseID); err != nil {
		return nil, fmt.Errorf("list course subjects: %w", err)
	}
	return subjects, nil
}

// FindSubjectByName loads a subject by course and name. Class bookings
// reference subjects by name, so this lookup backs the quota calculation.
func (r *CourseRepository) FindSubjectByName(ctx context.Context, courseID, name string) (*models.Subject, error) {
	const query = `SELECT id, course_id, name, hours FROM subjects WHERE course_id = $1 AND name = $2`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, courseID, name); err != nil {
		return nil, err
	}
	return &subject, nil
}

// CreateSubject stores a new subject under a course.
func (r *CourseRepository) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	const query = `INSERT INTO subjects (id, course_id, name, hours) VALUES (:id, :course_id, :name, :hours)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// DeleteSubject removes a subject by id.
func (r *CourseRepository) DeleteSubject(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM subjects WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
