package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

const blackoutColumns = "id, date, title, is_day_off, category, created_by, created_at, updated_at"

// BlackoutRepository provides persistence for calendar blackout entries.
type BlackoutRepository struct {
	db *sqlx.DB
}

// NewBlackoutRepository creates a new blackout repository.
func NewBlackoutRepository(db *sqlx.DB) *BlackoutRepository {
	return &BlackoutRepository{db: db}
}

// List returns blackout entries with optional filtering and pagination.
func (r *BlackoutRepository) List(ctx context.Context, filter models.BlackoutFilter) ([]models.BlackoutEntry, int, error) {
	base := "FROM calendar_blackouts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.DayOff != nil {
		conditions = append(conditions, fmt.Sprintf("is_day_off = $%d", len(args)+1))
		args = append(args, *filter.DayOff)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC LIMIT %d OFFSET %d", blackoutColumns, base, size, offset)
	var entries []models.BlackoutEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list blackout entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count blackout entries: %w", err)
	}

	return entries, total, nil
}

// ListAll returns every blackout entry, for calendar indexing.
func (r *BlackoutRepository) ListAll(ctx context.Context) ([]models.BlackoutEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM calendar_blackouts ORDER BY date ASC", blackoutColumns)
	var entries []models.BlackoutEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list all blackout entries: %w", err)
	}
	return entries, nil
}

// FindByDate loads the entry for a calendar date, if any.
func (r *BlackoutRepository) FindByDate(ctx context.Context, date time.Time) (*models.BlackoutEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM calendar_blackouts WHERE date = $1", blackoutColumns)
	var entry models.BlackoutEntry
	if err := r.db.GetContext(ctx, &entry, query, date); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertByDate inserts or replaces the entry for the given date. A date holds
// at most one active entry.
func (r *BlackoutRepository) UpsertByDate(ctx context.Context, entry *models.BlackoutEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO calendar_blackouts (id, date, title, is_day_off, category, created_by, created_at, updated_at) VALUES (:id, :date, :title, :is_day_off, :category, :created_by, :created_at, :updated_at) ON CONFLICT (date) DO UPDATE SET title = EXCLUDED.title, is_day_off = EXCLUDED.is_day_off, category = EXCLUDED.category, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert blackout entry: %w", err)
	}
	return nil
}

// DeleteByDate removes the entry for a calendar date.
func (r *BlackoutRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM calendar_blackouts WHERE date = $1", date); err != nil {
		return fmt.Errorf("delete blackout entry: %w", err)
	}
	return nil
}
