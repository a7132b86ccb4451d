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

const bookingColumns = "id, type, title, date, shift, instructor_id, room_id, class_group_id, subject, created_by, created_at, updated_at"

// BookingRepository provides persistence for activity bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
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
	if filter.Shift != "" {
		conditions = append(conditions, fmt.Sprintf("shift = $%d", len(args)+1))
		args = append(args, filter.Shift)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.ClassGroupID != "" {
		conditions = append(conditions, fmt.Sprintf("class_group_id = $%d", len(args)+1))
		args = append(args, filter.ClassGroupID)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, shift ASC LIMIT %d OFFSET %d", bookingColumns, base, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// ListAll returns the full active booking set ordered by creation. The
// reallocator depends on this order being stable.
func (r *BookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings ORDER BY created_at ASC, id ASC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("list all bookings: %w", err)
	}
	return bookings, nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByOccupancy returns bookings occupying a (date, shift) slot.
func (r *BookingRepository) FindByOccupancy(ctx context.Context, date time.Time, shift models.Shift) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE date = $1 AND shift = $2", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, date, shift); err != nil {
		return nil, fmt.Errorf("find bookings by occupancy: %w", err)
	}
	return bookings, nil
}

// CountClassSessions counts class bookings for a group+subject, optionally
// excluding one booking id. Feeds the subject quota calculation.
func (r *BookingRepository) CountClassSessions(ctx context.Context, classGroupID, subject, excludeID string) (int, error) {
	query := "SELECT COUNT(*) FROM bookings WHERE type = $1 AND class_group_id = $2 AND subject = $3"
	args := []interface{}{models.ActivityClass, classGroupID, subject}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count class sessions: %w", err)
	}
	return total, nil
}

// Create stores a new booking record.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, type, title, date, shift, instructor_id, room_id, class_group_id, subject, created_by, created_at, updated_at) VALUES (:id, :type, :title, :date, :shift, :instructor_id, :room_id, :class_group_id, :subject, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// BulkCreate inserts many bookings within a transaction. Used by recurring
// scheduling so a batch lands atomically.
func (r *BookingRepository) BulkCreate(ctx context.Context, bookings []models.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create bookings: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.bulkInsertBookings(ctx, tx, bookings); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create bookings: %w", err)
	}
	return nil
}

func (r *BookingRepository) bulkInsertBookings(ctx context.Context, exec sqlx.ExtContext, bookings []models.Booking) error {
	now := time.Now().UTC()
	for i := range bookings {
		payload := bookings[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO bookings (id, type, title, date, shift, instructor_id, room_id, class_group_id, subject, created_by, created_at, updated_at) VALUES (:id, :type, :title, :date, :shift, :instructor_id, :room_id, :class_group_id, :subject, :created_by, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert booking: %w", err)
		}
		bookings[i] = payload
	}
	return nil
}

// Update modifies a booking record.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET type = :type, title = :title, date = :date, shift = :shift, instructor_id = :instructor_id, room_id = :room_id, class_group_id = :class_group_id, subject = :subject, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// Delete removes a booking by id.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

// ApplyReallocation removes displaced bookings and inserts their relocated
// clones in a single transaction, so the booking set never shows a partially
// applied reallocation.
func (r *BookingRepository) ApplyReallocation(ctx context.Context, removeIDs []string, inserts []models.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reallocation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, id := range removeIDs {
		if _, err = tx.ExecContext(ctx, "DELETE FROM bookings WHERE id = $1", id); err != nil {
			err = fmt.Errorf("remove displaced booking %s: %w", id, err)
			return err
		}
	}

	if err = r.bulkInsertBookings(ctx, tx, inserts); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reallocation: %w", err)
	}
	return nil
}
