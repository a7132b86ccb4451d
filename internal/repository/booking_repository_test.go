package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "type", "title", "date", "shift", "instructor_id", "room_id", "class_group_id", "subject", "created_by", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "AULA", "Math", time.Now(), "NOITE", "I1", "R1", "G1", "Math", "user-1", time.Now(), time.Now())
	}
	return rows
}

func TestBookingRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	group := "G1"
	subject := "Math"
	booking := &models.Booking{
		Type:         models.ActivityClass,
		Title:        "Math",
		Date:         time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Shift:        models.ShiftEvening,
		InstructorID: "I1",
		RoomID:       "R1",
		ClassGroupID: &group,
		Subject:      &subject,
		CreatedBy:    "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), booking))
	require.NotEmpty(t, booking.ID)
	require.False(t, booking.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindByOccupancy(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM bookings WHERE date = \\$1 AND shift = \\$2").
		WithArgs(day, models.ShiftEvening).
		WillReturnRows(bookingRows("b1", "b2"))

	bookings, err := repo.FindByOccupancy(context.Background(), day, models.ShiftEvening)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCountClassSessionsExcludesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings WHERE type = \\$1 AND class_group_id = \\$2 AND subject = \\$3 AND id <> \\$4").
		WithArgs(models.ActivityClass, "G1", "Math", "b9").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountClassSessions(context.Background(), "G1", "Math", "b9")
	require.NoError(t, err)
	require.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryBulkCreateRunsInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	bookings := []models.Booking{
		{Type: models.ActivityClass, Title: "Math", Date: time.Now(), Shift: models.ShiftMorning, InstructorID: "I1", RoomID: "R1", CreatedBy: "user-1"},
		{Type: models.ActivityClass, Title: "Math", Date: time.Now(), Shift: models.ShiftMorning, InstructorID: "I1", RoomID: "R1", CreatedBy: "user-1"},
	}
	require.NoError(t, repo.BulkCreate(context.Background(), bookings))
	require.NotEmpty(t, bookings[0].ID)
	require.NotEmpty(t, bookings[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryApplyReallocationAtomic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1")).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	inserts := []models.Booking{
		{ID: "b1-moved", Type: models.ActivityClass, Title: "Math", Date: time.Now(), Shift: models.ShiftEvening, InstructorID: "I1", RoomID: "R1", CreatedBy: "user-1"},
	}
	require.NoError(t, repo.ApplyReallocation(context.Background(), []string{"b1"}, inserts))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryApplyReallocationRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1")).
		WithArgs("b1").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.ApplyReallocation(context.Background(), []string{"b1"}, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM bookings WHERE 1=1 AND date >= \\$1 AND shift = \\$2 ORDER BY date ASC, shift ASC").
		WithArgs(from, models.ShiftMorning).
		WillReturnRows(bookingRows("b1"))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings WHERE 1=1 AND date >= \\$1 AND shift = \\$2").
		WithArgs(from, models.ShiftMorning).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{From: &from, Shift: models.ShiftMorning})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
