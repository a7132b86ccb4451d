package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

func TestBlackoutRepositoryUpsertByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBlackoutRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO calendar_blackouts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.BlackoutEntry{
		Date:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Title:     "Dia do Trabalho",
		IsDayOff:  true,
		Category:  models.BlackoutHoliday,
		CreatedBy: "user-1",
	}
	require.NoError(t, repo.UpsertByDate(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlackoutRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBlackoutRepository(db)

	rows := sqlmock.NewRows([]string{"id", "date", "title", "is_day_off", "category", "created_by", "created_at", "updated_at"}).
		AddRow("c1", time.Now(), "Feriado", true, "FERIADO", "user-1", time.Now(), time.Now()).
		AddRow("c2", time.Now(), "Palestra", false, "EVENTO", "user-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM calendar_blackouts ORDER BY date ASC").
		WillReturnRows(rows)

	entries, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].IsDayOff)
	require.False(t, entries[1].IsDayOff)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlackoutRepositoryDeleteByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBlackoutRepository(db)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM calendar_blackouts WHERE date = $1")).
		WithArgs(day).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteByDate(context.Background(), day))
	require.NoError(t, mock.ExpectationsWereMet())
}
