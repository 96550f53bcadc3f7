package schedule

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewRepository(sqlxDB)

	return repo, mock, func() { sqlxDB.Close() }
}

func classColumns() []string {
	return []string{"id", "name", "instructor", "day_of_week", "start_time", "end_time", "max_capacity", "is_active", "created_at"}
}

func TestCreateClass(t *testing.T) {
	repo, mock, closer := setupMock(t)
	defer closer()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO classes")).
		WithArgs("Morning Flow", "Elena", 1, "10:00", "11:00", 2, true).
		WillReturnRows(sqlmock.NewRows(classColumns()).
			AddRow(1, "Morning Flow", "Elena", 1, "10:00", "11:00", 2, true, now))

	class, err := repo.Create(context.Background(), &Class{
		Name: "Morning Flow", Instructor: "Elena", DayOfWeek: 1,
		StartTime: "10:00", EndTime: "11:00", MaxCapacity: 2, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, class.ID)
	assert.True(t, class.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveOrdering(t *testing.T) {
	repo, mock, closer := setupMock(t)
	defer closer()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows(classColumns()).
			AddRow(2, "Sunrise Yoga", "Elena", 1, "07:00", "08:00", 10, true, now).
			AddRow(1, "Morning Flow", "Elena", 1, "10:00", "11:00", 2, true, now).
			AddRow(3, "Pilates", "Marco", 3, "18:00", "19:00", 8, true, now))

	classes, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 3)
	assert.Equal(t, "Sunrise Yoga", classes[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClass(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, closer := setupMock(t)
		defer closer()

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE id = $1")).
			WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), 5))
	})

	t.Run("blocked by reservation history", func(t *testing.T) {
		repo, mock, closer := setupMock(t)
		defer closer()

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE id = $1")).
			WithArgs(5).
			WillReturnError(&pq.Error{Code: "23503", Constraint: "reservations_class_id_fkey"})

		err := repo.Delete(context.Background(), 5)
		assert.ErrorIs(t, err, ErrHasReservations)
	})

	t.Run("missing class", func(t *testing.T) {
		repo, mock, closer := setupMock(t)
		defer closer()

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE id = $1")).
			WithArgs(99).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), 99)
		assert.ErrorIs(t, err, ErrClassNotFound)
	})
}

func TestDeactivateClass(t *testing.T) {
	repo, mock, closer := setupMock(t)
	defer closer()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET is_active = FALSE WHERE id = $1")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}
