package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresCreate_SlotConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(pgxmock.AnyArg(), "doc-1", "TS. BS Phạm Minh Tâm", "img", "Tim mạch",
			"2024-06-10", "09:00", "0901234567", "Nguyễn Văn A", "", "pending").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_active_slot_idx"})

	_, err = repo.Create(context.Background(), &Booking{
		DoctorID:        "doc-1",
		DoctorName:      "TS. BS Phạm Minh Tâm",
		DoctorImage:     "img",
		Specialty:       "Tim mạch",
		Date:            "2024-06-10",
		Time:            "09:00",
		PatientPhone:    "0901234567",
		PatientFullName: "Nguyễn Văn A",
		Status:          StatusPending,
	})
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_OK(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	created := time.Date(2024, 6, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(pgxmock.AnyArg(), "doc-1", "BS", "img", "Nhi khoa",
			"2024-06-10", "10:00", "0901", "A", "sốt nhẹ", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	b, err := repo.Create(context.Background(), &Booking{
		DoctorID:        "doc-1",
		DoctorName:      "BS",
		DoctorImage:     "img",
		Specialty:       "Nhi khoa",
		Date:            "2024-06-10",
		Time:            "10:00",
		PatientPhone:    "0901",
		PatientFullName: "A",
		ClinicalSummary: "sốt nhẹ",
		Status:          StatusPending,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, created, b.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOccupiedTimes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(`SELECT DISTINCT booking_time`).
		WithArgs("doc-1", "2024-06-10").
		WillReturnRows(pgxmock.NewRows([]string{"booking_time"}).AddRow("09:00").AddRow("10:00"))

	times, err := repo.OccupiedTimes(context.Background(), "doc-1", "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, times)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatus_CompareAndSwap(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs("bk-1", "pending", "confirmed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "bk-1", StatusPending, StatusConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatus_StaleStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	// Expected status no longer matches: zero rows, nothing clobbered.
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs("bk-1", "pending", "confirmed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatus(context.Background(), "bk-1", StatusPending, StatusConfirmed)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}
