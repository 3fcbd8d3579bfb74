package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardOverview(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewAdminDashboardHandler(db, nil)

	count := func(n int) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"count"}).AddRow(n)
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings$`).WillReturnRows(count(42))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = 'pending'`).WillReturnRows(count(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = 'confirmed'`).WillReturnRows(count(7))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = 'completed'`).WillReturnRows(count(25))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = 'cancelled'`).WillReturnRows(count(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_date = CURRENT_DATE`).WillReturnRows(count(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM doctors`).WillReturnRows(count(8))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role = 'patient'`).WillReturnRows(count(120))
	mock.ExpectQuery(`SELECT specialty, COUNT\(\*\) AS c`).
		WillReturnRows(sqlmock.NewRows([]string{"specialty", "c"}).
			AddRow("Tim mạch", 18).
			AddRow("Nhi khoa", 12))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.GetDashboardOverview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DashboardOverviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, 42, resp.Bookings.Total)
	assert.Equal(t, 5, resp.Bookings.Pending)
	assert.Equal(t, 7, resp.Bookings.Confirmed)
	assert.Equal(t, 25, resp.Bookings.Completed)
	assert.Equal(t, 3, resp.Bookings.Today)
	assert.Equal(t, 8, resp.Doctors.Total)
	assert.Equal(t, 120, resp.Patients.Total)
	require.Len(t, resp.Specialties, 2)
	assert.Equal(t, "Tim mạch", resp.Specialties[0].Specialty)
	assert.Equal(t, 18, resp.Specialties[0].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDashboardOverviewToleratesQueryFailures(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	handler := NewAdminDashboardHandler(db, nil)

	// Every aggregate errors; the dashboard still renders with zeros.
	for range [9]struct{}{} {
		mock.ExpectQuery(`SELECT`).WillReturnError(assert.AnError)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.GetDashboardOverview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DashboardOverviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Zero(t, resp.Bookings.Total)
	assert.Empty(t, resp.Specialties)
}

func TestGetDashboardOverviewWithoutDB(t *testing.T) {
	handler := NewAdminDashboardHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.GetDashboardOverview(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
