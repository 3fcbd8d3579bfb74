package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngophungianghi/careai-server/internal/accounts"
	"github.com/ngophungianghi/careai-server/internal/clinic"
	"github.com/ngophungianghi/careai-server/internal/http/middleware"
)

type handlerFixture struct {
	router   http.Handler
	accounts *accounts.Service
	doctors  clinic.Repository
	engine   *Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	doctors := clinic.NewInMemoryRepository()
	doc, err := doctors.Create(context.Background(), &clinic.Doctor{
		ID:        "doc-1",
		Name:      "BS. Nguyễn Văn Hùng",
		Specialty: clinic.SpecialtyCardiology,
		AvailableSlots: []clinic.Slot{
			{Date: "2026-09-02", Time: "09:00"},
			{Date: "2026-09-02", Time: "10:00"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "doc-1", doc.ID)

	engine := NewEngine(NewInMemoryRepository(), doctors, nil, nil, 0, nil)
	handler := NewHandler(engine, nil)
	accountsSvc := accounts.NewService(accounts.NewInMemoryRepository(), "test-secret", time.Hour, nil)

	r := chi.NewRouter()
	r.Get("/doctors/{doctorID}/availability", handler.Availability)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(accountsSvc))
		r.Post("/bookings", handler.Create)
		r.Get("/bookings", handler.List)
		r.Get("/bookings/{bookingID}", handler.Get)
		r.Post("/bookings/{bookingID}/cancel", handler.Cancel)
		r.Post("/bookings/{bookingID}/confirm", handler.Confirm)
		r.Post("/bookings/{bookingID}/complete", handler.Complete)
	})

	return &handlerFixture{router: r, accounts: accountsSvc, doctors: doctors, engine: engine}
}

func (f *handlerFixture) patientToken(t *testing.T, phone, name string) string {
	t.Helper()
	_, err := f.accounts.Register(context.Background(), accounts.RegisterRequest{
		Phone:    phone,
		FullName: name,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	token, _, err := f.accounts.Login(context.Background(), accounts.LoginRequest{Phone: phone, Password: "s3cret-pass"})
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) doctorToken(t *testing.T, phone, doctorID string) string {
	t.Helper()
	_, err := f.accounts.Register(context.Background(), accounts.RegisterRequest{
		Phone:    phone,
		FullName: "BS. Nguyễn Văn Hùng",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	_, err = f.accounts.ElevateToDoctor(context.Background(), phone, doctorID)
	require.NoError(t, err)
	token, _, err := f.accounts.Login(context.Background(), accounts.LoginRequest{Phone: phone, Password: "s3cret-pass"})
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	f := newHandlerFixture(t)
	patient := f.patientToken(t, "0901234567", "Trần Văn An")
	doctor := f.doctorToken(t, "0907654321", "doc-1")

	// Patient books a declared slot.
	rr := f.do(t, http.MethodPost, "/bookings", patient, CreateRequest{
		DoctorID: "doc-1",
		Date:     "2026-09-02",
		Time:     "09:00",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var b Booking
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&b))
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "BS. Nguyễn Văn Hùng", b.DoctorName)

	// Doctor confirms, then completes.
	rr = f.do(t, http.MethodPost, "/bookings/"+b.ID+"/confirm", doctor, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPost, "/bookings/"+b.ID+"/complete", doctor, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var done Booking
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&done))
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestBookingConflictOverHTTP(t *testing.T) {
	f := newHandlerFixture(t)
	first := f.patientToken(t, "0901234567", "Trần Văn An")
	second := f.patientToken(t, "0909999999", "Lê Thị Bình")

	req := CreateRequest{DoctorID: "doc-1", Date: "2026-09-02", Time: "09:00"}
	rr := f.do(t, http.MethodPost, "/bookings", first, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodPost, "/bookings", second, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestBookingUndeclaredSlotOverHTTP(t *testing.T) {
	f := newHandlerFixture(t)
	patient := f.patientToken(t, "0901234567", "Trần Văn An")

	rr := f.do(t, http.MethodPost, "/bookings", patient, CreateRequest{
		DoctorID: "doc-1",
		Date:     "2026-09-02",
		Time:     "13:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestPatientCannotConfirmOverHTTP(t *testing.T) {
	f := newHandlerFixture(t)
	patient := f.patientToken(t, "0901234567", "Trần Văn An")

	rr := f.do(t, http.MethodPost, "/bookings", patient, CreateRequest{
		DoctorID: "doc-1",
		Date:     "2026-09-02",
		Time:     "09:00",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var b Booking
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&b))

	rr = f.do(t, http.MethodPost, "/bookings/"+b.ID+"/confirm", patient, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Cancelling their own pending booking is allowed.
	rr = f.do(t, http.MethodPost, "/bookings/"+b.ID+"/cancel", patient, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAvailabilityOverHTTP(t *testing.T) {
	f := newHandlerFixture(t)
	patient := f.patientToken(t, "0901234567", "Trần Văn An")

	rr := f.do(t, http.MethodPost, "/bookings", patient, CreateRequest{
		DoctorID: "doc-1",
		Date:     "2026-09-02",
		Time:     "09:00",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodGet, "/doctors/doc-1/availability?date=2026-09-02", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp availabilityResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, []string{"09:00"}, resp.OccupiedTimes)

	rr = f.do(t, http.MethodGet, "/doctors/doc-1/availability", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBookingEndpointsRequireAuth(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodPost, "/bookings", "", CreateRequest{DoctorID: "doc-1", Date: "2026-09-02", Time: "09:00"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodGet, "/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
