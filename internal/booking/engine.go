package booking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ngophungianghi/careai-server/internal/clinic"
	"github.com/ngophungianghi/careai-server/internal/observability/metrics"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

var bookingTracer = otel.Tracer("careai.internal.booking")

// Notifier is told about lifecycle events. Implementations must be
// best-effort; the engine logs failures and never propagates them.
type Notifier interface {
	BookingStatusChanged(ctx context.Context, b *Booking)
}

// DefaultBookingWindowDays bounds how far ahead a slot may be booked.
const DefaultBookingWindowDays = 6

// Engine owns the booking state machine: creation, status transitions, and
// the authorization rules for who may invoke which transition.
type Engine struct {
	repo       Repository
	doctors    clinic.Repository
	notifier   Notifier
	metrics    *metrics.BookingMetrics
	windowDays int
	now        func() time.Time
	logger     *logging.Logger
}

// NewEngine constructs a booking engine. windowDays <= 0 selects the default
// booking window.
func NewEngine(repo Repository, doctors clinic.Repository, notifier Notifier, m *metrics.BookingMetrics, windowDays int, logger *logging.Logger) *Engine {
	if repo == nil {
		panic("booking: repository required")
	}
	if doctors == nil {
		panic("booking: doctor repository required")
	}
	if windowDays <= 0 {
		windowDays = DefaultBookingWindowDays
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		repo:       repo,
		doctors:    doctors,
		notifier:   notifier,
		metrics:    m,
		windowDays: windowDays,
		now:        time.Now,
		logger:     logger,
	}
}

// CreateRequest carries the patient's booking intent. Doctor display fields
// are snapshotted server-side; the client never supplies them.
type CreateRequest struct {
	DoctorID        string `json:"doctor_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	ClinicalSummary string `json:"clinical_summary,omitempty"`
}

// Create books a slot for the acting patient.
//
// The occupancy check happens twice: once here for a friendly rejection, and
// again inside the repository at the moment of write. Only the second check is
// authoritative under concurrent writers.
func (e *Engine) Create(ctx context.Context, req CreateRequest, actor Actor, patientFullName string) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("careai.doctor_id", req.DoctorID),
		attribute.String("careai.date", req.Date),
		attribute.String("careai.time", req.Time),
	)

	if actor.Role != RolePatient {
		e.metrics.ObserveRejected("actor_not_patient")
		return nil, ErrInvalidTransition
	}

	doctor, err := e.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, clinic.ErrDoctorNotFound) {
			e.metrics.ObserveRejected("orphaned_doctor")
			return nil, ErrOrphanedDoctor
		}
		span.RecordError(err)
		return nil, err
	}

	if !doctor.HasSlot(req.Date, req.Time) {
		e.metrics.ObserveRejected("invalid_slot")
		return nil, ErrInvalidSlot
	}

	if !e.withinWindow(req.Date) {
		e.metrics.ObserveRejected("outside_window")
		return nil, ErrInvalidSlot
	}

	occupied, err := e.repo.OccupiedTimes(ctx, req.DoctorID, req.Date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, t := range occupied {
		if t == req.Time {
			e.metrics.ObserveConflict()
			return nil, ErrSlotAlreadyBooked
		}
	}

	b := &Booking{
		DoctorID:        doctor.ID,
		DoctorName:      doctor.Name,
		DoctorImage:     doctor.Image,
		Specialty:       string(doctor.Specialty),
		Date:            req.Date,
		Time:            req.Time,
		PatientPhone:    actor.Phone,
		PatientFullName: patientFullName,
		ClinicalSummary: req.ClinicalSummary,
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	created, err := e.repo.Create(ctx, b)
	if err != nil {
		if errors.Is(err, ErrSlotAlreadyBooked) {
			// A concurrent writer won the slot between our read and write.
			e.metrics.ObserveConflict()
			return nil, ErrSlotAlreadyBooked
		}
		span.RecordError(err)
		return nil, err
	}

	e.metrics.ObserveCreated()
	e.logger.Info("booking created",
		"booking_id", created.ID,
		"doctor_id", created.DoctorID,
		"date", created.Date,
		"time", created.Time,
	)
	e.notify(ctx, created)
	return created, nil
}

// Transition moves a booking to a new status on behalf of an actor. Terminal
// states are immutable; unauthorized actors are rejected identically to
// impossible transitions.
func (e *Engine) Transition(ctx context.Context, bookingID string, target Status, actor Actor) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("careai.booking_id", bookingID),
		attribute.String("careai.target_status", string(target)),
	)

	if !target.Valid() {
		e.metrics.ObserveRejected("unknown_status")
		return nil, ErrInvalidTransition
	}

	b, err := e.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(b, target, actor) {
		e.metrics.ObserveRejected("invalid_transition")
		return nil, ErrInvalidTransition
	}

	from := b.Status
	if err := e.repo.UpdateStatus(ctx, bookingID, from, target); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Another writer moved the booking between our read and write.
			e.metrics.ObserveRejected("stale_status")
			return nil, ErrInvalidTransition
		}
		span.RecordError(err)
		return nil, err
	}
	b.Status = target

	e.metrics.ObserveTransition(string(from), string(target))
	e.logger.Info("booking transitioned",
		"booking_id", b.ID,
		"from", from,
		"to", target,
		"actor_role", actor.Role,
	)
	e.notify(ctx, b)
	return b, nil
}

// OccupiedTimes reports which of the doctor's declared times for a date are
// held by a non-terminal booking. A deleted doctor yields an empty set rather
// than an error. The result is advisory for UI disablement only; creation
// re-verifies at write time.
func (e *Engine) OccupiedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	doctor, err := e.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, clinic.ErrDoctorNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	occupied, err := e.repo.OccupiedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	declared := make(map[string]struct{})
	for _, t := range doctor.SlotsOn(date) {
		declared[t] = struct{}{}
	}
	times := make([]string, 0, len(occupied))
	for _, t := range occupied {
		if _, ok := declared[t]; ok {
			times = append(times, t)
		}
	}
	return times, nil
}

// ListFor returns the bookings visible to the actor's role view.
func (e *Engine) ListFor(ctx context.Context, actor Actor) ([]*Booking, error) {
	switch actor.Role {
	case RolePatient:
		return e.repo.ListByPatient(ctx, actor.Phone)
	case RoleDoctor:
		if actor.DoctorID == "" {
			return []*Booking{}, nil
		}
		return e.repo.ListByDoctor(ctx, actor.DoctorID)
	case RoleAdmin:
		return e.repo.ListAll(ctx)
	}
	return []*Booking{}, nil
}

// Get returns a booking if the actor's role view may see it.
func (e *Engine) Get(ctx context.Context, bookingID string, actor Actor) (*Booking, error) {
	b, err := e.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case RoleAdmin:
		return b, nil
	case RolePatient:
		if b.PatientPhone == actor.Phone {
			return b, nil
		}
	case RoleDoctor:
		if actor.DoctorID != "" && b.DoctorID == actor.DoctorID {
			return b, nil
		}
	}
	return nil, ErrBookingNotFound
}

// withinWindow bounds how far ahead a booking may land. YYYY-MM-DD strings
// order lexicographically, so the comparison stays on strings.
func (e *Engine) withinWindow(date string) bool {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return false
	}
	latest := e.now().AddDate(0, 0, e.windowDays).Format("2006-01-02")
	return date <= latest
}

func (e *Engine) notify(ctx context.Context, b *Booking) {
	if e.notifier == nil {
		return
	}
	e.notifier.BookingStatusChanged(ctx, b)
}
