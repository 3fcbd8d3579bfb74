package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for booking storage.
//
// Create must re-check occupancy at the moment of write: if a non-terminal
// booking already holds the same (doctorID, date, time) triple it returns
// ErrSlotAlreadyBooked, and under concurrent creates for the same triple
// exactly one caller wins.
//
// UpdateStatus is a compare-and-swap: the write only lands if the stored
// status still equals from, otherwise ErrInvalidTransition. This is what
// keeps a concurrent cancel from being overwritten after the caller's read.
type Repository interface {
	Create(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) error
	ListByPatient(ctx context.Context, phone string) ([]*Booking, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
	OccupiedTimes(ctx context.Context, doctorID, date string) ([]string, error)
}

// InMemoryRepository keeps bookings in memory behind a mutex. The mutex is the
// write-time occupancy guard: membership check and insert happen under one
// critical section.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	order    []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{bookings: make(map[string]*Booking)}
}

// Create inserts a booking, rejecting occupancy conflicts.
func (r *InMemoryRepository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.DoctorID == b.DoctorID &&
			existing.Date == b.Date &&
			existing.Time == b.Time &&
			!existing.Status.IsTerminal() {
			return nil, ErrSlotAlreadyBooked
		}
	}

	stored := *b
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.bookings[stored.ID] = &stored
	r.order = append(r.order, stored.ID)

	out := stored
	return &out, nil
}

// GetByID retrieves a booking by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

// UpdateStatus persists a new status for the booking, only if its stored
// status still matches from.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.Status != from {
		return ErrInvalidTransition
	}
	b.Status = to
	return nil
}

// ListByPatient returns the patient's bookings, newest first.
func (r *InMemoryRepository) ListByPatient(ctx context.Context, phone string) ([]*Booking, error) {
	return r.listWhere(func(b *Booking) bool { return b.PatientPhone == phone })
}

// ListByDoctor returns bookings referencing the doctor profile, newest first.
func (r *InMemoryRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*Booking, error) {
	return r.listWhere(func(b *Booking) bool { return b.DoctorID == doctorID })
}

// ListAll returns every booking, newest first.
func (r *InMemoryRepository) ListAll(ctx context.Context) ([]*Booking, error) {
	return r.listWhere(func(*Booking) bool { return true })
}

func (r *InMemoryRepository) listWhere(keep func(*Booking) bool) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Booking
	for _, id := range r.order {
		if b, ok := r.bookings[id]; ok && keep(b) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// OccupiedTimes returns times on the date held by a non-terminal booking for
// the doctor.
func (r *InMemoryRepository) OccupiedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var times []string
	for _, b := range r.bookings {
		if b.DoctorID != doctorID || b.Date != date || b.Status.IsTerminal() {
			continue
		}
		if _, dup := seen[b.Time]; dup {
			continue
		}
		seen[b.Time] = struct{}{}
		times = append(times, b.Time)
	}
	sort.Strings(times)
	return times, nil
}
