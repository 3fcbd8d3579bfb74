package clinic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for doctor storage.
type Repository interface {
	Create(ctx context.Context, d *Doctor) (*Doctor, error)
	GetByID(ctx context.Context, id string) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	ListBySpecialty(ctx context.Context, specialty Specialty) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository stores doctors in memory. Used in tests and when no
// database is configured.
type InMemoryRepository struct {
	mu      sync.RWMutex
	doctors map[string]*Doctor
	order   []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{doctors: make(map[string]*Doctor)}
}

// Create stores a new doctor with a generated id.
func (r *InMemoryRepository) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.Name == "" || d.Specialty == "" {
		return nil, ErrInvalidDoctor
	}
	if _, ok := ParseSpecialty(string(d.Specialty)); !ok {
		return nil, ErrInvalidDoctor
	}

	stored := cloneDoctor(d)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	r.doctors[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	r.mu.Unlock()

	return cloneDoctor(stored), nil
}

// cloneDoctor copies a record including its slots slice, so callers can
// mutate their copy without reaching into stored state.
func cloneDoctor(d *Doctor) *Doctor {
	out := *d
	if d.AvailableSlots != nil {
		out.AvailableSlots = append([]Slot(nil), d.AvailableSlots...)
	}
	return &out
}

// GetByID retrieves a doctor by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return cloneDoctor(d), nil
}

// List returns all doctors in insertion order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Doctor, 0, len(r.order))
	for _, id := range r.order {
		if d, ok := r.doctors[id]; ok {
			out = append(out, cloneDoctor(d))
		}
	}
	return out, nil
}

// ListBySpecialty filters doctors by specialty, preserving insertion order.
func (r *InMemoryRepository) ListBySpecialty(ctx context.Context, specialty Specialty) ([]*Doctor, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Doctor
	for _, d := range all {
		if d.Specialty == specialty {
			out = append(out, d)
		}
	}
	return out, nil
}

// Update replaces the stored doctor record.
func (r *InMemoryRepository) Update(ctx context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.doctors[d.ID]
	if !ok {
		return ErrDoctorNotFound
	}
	updated := cloneDoctor(d)
	updated.CreatedAt = existing.CreatedAt
	r.doctors[d.ID] = updated
	return nil
}

// Delete removes a doctor and its declared slots. Bookings that reference the
// doctor keep their snapshot fields and are untouched here.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	delete(r.doctors, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
