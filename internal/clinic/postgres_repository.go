package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores doctors in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("clinic: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a doctor row.
func (r *PostgresRepository) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.Name == "" || d.Specialty == "" {
		return nil, ErrInvalidDoctor
	}
	if _, ok := ParseSpecialty(string(d.Specialty)); !ok {
		return nil, ErrInvalidDoctor
	}

	stored := *d
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	query := `
		INSERT INTO doctors (id, name, specialty, price, experience, image, linked_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		stored.ID,
		stored.Name,
		string(stored.Specialty),
		stored.Price,
		stored.Experience,
		stored.Image,
		stored.LinkedAccountID,
	).Scan(&stored.CreatedAt); err != nil {
		return nil, fmt.Errorf("clinic: insert doctor: %w", err)
	}

	for _, slot := range stored.AvailableSlots {
		if err := r.addSlot(ctx, stored.ID, slot); err != nil {
			return nil, err
		}
	}
	return &stored, nil
}

// GetByID fetches a doctor and its declared slots.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	query := `
		SELECT id, name, specialty, price, experience, image, COALESCE(linked_account_id, ''), created_at
		FROM doctors
		WHERE id = $1
	`
	var d Doctor
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.Price,
		&d.Experience,
		&d.Image,
		&d.LinkedAccountID,
		&d.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("clinic: select doctor: %w", err)
	}

	slots, err := r.loadSlots(ctx, id)
	if err != nil {
		return nil, err
	}
	d.AvailableSlots = slots
	return &d, nil
}

// List returns all doctors ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*Doctor, error) {
	return r.list(ctx, "", nil)
}

// ListBySpecialty filters doctors by exact specialty.
func (r *PostgresRepository) ListBySpecialty(ctx context.Context, specialty Specialty) ([]*Doctor, error) {
	return r.list(ctx, "WHERE specialty = $1", []any{string(specialty)})
}

func (r *PostgresRepository) list(ctx context.Context, where string, args []any) ([]*Doctor, error) {
	query := fmt.Sprintf(`
		SELECT id, name, specialty, price, experience, image, COALESCE(linked_account_id, ''), created_at
		FROM doctors
		%s
		ORDER BY created_at
	`, where)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinic: list doctors: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Specialty,
			&d.Price,
			&d.Experience,
			&d.Image,
			&d.LinkedAccountID,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("clinic: scan doctor: %w", err)
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic: iterate doctors: %w", err)
	}

	for _, d := range out {
		slots, err := r.loadSlots(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		d.AvailableSlots = slots
	}
	return out, nil
}

// Update rewrites the doctor row and replaces its slot set.
func (r *PostgresRepository) Update(ctx context.Context, d *Doctor) error {
	query := `
		UPDATE doctors
		SET name = $2, specialty = $3, price = $4, experience = $5, image = $6,
		    linked_account_id = NULLIF($7, '')
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		d.ID,
		d.Name,
		string(d.Specialty),
		d.Price,
		d.Experience,
		d.Image,
		d.LinkedAccountID,
	)
	if err != nil {
		return fmt.Errorf("clinic: update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM doctor_slots WHERE doctor_id = $1`, d.ID); err != nil {
		return fmt.Errorf("clinic: clear slots: %w", err)
	}
	for _, slot := range d.AvailableSlots {
		if err := r.addSlot(ctx, d.ID, slot); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the doctor row; doctor_slots cascades via FK.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clinic: delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PostgresRepository) addSlot(ctx context.Context, doctorID string, slot Slot) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	// ON CONFLICT keeps slot declaration idempotent.
	query := `
		INSERT INTO doctor_slots (doctor_id, slot_date, slot_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (doctor_id, slot_date, slot_time) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, doctorID, slot.Date, slot.Time); err != nil {
		return fmt.Errorf("clinic: insert slot: %w", err)
	}
	return nil
}

func (r *PostgresRepository) loadSlots(ctx context.Context, doctorID string) ([]Slot, error) {
	query := `
		SELECT to_char(slot_date, 'YYYY-MM-DD'), slot_time
		FROM doctor_slots
		WHERE doctor_id = $1
		ORDER BY slot_date, slot_time
	`
	rows, err := r.pool.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("clinic: load slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.Date, &s.Time); err != nil {
			return nil, fmt.Errorf("clinic: scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic: iterate slots: %w", err)
	}
	return slots, nil
}
