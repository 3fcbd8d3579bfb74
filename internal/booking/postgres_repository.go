package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores bookings in the relational database.
//
// The no-double-booking property is enforced by a partial unique index on
// (doctor_id, booking_date, booking_time) restricted to non-terminal
// statuses, so concurrent creates for the same triple see exactly one winner
// regardless of what either client read beforehand.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const bookingColumns = `
	id, doctor_id, doctor_name, doctor_image, specialty,
	to_char(booking_date, 'YYYY-MM-DD'), booking_time,
	patient_phone, patient_full_name, COALESCE(clinical_summary, ''), status, created_at
`

// Create inserts a booking row. A unique violation on the occupancy index is
// reported as ErrSlotAlreadyBooked.
func (r *PostgresRepository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	stored := *b
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	query := `
		INSERT INTO bookings (
			id, doctor_id, doctor_name, doctor_image, specialty,
			booking_date, booking_time, patient_phone, patient_full_name,
			clinical_summary, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		stored.ID,
		stored.DoctorID,
		stored.DoctorName,
		stored.DoctorImage,
		stored.Specialty,
		stored.Date,
		stored.Time,
		stored.PatientPhone,
		stored.PatientFullName,
		stored.ClinicalSummary,
		string(stored.Status),
	).Scan(&stored.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, fmt.Errorf("booking: insert: %w", err)
	}
	return &stored, nil
}

// GetByID fetches a booking by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking: select: %w", err)
	}
	return b, nil
}

// UpdateStatus compare-and-swaps the status. The WHERE clause pins the
// expected current status, so a transition raced by another writer affects
// zero rows instead of clobbering it.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	query := `UPDATE bookings SET status = $3 WHERE id = $1 AND status = $2`
	tag, err := r.pool.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("booking: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// ListByPatient returns the patient's bookings, newest first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, phone string) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE patient_phone = $1 ORDER BY created_at DESC`
	return r.listQuery(ctx, query, phone)
}

// ListByDoctor returns bookings referencing the doctor profile, newest first.
func (r *PostgresRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE doctor_id = $1 ORDER BY created_at DESC`
	return r.listQuery(ctx, query, doctorID)
}

// ListAll returns every booking, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	return r.listQuery(ctx, query)
}

// OccupiedTimes returns the times on a date held by a non-terminal booking.
func (r *PostgresRepository) OccupiedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	query := `
		SELECT DISTINCT booking_time
		FROM bookings
		WHERE doctor_id = $1 AND booking_date = $2 AND status IN ('pending', 'confirmed')
		ORDER BY booking_time
	`
	rows, err := r.pool.Query(ctx, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("booking: occupied times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("booking: scan time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: iterate times: %w", err)
	}
	return times, nil
}

func (r *PostgresRepository) listQuery(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("booking: list: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("booking: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: iterate: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var createdAt time.Time
	if err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.DoctorName,
		&b.DoctorImage,
		&b.Specialty,
		&b.Date,
		&b.Time,
		&b.PatientPhone,
		&b.PatientFullName,
		&b.ClinicalSummary,
		&b.Status,
		&createdAt,
	); err != nil {
		return nil, err
	}
	b.CreatedAt = createdAt
	return &b, nil
}
