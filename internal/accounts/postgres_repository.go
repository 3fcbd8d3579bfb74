package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores accounts in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("accounts: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts an account row.
func (r *PostgresRepository) Create(ctx context.Context, u *User) (*User, error) {
	stored := *u
	query := `
		INSERT INTO users (phone, full_name, password_hash, role, doctor_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		stored.Phone,
		stored.FullName,
		stored.PasswordHash,
		stored.Role,
		stored.DoctorID,
	).Scan(&stored.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("accounts: insert: %w", err)
	}
	return &stored, nil
}

// GetByPhone fetches an account.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	query := `
		SELECT phone, full_name, password_hash, role, COALESCE(doctor_id, ''), created_at
		FROM users
		WHERE phone = $1
	`
	var u User
	if err := r.pool.QueryRow(ctx, query, phone).Scan(
		&u.Phone,
		&u.FullName,
		&u.PasswordHash,
		&u.Role,
		&u.DoctorID,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("accounts: select: %w", err)
	}
	return &u, nil
}

// Update rewrites the mutable account fields.
func (r *PostgresRepository) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET full_name = $2, password_hash = $3, role = $4, doctor_id = NULLIF($5, '')
		WHERE phone = $1
	`
	tag, err := r.pool.Exec(ctx, query, u.Phone, u.FullName, u.PasswordHash, u.Role, u.DoctorID)
	if err != nil {
		return fmt.Errorf("accounts: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
