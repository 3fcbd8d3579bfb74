package accounts

import (
	"strings"
	"time"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// User is a login identity. Phone is the primary key.
// DoctorID is set when an admin ties the account to a doctor profile.
type User struct {
	Phone        string    `json:"phone"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	DoctorID     string    `json:"doctor_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the body for account creation.
type RegisterRequest struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Validate checks the registration fields.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	if strings.TrimSpace(r.FullName) == "" {
		return ErrMissingName
	}
	if len(r.Password) < 6 {
		return ErrWeakPassword
	}
	return nil
}

// LoginRequest is the body for authentication.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
