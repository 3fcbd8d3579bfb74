package clinic

import "errors"

var (
	// ErrDoctorNotFound is returned when a doctor id does not resolve.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrInvalidDoctor is returned when a doctor record fails validation.
	ErrInvalidDoctor = errors.New("doctor name and specialty are required")

	// ErrInvalidSlot is returned when a slot's date or time is malformed.
	ErrInvalidSlot = errors.New("slot must have an ISO date and a clinic time")
)
