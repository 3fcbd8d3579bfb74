package accounts

import "errors"

var (
	// ErrMissingPhone is returned when the phone number is absent.
	ErrMissingPhone = errors.New("phone is required")

	// ErrMissingName is returned when the full name is absent.
	ErrMissingName = errors.New("full name is required")

	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrUserExists is returned when the phone is already registered.
	ErrUserExists = errors.New("account already exists")

	// ErrUserNotFound is returned when no account matches the phone.
	ErrUserNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned on a failed login. The caller cannot
	// distinguish a wrong password from an unknown phone.
	ErrInvalidCredentials = errors.New("invalid phone or password")
)
