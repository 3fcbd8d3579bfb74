package booking

import "errors"

var (
	// ErrInvalidSlot is returned when the requested (date, time) is not in the
	// doctor's declared availability.
	ErrInvalidSlot = errors.New("doctor has no such opening")

	// ErrSlotAlreadyBooked is returned on a write-time occupancy conflict.
	ErrSlotAlreadyBooked = errors.New("slot already booked")

	// ErrInvalidTransition is returned when a status change is not permitted
	// by the transition table or the requesting actor.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOrphanedDoctor is returned when a booking's doctor no longer resolves
	// to a live record and the operation needs one.
	ErrOrphanedDoctor = errors.New("doctor record no longer exists")

	// ErrBookingNotFound is returned when a booking id does not resolve.
	ErrBookingNotFound = errors.New("booking not found")
)
