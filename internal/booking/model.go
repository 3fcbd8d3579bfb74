package booking

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status releases its slot and can never change.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status token.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// NonTerminalStatuses are the statuses that hold a slot for occupancy purposes.
var NonTerminalStatuses = []Status{StatusPending, StatusConfirmed}

// Role identifies the class of actor invoking an operation.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Actor is the authenticated identity behind a lifecycle operation.
// DoctorID is set only for doctor accounts linked to a doctor profile.
type Actor struct {
	Role     Role
	Phone    string
	DoctorID string
}

// Booking is an appointment held by a patient against a doctor's slot.
// Doctor display fields are a snapshot taken at creation time and are never
// re-synced when the doctor record changes.
type Booking struct {
	ID              string    `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	DoctorImage     string    `json:"doctor_image"`
	Specialty       string    `json:"specialty"`
	Date            string    `json:"date"` // YYYY-MM-DD
	Time            string    `json:"time"` // HH:mm
	PatientPhone    string    `json:"patient_phone"`
	PatientFullName string    `json:"patient_full_name"`
	ClinicalSummary string    `json:"clinical_summary,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// CanTransition checks the transition table: whether actor may move b from its
// current status to target. Terminal states admit no transition for any actor.
func CanTransition(b *Booking, target Status, actor Actor) bool {
	if b.Status.IsTerminal() {
		return false
	}
	ownPatient := actor.Role == RolePatient && actor.Phone == b.PatientPhone
	ownDoctor := actor.Role == RoleDoctor && actor.DoctorID != "" && actor.DoctorID == b.DoctorID
	admin := actor.Role == RoleAdmin

	switch {
	case b.Status == StatusPending && target == StatusConfirmed:
		return ownDoctor || admin
	case b.Status == StatusPending && target == StatusCancelled:
		return ownPatient || ownDoctor || admin
	case b.Status == StatusConfirmed && target == StatusCompleted:
		return ownDoctor || admin
	case b.Status == StatusConfirmed && target == StatusCancelled:
		return ownPatient || ownDoctor || admin
	}
	return false
}
