package clinic

import (
	"strings"
	"time"
)

// Specialty is one of the clinic's fixed set of medical specialties.
type Specialty string

const (
	SpecialtyGeneral     Specialty = "Đa khoa"
	SpecialtyENT         Specialty = "Tai Mũi Họng"
	SpecialtyDermatology Specialty = "Da liễu"
	SpecialtyPediatrics  Specialty = "Nhi khoa"
	SpecialtyCardiology  Specialty = "Tim mạch"
	SpecialtyNeurology   Specialty = "Thần kinh"
	SpecialtyGastro      Specialty = "Tiêu hóa"
	SpecialtyRespiratory Specialty = "Hô hấp"
)

// Specialties lists every known specialty in display order.
var Specialties = []Specialty{
	SpecialtyGeneral,
	SpecialtyENT,
	SpecialtyDermatology,
	SpecialtyPediatrics,
	SpecialtyCardiology,
	SpecialtyNeurology,
	SpecialtyGastro,
	SpecialtyRespiratory,
}

// ParseSpecialty resolves a name to a known specialty, case-insensitively.
func ParseSpecialty(name string) (Specialty, bool) {
	trimmed := strings.TrimSpace(name)
	for _, s := range Specialties {
		if strings.EqualFold(string(s), trimmed) {
			return s, true
		}
	}
	return "", false
}

// ClinicTimes are the discrete time-of-day values a slot may use.
var ClinicTimes = []string{
	"08:00", "09:00", "10:00", "11:00",
	"13:00", "14:00", "15:00", "16:00",
}

// IsClinicTime reports whether t is one of the clinic's discrete times.
func IsClinicTime(t string) bool {
	for _, ct := range ClinicTimes {
		if ct == t {
			return true
		}
	}
	return false
}

// Slot is a (date, time) cell a doctor has declared as potentially available.
type Slot struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:mm, one of ClinicTimes
}

// Valid checks the slot's date and time formats.
func (s Slot) Valid() bool {
	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return false
	}
	return IsClinicTime(s.Time)
}

// Doctor is a bookable practitioner with admin-declared availability.
type Doctor struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Specialty       Specialty `json:"specialty"`
	Price           int64     `json:"price"`
	Experience      int       `json:"experience"`
	Image           string    `json:"image"`
	AvailableSlots  []Slot    `json:"available_slots"`
	LinkedAccountID string    `json:"linked_account_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasSlot reports whether the doctor has declared the given cell.
func (d *Doctor) HasSlot(date, timeOfDay string) bool {
	for _, s := range d.AvailableSlots {
		if s.Date == date && s.Time == timeOfDay {
			return true
		}
	}
	return false
}

// AddSlot declares a cell. Adding an already-present cell is a no-op.
func (d *Doctor) AddSlot(slot Slot) {
	if d.HasSlot(slot.Date, slot.Time) {
		return
	}
	d.AvailableSlots = append(d.AvailableSlots, slot)
}

// RemoveSlot retracts a cell. Removing an absent cell is a no-op.
func (d *Doctor) RemoveSlot(slot Slot) {
	for i, s := range d.AvailableSlots {
		if s.Date == slot.Date && s.Time == slot.Time {
			d.AvailableSlots = append(d.AvailableSlots[:i], d.AvailableSlots[i+1:]...)
			return
		}
	}
}

// SlotsOn returns the declared times for a calendar date.
func (d *Doctor) SlotsOn(date string) []string {
	var times []string
	for _, s := range d.AvailableSlots {
		if s.Date == date {
			times = append(times, s.Time)
		}
	}
	return times
}
