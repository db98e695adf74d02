package scheduling

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/medbook/internal/platform/apperr"
)

const DefaultMaxCapacity = 20

// Slot is one bookable (doctor, date, time) unit. Occupancy only moves
// through ConsumeSeat and ReleaseSeat and stays within [0, MaxCapacity].
type Slot struct {
	ID               uuid.UUID `json:"id"`
	DoctorID         uuid.UUID `json:"doctorId"`
	SpecialtyID      uuid.UUID `json:"specialtyId"`
	Date             string    `json:"date"`
	TimeSlot         string    `json:"timeSlot"`
	Room             string    `json:"room"`
	Building         string    `json:"building"`
	MaxCapacity      int       `json:"maxPatients"`
	CurrentOccupancy int       `json:"currentPatients"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (s *Slot) Remaining() int {
	return s.MaxCapacity - s.CurrentOccupancy
}

// SlotPatch carries the fields an admin may change. Nil fields are left
// untouched; all set fields are applied in one statement.
type SlotPatch struct {
	MaxCapacity *int    `json:"maxPatients,omitempty"`
	Room        *string `json:"room,omitempty"`
	Building    *string `json:"building,omitempty"`
}

func (p SlotPatch) IsEmpty() bool {
	return p.MaxCapacity == nil && p.Room == nil && p.Building == nil
}

type CreateSlotInput struct {
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	Date        string
	TimeSlot    string
	// Room and Building default to the doctor's assignment.
	Room        string
	Building    string
	MaxCapacity int
}

// Coordinates identify a slot without its id.
type Coordinates struct {
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	Date        string
	TimeSlot    string
}

func (c Coordinates) Complete() bool {
	return c.DoctorID != uuid.Nil && c.SpecialtyID != uuid.Nil && c.Date != "" && c.TimeSlot != ""
}

type AvailabilityQuery struct {
	SpecialtyID uuid.UUID
	Date        string
	DoctorID    uuid.UUID
	DoctorTitle string
}

// AvailableSlot is a slot with free seats, annotated for display.
type AvailableSlot struct {
	AppointmentID   uuid.UUID `json:"appointmentId"`
	DoctorID        uuid.UUID `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	DoctorTitle     string    `json:"doctorTitle"`
	Date            string    `json:"date"`
	TimeSlot        string    `json:"timeSlot"`
	Room            string    `json:"room"`
	Building        string    `json:"building"`
	SpecialtyID     uuid.UUID `json:"specialtyId"`
	Specialty       string    `json:"specialty"`
	AvailableCount  int       `json:"availableCount"`
	CurrentPatients int       `json:"currentPatients"`
	MaxPatients     int       `json:"maxPatients"`
}

type SlotFilter struct {
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	Date        string
}

type SlotView struct {
	Slot
	DoctorName  string `json:"doctorName"`
	DoctorTitle string `json:"doctorTitle"`
}

// SlotGroup is the admin listing unit: every slot of one doctor on one day.
type SlotGroup struct {
	Date             string      `json:"date"`
	DoctorID         uuid.UUID   `json:"doctorId"`
	DoctorName       string      `json:"doctorName"`
	DoctorTitle      string      `json:"doctorTitle"`
	SpecialtyID      uuid.UUID   `json:"specialtyId"`
	Room             string      `json:"room"`
	Building         string      `json:"building"`
	Appointments     []*SlotView `json:"appointments"`
	TotalSlots       int         `json:"totalSlots"`
	TotalPatients    int         `json:"totalPatients"`
	TotalMaxPatients int         `json:"totalMaxPatients"`
}

const dateLayout = "2006-01-02"

// NormalizeDate reduces "2025-05-01", "2025-05-01T00:00:00Z" and
// "2025-05-01 08:00" to "2025-05-01".
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", apperr.Validation("date must be YYYY-MM-DD")
	}
	return d.Format(dateLayout), nil
}

// NormalizeTime canonicalises a time of day to HH:MM.
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", apperr.Validation("timeSlot must be HH:MM")
	}
	return t.Format("15:04"), nil
}
