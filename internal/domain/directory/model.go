package directory

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a read-only directory record. Room and Building come from the
// doctor's assigned room and are copied onto slots created for them.
type Doctor struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"fullName"`
	Title       string    `json:"title"`
	SpecialtyID uuid.UUID `json:"specialtyId"`
	Room        string    `json:"room"`
	Building    string    `json:"building"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Specialty struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DoctorFilter narrows ListDoctors. Zero values match everything.
type DoctorFilter struct {
	SpecialtyID uuid.UUID
	Title       string
	// Search is a case-insensitive substring of the doctor's name.
	Search string
}
