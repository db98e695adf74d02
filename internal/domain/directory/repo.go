package directory

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads doctors and specialties. Get methods return
// db.ErrNotFound when the record is absent.
type Repository interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error)
	GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error)
	ListSpecialties(ctx context.Context) ([]*Specialty, error)
}
