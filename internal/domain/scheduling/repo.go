package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbook/medbook/pkg/pagination"
)

// Repository is the capacity store. Every mutation is a single atomic
// statement; callers that need several to commit together run them inside
// db.TxManager.WithinTx.
type Repository interface {
	// Create returns db.ErrDuplicate when (doctor, date, time) is taken.
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	FindByCoordinates(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (*Slot, error)
	// Delete removes the slot only while it is empty. It reports whether a
	// row was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// ApplyPatch returns db.ErrNotFound when the slot is absent or the new
	// capacity is below the current occupancy.
	ApplyPatch(ctx context.Context, id uuid.UUID, p SlotPatch) (*Slot, error)
	// ConsumeSeat takes one seat if any remain and reports whether it did.
	ConsumeSeat(ctx context.Context, id uuid.UUID) (bool, error)
	// ReleaseSeat gives one seat back, never going below zero.
	ReleaseSeat(ctx context.Context, id uuid.UUID) error
	ListForDoctors(ctx context.Context, specialtyID uuid.UUID, date string, doctorIDs []uuid.UUID) ([]*Slot, error)
	// ListGrouped pages (date, doctor) groups, newest date first. Doctor
	// names are left for the caller to fill in.
	ListGrouped(ctx context.Context, f SlotFilter, p pagination.Params) ([]*SlotGroup, int, error)
}
