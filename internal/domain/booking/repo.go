package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbook/medbook/pkg/pagination"
)

type Repository interface {
	Insert(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// CancelOwned flips a confirmed booking owned by userID to cancelled in
	// one statement. It returns db.ErrNotFound when nothing changed.
	CancelOwned(ctx context.Context, id, userID uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Booking, error)
	ListAll(ctx context.Context, p pagination.Params) ([]*Booking, int, error)
	// CountThrough counts confirmed bookings in the cohort whose sequence is
	// at most seq.
	CountThrough(ctx context.Context, c Cohort, seq int) (int, error)
}

// QueueCounter hands out per-cohort sequence numbers. Next must be atomic
// and join the caller's transaction so a rolled back booking leaves no gap.
type QueueCounter interface {
	Next(ctx context.Context, c Cohort) (int, error)
}
