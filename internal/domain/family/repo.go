package family

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Member) error
	// GetOwned returns db.ErrNotFound both when the member is absent and
	// when it belongs to another account.
	GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*Member, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Member, error)
}
