package family

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/medbook/internal/platform/apperr"
	"github.com/medbook/medbook/internal/platform/db"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetOwned is what the booking engine uses to check that a patient id
// belongs to the requester.
func (s *Service) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*Member, error) {
	m, err := s.repo.GetOwned(ctx, id, ownerID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("family member not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load family member")
	}
	return m, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Member, error) {
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err, "list family members")
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, m *Member) error {
	m.FullName = strings.TrimSpace(m.FullName)
	m.Gender = strings.TrimSpace(m.Gender)
	if m.UserID == uuid.Nil {
		return apperr.Unauthorized("authentication required")
	}
	if m.FullName == "" || m.DateOfBirth == "" || m.Gender == "" {
		return apperr.Validation("fullName, dateOfBirth and gender are required")
	}
	dob, err := time.Parse("2006-01-02", m.DateOfBirth)
	if err != nil {
		return apperr.Validation("dateOfBirth must be YYYY-MM-DD")
	}
	if dob.After(time.Now()) {
		return apperr.Validation("dateOfBirth is in the future")
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return apperr.Internal(err, "create family member")
	}
	s.logger.Info().Str("member_id", m.ID.String()).Str("user_id", m.UserID.String()).Msg("family member created")
	return nil
}
