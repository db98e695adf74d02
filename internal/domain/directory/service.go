package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medbook/medbook/internal/platform/apperr"
	"github.com/medbook/medbook/internal/platform/db"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("doctor not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load doctor")
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	items, err := s.repo.ListDoctors(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "list doctors")
	}
	return items, nil
}

func (s *Service) ListDoctorsBySpecialty(ctx context.Context, specialtyID uuid.UUID) ([]*Doctor, error) {
	return s.ListDoctors(ctx, DoctorFilter{SpecialtyID: specialtyID})
}

func (s *Service) ListDoctorsBySpecialtyAndTitle(ctx context.Context, specialtyID uuid.UUID, title string) ([]*Doctor, error) {
	return s.ListDoctors(ctx, DoctorFilter{SpecialtyID: specialtyID, Title: title})
}

func (s *Service) GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	sp, err := s.repo.GetSpecialty(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("specialty not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load specialty")
	}
	return sp, nil
}

func (s *Service) ListSpecialties(ctx context.Context) ([]*Specialty, error) {
	items, err := s.repo.ListSpecialties(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list specialties")
	}
	return items, nil
}
