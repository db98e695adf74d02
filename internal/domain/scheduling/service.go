package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/medbook/medbook/internal/domain/directory"
	"github.com/medbook/medbook/internal/platform/apperr"
	"github.com/medbook/medbook/internal/platform/db"
	"github.com/medbook/medbook/pkg/pagination"
)

// DoctorDirectory is the read-only view of doctors and specialties the
// allocator needs. Implementations return apperr errors.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
	ListDoctors(ctx context.Context, f directory.DoctorFilter) ([]*directory.Doctor, error)
	GetSpecialty(ctx context.Context, id uuid.UUID) (*directory.Specialty, error)
}

// Service is the slot allocator.
type Service struct {
	repo    Repository
	doctors DoctorDirectory
	logger  zerolog.Logger
}

func NewService(repo Repository, doctors DoctorDirectory, logger zerolog.Logger) *Service {
	return &Service{repo: repo, doctors: doctors, logger: logger}
}

func (s *Service) CreateSlot(ctx context.Context, in CreateSlotInput) (*Slot, error) {
	if in.DoctorID == uuid.Nil || in.SpecialtyID == uuid.Nil {
		return nil, apperr.Validation("doctorId and specialtyId are required")
	}
	date, err := NormalizeDate(in.Date)
	if err != nil {
		return nil, err
	}
	timeSlot, err := NormalizeTime(in.TimeSlot)
	if err != nil {
		return nil, err
	}
	if in.MaxCapacity == 0 {
		in.MaxCapacity = DefaultMaxCapacity
	}
	if in.MaxCapacity < 1 {
		return nil, apperr.Validation("maxPatients must be at least 1")
	}

	doc, err := s.doctors.GetDoctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetSpecialty(ctx, in.SpecialtyID); err != nil {
		return nil, err
	}
	if doc.SpecialtyID != in.SpecialtyID {
		return nil, apperr.Validation("doctor does not practise in this specialty")
	}
	room, building := strings.TrimSpace(in.Room), strings.TrimSpace(in.Building)
	if room == "" {
		room = doc.Room
	}
	if building == "" {
		building = doc.Building
	}

	slot := &Slot{
		DoctorID:    in.DoctorID,
		SpecialtyID: in.SpecialtyID,
		Date:        date,
		TimeSlot:    timeSlot,
		Room:        room,
		Building:    building,
		MaxCapacity: in.MaxCapacity,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Conflict("a slot already exists for this doctor, date and time")
		}
		if errors.Is(err, db.ErrForeignKey) {
			return nil, apperr.NotFound("doctor or specialty not found")
		}
		return nil, apperr.Internal(err, "create slot")
	}
	s.logger.Info().
		Str("slot_id", slot.ID.String()).
		Str("doctor_id", slot.DoctorID.String()).
		Str("date", slot.Date).
		Str("time_slot", slot.TimeSlot).
		Int("max_capacity", slot.MaxCapacity).
		Msg("slot created")
	return slot, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	slot, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("slot not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load slot")
	}
	return slot, nil
}

// UpdateSlot applies every set field of p at once. Capacity may not drop
// below the seats already taken.
func (s *Service) UpdateSlot(ctx context.Context, id uuid.UUID, p SlotPatch) (*Slot, error) {
	if p.IsEmpty() {
		return nil, apperr.Validation("nothing to update")
	}
	if p.MaxCapacity != nil && *p.MaxCapacity < 1 {
		return nil, apperr.Validation("maxPatients must be at least 1")
	}

	slot, err := s.repo.ApplyPatch(ctx, id, p)
	if errors.Is(err, db.ErrNotFound) {
		current, gerr := s.GetSlot(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if p.MaxCapacity == nil {
			return nil, apperr.Conflict("slot changed while updating, retry")
		}
		return nil, apperr.Conflict("maxPatients %d is below the %d patients already booked",
			*p.MaxCapacity, current.CurrentOccupancy)
	}
	if err != nil {
		return nil, apperr.Internal(err, "update slot")
	}
	s.logger.Info().Str("slot_id", id.String()).Int("max_capacity", slot.MaxCapacity).Msg("slot updated")
	return slot, nil
}

func (s *Service) UpdateCapacity(ctx context.Context, id uuid.UUID, newMax int) (*Slot, error) {
	return s.UpdateSlot(ctx, id, SlotPatch{MaxCapacity: &newMax})
}

func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if errors.Is(err, db.ErrForeignKey) {
		return apperr.Conflict("slot is still referenced and cannot be deleted")
	}
	if err != nil {
		return apperr.Internal(err, "delete slot")
	}
	if !deleted {
		if _, err := s.GetSlot(ctx, id); err != nil {
			return err
		}
		return apperr.Conflict("cannot delete a slot with active bookings")
	}
	s.logger.Info().Str("slot_id", id.String()).Msg("slot deleted")
	return nil
}

// ListAvailable returns existing slots with free seats. It never creates
// slots.
func (s *Service) ListAvailable(ctx context.Context, q AvailabilityQuery) ([]*AvailableSlot, error) {
	if q.SpecialtyID == uuid.Nil || q.Date == "" {
		return nil, apperr.Validation("specialtyId and date are required")
	}
	date, err := NormalizeDate(q.Date)
	if err != nil {
		return nil, err
	}

	var (
		specialty *directory.Specialty
		doctors   []*directory.Doctor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sp, err := s.doctors.GetSpecialty(gctx, q.SpecialtyID)
		specialty = sp
		return err
	})
	g.Go(func() error {
		list, err := s.candidateDoctors(gctx, q)
		doctors = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*directory.Doctor, len(doctors))
	ids := make([]uuid.UUID, 0, len(doctors))
	for _, d := range doctors {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	slots, err := s.repo.ListForDoctors(ctx, q.SpecialtyID, date, ids)
	if err != nil {
		return nil, apperr.Internal(err, "list slots")
	}

	out := make([]*AvailableSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Remaining() <= 0 {
			continue
		}
		doc := byID[slot.DoctorID]
		if doc == nil {
			continue
		}
		a := &AvailableSlot{
			AppointmentID:   slot.ID,
			DoctorID:        doc.ID,
			DoctorName:      doc.FullName,
			DoctorTitle:     doc.Title,
			Date:            slot.Date,
			TimeSlot:        slot.TimeSlot,
			Room:            slot.Room,
			Building:        slot.Building,
			SpecialtyID:     slot.SpecialtyID,
			Specialty:       specialty.Name,
			AvailableCount:  slot.Remaining(),
			CurrentPatients: slot.CurrentOccupancy,
			MaxPatients:     slot.MaxCapacity,
		}
		if a.Room == "" {
			a.Room = doc.Room
		}
		if a.Building == "" {
			a.Building = doc.Building
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) candidateDoctors(ctx context.Context, q AvailabilityQuery) ([]*directory.Doctor, error) {
	if q.DoctorID != uuid.Nil {
		d, err := s.doctors.GetDoctor(ctx, q.DoctorID)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []*directory.Doctor{d}, nil
	}
	return s.doctors.ListDoctors(ctx, directory.DoctorFilter{
		SpecialtyID: q.SpecialtyID,
		Title:       strings.TrimSpace(q.DoctorTitle),
	})
}

// ListSlots is the admin view: slots grouped by (date, doctor).
func (s *Service) ListSlots(ctx context.Context, f SlotFilter, p pagination.Params) (pagination.Page[*SlotGroup], error) {
	if f.Date != "" {
		date, err := NormalizeDate(f.Date)
		if err != nil {
			return pagination.Page[*SlotGroup]{}, err
		}
		f.Date = date
	}
	groups, total, err := s.repo.ListGrouped(ctx, f, p)
	if err != nil {
		return pagination.Page[*SlotGroup]{}, apperr.Internal(err, "list slots")
	}

	names := make(map[uuid.UUID]*directory.Doctor)
	for _, g := range groups {
		doc, ok := names[g.DoctorID]
		if !ok {
			doc, err = s.doctors.GetDoctor(ctx, g.DoctorID)
			if err != nil && !apperr.Is(err, apperr.KindNotFound) {
				return pagination.Page[*SlotGroup]{}, err
			}
			names[g.DoctorID] = doc
		}
		name, title := "N/A", "N/A"
		if doc != nil {
			name, title = doc.FullName, doc.Title
		}
		g.DoctorName, g.DoctorTitle = name, title
		for _, v := range g.Appointments {
			v.DoctorName, v.DoctorTitle = name, title
		}
	}
	return pagination.NewPage(groups, total, p), nil
}

// ResolveSlot returns the slot at c, creating it with the doctor's room and
// the default capacity when none exists yet.
func (s *Service) ResolveSlot(ctx context.Context, c Coordinates) (*Slot, error) {
	if !c.Complete() {
		return nil, apperr.Validation("doctorId, specialtyId, date and timeSlot are required")
	}
	date, err := NormalizeDate(c.Date)
	if err != nil {
		return nil, err
	}
	timeSlot, err := NormalizeTime(c.TimeSlot)
	if err != nil {
		return nil, err
	}

	slot, err := s.find(ctx, c.DoctorID, date, timeSlot)
	if slot != nil || err != nil {
		return slot, err
	}
	slot, err = s.CreateSlot(ctx, CreateSlotInput{
		DoctorID:    c.DoctorID,
		SpecialtyID: c.SpecialtyID,
		Date:        date,
		TimeSlot:    timeSlot,
	})
	if apperr.Is(err, apperr.KindConflict) {
		// Lost a creation race; the winner's slot is the one to use.
		slot, err = s.find(ctx, c.DoctorID, date, timeSlot)
		if err == nil && slot == nil {
			return nil, apperr.Conflict("slot changed while booking, retry")
		}
	}
	return slot, err
}

func (s *Service) find(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (*Slot, error) {
	slot, err := s.repo.FindByCoordinates(ctx, doctorID, date, timeSlot)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "find slot")
	}
	return slot, nil
}

// ConsumeSeat takes one seat or fails with Conflict when the slot is full.
func (s *Service) ConsumeSeat(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.ConsumeSeat(ctx, id)
	if err != nil {
		return apperr.Internal(err, "consume seat")
	}
	if !ok {
		return apperr.Conflict("slot is full")
	}
	return nil
}

func (s *Service) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.ReleaseSeat(ctx, id); err != nil {
		return apperr.Internal(err, "release seat")
	}
	return nil
}
