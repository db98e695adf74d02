package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/medbook/internal/domain/directory"
	"github.com/medbook/medbook/internal/domain/family"
	"github.com/medbook/medbook/internal/domain/scheduling"
	"github.com/medbook/medbook/internal/platform/apperr"
	"github.com/medbook/medbook/internal/platform/db"
	"github.com/medbook/medbook/internal/platform/websocket"
	"github.com/medbook/medbook/pkg/pagination"
)

// SlotAllocator is the part of the slot allocator the engine drives.
// ConsumeSeat and ReleaseSeat join the transaction carried by ctx.
type SlotAllocator interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*scheduling.Slot, error)
	ResolveSlot(ctx context.Context, c scheduling.Coordinates) (*scheduling.Slot, error)
	ConsumeSeat(ctx context.Context, id uuid.UUID) error
	ReleaseSeat(ctx context.Context, id uuid.UUID) error
}

type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
}

type DependentDirectory interface {
	GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*family.Member, error)
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev websocket.Event) error
}

type Options struct {
	QueuePrefix string
	DefaultFee  int64
}

type Deps struct {
	Repo       Repository
	Counter    QueueCounter
	Slots      SlotAllocator
	Doctors    DoctorDirectory
	Dependents DependentDirectory
	Tx         TxRunner
	Events     EventPublisher
	Codes      CodeGenerator
	Logger     zerolog.Logger
}

type Service struct {
	Deps
	opts Options
}

func NewService(d Deps, opts Options) *Service {
	if opts.QueuePrefix == "" {
		opts.QueuePrefix = "A"
	}
	if d.Codes == nil {
		d.Codes = NewCodeGenerator()
	}
	return &Service{Deps: d, opts: opts}
}

// CreateBooking reserves one seat. Seat, queue number and booking row are
// written in one transaction; if any step fails none of them persist.
func (s *Service) CreateBooking(ctx context.Context, in CreateInput) (*Booking, error) {
	if in.RequesterID == uuid.Nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	if in.SlotID == uuid.Nil && !in.Slot.Complete() {
		return nil, apperr.Validation("appointmentId or doctorId, specialtyId, date and timeSlot are required")
	}
	fee := s.opts.DefaultFee
	if in.Fee != nil {
		if *in.Fee < 0 {
			return nil, apperr.Validation("fee must not be negative")
		}
		fee = *in.Fee
	}

	patientID := in.PatientID
	if patientID == uuid.Nil {
		patientID = in.RequesterID
	} else if patientID != in.RequesterID {
		if _, err := s.Dependents.GetOwned(ctx, patientID, in.RequesterID); err != nil {
			return nil, err
		}
	}

	var (
		slot *scheduling.Slot
		err  error
	)
	if in.SlotID != uuid.Nil {
		slot, err = s.Slots.GetSlot(ctx, in.SlotID)
	} else {
		slot, err = s.Slots.ResolveSlot(ctx, in.Slot)
	}
	if err != nil {
		return nil, err
	}
	doc, err := s.Doctors.GetDoctor(ctx, slot.DoctorID)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		UserID:          in.RequesterID,
		PatientID:       patientID,
		SlotID:          slot.ID,
		DoctorID:        slot.DoctorID,
		SpecialtyID:     slot.SpecialtyID,
		Symptoms:        strings.TrimSpace(in.Symptoms),
		Status:          StatusConfirmed,
		Fee:             fee,
		ExaminationDate: slot.Date,
		ExaminationTime: slot.TimeSlot,
		Room:            firstNonEmpty(slot.Room, doc.Room),
		Building:        firstNonEmpty(slot.Building, doc.Building),
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Slots.ConsumeSeat(ctx, slot.ID); err != nil {
			return err
		}
		seq, err := s.Counter.Next(ctx, b.Cohort())
		if err != nil {
			return apperr.Internal(err, "assign queue number")
		}
		b.QueueSeq = seq
		b.QueueNumber = FormatQueueNumber(s.opts.QueuePrefix, seq)
		if b.BookingCode, err = s.Codes.Generate(); err != nil {
			return apperr.Internal(err, "generate booking code")
		}
		if err := s.Repo.Insert(ctx, b); err != nil {
			return apperr.Internal(err, "create booking")
		}
		return nil
	})
	if err != nil {
		return nil, asAppErr(err, "create booking")
	}
	b.DoctorName, b.DoctorTitle = doc.FullName, doc.Title

	s.Logger.Info().
		Str("booking_id", b.ID.String()).
		Str("slot_id", b.SlotID.String()).
		Str("user_id", b.UserID.String()).
		Str("queue_number", b.QueueNumber).
		Msg("booking created")
	s.publish(ctx, websocket.EventBookingCreated, b)
	return b, nil
}

// CancelBooking is owner-only. The status flip is checked-and-set, so a
// repeated cancel fails before any seat is released.
func (s *Service) CancelBooking(ctx context.Context, id, requesterID uuid.UUID) (*Booking, error) {
	var cancelled *Booking
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.CancelOwned(ctx, id, requesterID)
		if errors.Is(err, db.ErrNotFound) {
			if _, err := s.GetBooking(ctx, id, requesterID); err != nil {
				return err
			}
			return apperr.Conflict("booking already cancelled")
		}
		if err != nil {
			return apperr.Internal(err, "cancel booking")
		}
		if err := s.Slots.ReleaseSeat(ctx, b.SlotID); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, asAppErr(err, "cancel booking")
	}

	s.Logger.Info().
		Str("booking_id", cancelled.ID.String()).
		Str("slot_id", cancelled.SlotID.String()).
		Str("user_id", requesterID.String()).
		Msg("booking cancelled")
	s.publish(ctx, websocket.EventBookingCancelled, cancelled)
	return cancelled, nil
}

// GetBooking hides other accounts' bookings behind NotFound.
func (s *Service) GetBooking(ctx context.Context, id, requesterID uuid.UUID) (*Booking, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("booking not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load booking")
	}
	if b.UserID != requesterID {
		return nil, apperr.NotFound("booking not found")
	}
	return b, nil
}

// GetQueueInfo reports how many confirmed bookings of the same cohort are
// ahead of this one, ordered by queue sequence.
func (s *Service) GetQueueInfo(ctx context.Context, id, requesterID uuid.UUID) (*QueueInfo, error) {
	b, err := s.GetBooking(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	through, err := s.Repo.CountThrough(ctx, b.Cohort(), b.QueueSeq)
	if err != nil {
		return nil, apperr.Internal(err, "count queue")
	}
	waiting := through - 1
	if waiting < 0 {
		waiting = 0
	}
	return &QueueInfo{
		BookingID:       b.ID,
		BookingCode:     b.BookingCode,
		QueueNumber:     b.QueueNumber,
		WaitingCount:    waiting,
		Status:          b.Status,
		ExaminationDate: b.ExaminationDate,
		ExaminationTime: b.ExaminationTime,
		Room:            b.Room,
		Building:        b.Building,
		DoctorName:      b.DoctorName,
	}, nil
}

func (s *Service) ListMine(ctx context.Context, requesterID uuid.UUID) ([]*Booking, error) {
	items, err := s.Repo.ListByUser(ctx, requesterID)
	if err != nil {
		return nil, apperr.Internal(err, "list bookings")
	}
	return items, nil
}

func (s *Service) ListAll(ctx context.Context, p pagination.Params) (pagination.Page[*Booking], error) {
	items, total, err := s.Repo.ListAll(ctx, p)
	if err != nil {
		return pagination.Page[*Booking]{}, apperr.Internal(err, "list bookings")
	}
	return pagination.NewPage(items, total, p), nil
}

// publish is best effort: the booking is already committed.
func (s *Service) publish(ctx context.Context, typ string, b *Booking) {
	if s.Events == nil {
		return
	}
	ev := websocket.Event{
		Type:        typ,
		Topic:       websocket.QueueTopic(b.SpecialtyID, b.ExaminationDate),
		BookingID:   b.ID.String(),
		QueueNumber: b.QueueNumber,
		Status:      b.Status,
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Logger.Warn().Err(err).Str("booking_id", b.ID.String()).Msg("queue event not published")
	}
}

func asAppErr(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err, msg)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
