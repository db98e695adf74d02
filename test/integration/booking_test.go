//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/medbook/medbook/internal/domain/booking"
	"github.com/medbook/medbook/internal/domain/family"
	"github.com/medbook/medbook/internal/domain/scheduling"
	"github.com/medbook/medbook/internal/platform/apperr"
)

func TestBooking_QueueLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack("A")
	specialtyID, doctorID := seedDoctor(t, ctx)
	slot := mustSlot(t, ctx, s, specialtyID, doctorID, "2030-06-10", "08:00", 2)

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	first, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: alice, SlotID: slot.ID})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	second, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: bob, SlotID: slot.ID})
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if first.QueueNumber != "A01" || second.QueueNumber != "A02" {
		t.Fatalf("expected A01, A02; got %s, %s", first.QueueNumber, second.QueueNumber)
	}
	if first.Room != "204" || first.Building != "B" {
		t.Errorf("expected doctor's room, got %q/%q", first.Room, first.Building)
	}

	_, err = s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: carol, SlotID: slot.ID})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on a full slot, got %v", err)
	}

	info, err := s.Booking.GetQueueInfo(ctx, second.ID, bob)
	if err != nil {
		t.Fatalf("GetQueueInfo: %v", err)
	}
	if info.WaitingCount != 1 {
		t.Errorf("expected 1 waiting ahead, got %d", info.WaitingCount)
	}

	if _, err := s.Booking.CancelBooking(ctx, first.ID, bob); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found for another account, got %v", err)
	}
	cancelled, err := s.Booking.CancelBooking(ctx, first.ID, alice)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if cancelled.Status != booking.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := s.Booking.CancelBooking(ctx, first.ID, alice); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict on repeated cancel, got %v", err)
	}

	info, err = s.Booking.GetQueueInfo(ctx, second.ID, bob)
	if err != nil {
		t.Fatalf("GetQueueInfo: %v", err)
	}
	if info.WaitingCount != 0 {
		t.Errorf("expected nobody ahead after cancel, got %d", info.WaitingCount)
	}

	third, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: carol, SlotID: slot.ID})
	if err != nil {
		t.Fatalf("booking after cancel: %v", err)
	}
	if third.QueueNumber != "A03" {
		t.Errorf("expected A03, got %s", third.QueueNumber)
	}

	got, err := s.Scheduling.GetSlot(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if got.CurrentOccupancy != 2 {
		t.Errorf("expected occupancy 2, got %d", got.CurrentOccupancy)
	}
}

func TestBooking_ConcurrentRequestsNeverOverbook(t *testing.T) {
	ctx := context.Background()
	s := newStack("B")
	specialtyID, doctorID := seedDoctor(t, ctx)
	slot := mustSlot(t, ctx, s, specialtyID, doctorID, "2030-06-11", "09:00", 5)

	const requests = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		numbers   = make(map[string]bool)
		conflicts int
		failures  []error
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: uuid.New(), SlotID: slot.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				numbers[b.QueueNumber] = true
			case apperr.Is(err, apperr.KindConflict):
				conflicts++
			default:
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected errors: %v", failures)
	}
	if len(numbers) != 5 || conflicts != requests-5 {
		t.Fatalf("expected 5 bookings and %d conflicts, got %d and %d", requests-5, len(numbers), conflicts)
	}
	for _, want := range []string{"B01", "B02", "B03", "B04", "B05"} {
		if !numbers[want] {
			t.Errorf("queue number %s missing from %v", want, numbers)
		}
	}

	got, err := s.Scheduling.GetSlot(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if got.CurrentOccupancy != got.MaxCapacity {
		t.Errorf("expected a full slot, got %d/%d", got.CurrentOccupancy, got.MaxCapacity)
	}
}

func TestBooking_QueueSharedAcrossDoctorsOfSpecialty(t *testing.T) {
	ctx := context.Background()
	s := newStack("A")
	specialtyID, doctorID := seedDoctor(t, ctx)
	otherDoctor := uuid.New()
	if _, err := globalPool.Exec(ctx,
		`INSERT INTO doctors (id, full_name, title, specialty_id) VALUES ($1, $2, $3, $4)`,
		otherDoctor, "Dr. Le Thi Binh", "ThS", specialtyID); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	morning := mustSlot(t, ctx, s, specialtyID, doctorID, "2030-06-12", "08:00", 3)
	b1, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: uuid.New(), SlotID: morning.ID})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// The second doctor's slot does not exist yet; booking by coordinates
	// creates it with the default capacity.
	b2, err := s.Booking.CreateBooking(ctx, booking.CreateInput{
		RequesterID: uuid.New(),
		Slot: scheduling.Coordinates{
			DoctorID:    otherDoctor,
			SpecialtyID: specialtyID,
			Date:        "2030-06-12T00:00:00Z",
			TimeSlot:    "10:00",
		},
	})
	if err != nil {
		t.Fatalf("CreateBooking by coordinates: %v", err)
	}
	if b1.QueueNumber != "A01" || b2.QueueNumber != "A02" {
		t.Errorf("expected A01, A02 across doctors; got %s, %s", b1.QueueNumber, b2.QueueNumber)
	}
	if b2.ExaminationDate != "2030-06-12" {
		t.Errorf("expected normalized date, got %s", b2.ExaminationDate)
	}

	created, err := s.Scheduling.GetSlot(ctx, b2.SlotID)
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if created.MaxCapacity != scheduling.DefaultMaxCapacity || created.CurrentOccupancy != 1 {
		t.Errorf("expected 1/%d, got %d/%d", scheduling.DefaultMaxCapacity, created.CurrentOccupancy, created.MaxCapacity)
	}
}

func TestBooking_ForDependent(t *testing.T) {
	ctx := context.Background()
	s := newStack("A")
	specialtyID, doctorID := seedDoctor(t, ctx)
	slot := mustSlot(t, ctx, s, specialtyID, doctorID, "2030-06-13", "08:00", 5)

	owner := uuid.New()
	child := &family.Member{UserID: owner, FullName: "Nguyen Minh", DateOfBirth: "2015-03-02", Gender: "male"}
	if err := s.Family.Create(ctx, child); err != nil {
		t.Fatalf("create dependent: %v", err)
	}

	b, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: owner, PatientID: child.ID, SlotID: slot.ID})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.PatientID != child.ID || b.UserID != owner {
		t.Errorf("expected patient %s booked by %s, got %s by %s", child.ID, owner, b.PatientID, b.UserID)
	}

	stored, err := s.Booking.GetBooking(ctx, b.ID, owner)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if stored.PatientName != "Nguyen Minh" {
		t.Errorf("expected dependent name joined, got %q", stored.PatientName)
	}

	_, err = s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: uuid.New(), PatientID: child.ID, SlotID: slot.ID})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found for another account's dependent, got %v", err)
	}
}

func TestSlots_CapacityAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStack("A")
	specialtyID, doctorID := seedDoctor(t, ctx)
	slot := mustSlot(t, ctx, s, specialtyID, doctorID, "2030-06-14", "14:00", 3)

	if _, err := s.Scheduling.CreateSlot(ctx, scheduling.CreateSlotInput{
		DoctorID: doctorID, SpecialtyID: specialtyID, Date: "2030-06-14T00:00:00Z", TimeSlot: "14:00",
	}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict for a duplicate slot, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: uuid.New(), SlotID: slot.ID}); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}

	if _, err := s.Scheduling.UpdateCapacity(ctx, slot.ID, 1); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict shrinking below occupancy, got %v", err)
	}
	updated, err := s.Scheduling.UpdateCapacity(ctx, slot.ID, 2)
	if err != nil {
		t.Fatalf("UpdateCapacity: %v", err)
	}
	if updated.Remaining() != 0 {
		t.Errorf("expected no seats left, got %d", updated.Remaining())
	}

	available, err := s.Scheduling.ListAvailable(ctx, scheduling.AvailabilityQuery{SpecialtyID: specialtyID, Date: "2030-06-14"})
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 0 {
		t.Errorf("expected full slot hidden, got %d", len(available))
	}

	if err := s.Scheduling.DeleteSlot(ctx, slot.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict deleting a booked slot, got %v", err)
	}

	empty := mustSlot(t, ctx, s, specialtyID, doctorID, "2030-06-14", "15:00", 3)
	if err := s.Scheduling.DeleteSlot(ctx, empty.ID); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if _, err := s.Scheduling.GetSlot(ctx, empty.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestSlots_DeleteAfterEveryBookingCancelled(t *testing.T) {
	ctx := context.Background()
	s := newStack("A")
	specialtyID, doctorID := seedDoctor(t, ctx)
	slot := mustSlot(t, ctx, s, specialtyID, doctorID, "2030-06-15", "08:00", 3)

	owner := uuid.New()
	b, err := s.Booking.CreateBooking(ctx, booking.CreateInput{RequesterID: owner, SlotID: slot.ID, Symptoms: "cough"})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if err := s.Scheduling.DeleteSlot(ctx, slot.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict while booked, got %v", err)
	}
	if _, err := s.Booking.CancelBooking(ctx, b.ID, owner); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	if err := s.Scheduling.DeleteSlot(ctx, slot.ID); err != nil {
		t.Fatalf("DeleteSlot after cancel: %v", err)
	}
	if _, err := s.Scheduling.GetSlot(ctx, slot.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected slot gone, got %v", err)
	}

	kept, err := s.Booking.GetBooking(ctx, b.ID, owner)
	if err != nil {
		t.Fatalf("GetBooking after slot delete: %v", err)
	}
	if kept.Status != booking.StatusCancelled || kept.ExaminationDate != "2030-06-15" || kept.Room != "204" {
		t.Errorf("expected cancelled booking with its slot details, got %+v", kept)
	}
}

func TestSlots_UnknownOrMismatchedSpecialty(t *testing.T) {
	ctx := context.Background()
	s := newStack("A")
	_, doctorID := seedDoctor(t, ctx)
	otherSpecialty, _ := seedDoctor(t, ctx)

	_, err := s.Scheduling.CreateSlot(ctx, scheduling.CreateSlotInput{
		DoctorID: doctorID, SpecialtyID: uuid.New(), Date: "2030-06-16", TimeSlot: "08:00",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found for an unknown specialty, got %v", err)
	}

	_, err = s.Scheduling.CreateSlot(ctx, scheduling.CreateSlotInput{
		DoctorID: doctorID, SpecialtyID: otherSpecialty, Date: "2030-06-16", TimeSlot: "08:00",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for a doctor outside the specialty, got %v", err)
	}

	_, err = s.Booking.CreateBooking(ctx, booking.CreateInput{
		RequesterID: uuid.New(),
		Slot: scheduling.Coordinates{
			DoctorID:    doctorID,
			SpecialtyID: uuid.New(),
			Date:        "2030-06-16",
			TimeSlot:    "09:00",
		},
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found booking under an unknown specialty, got %v", err)
	}

	var n int
	if err := globalPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment_slots WHERE doctor_id = $1`, doctorID).Scan(&n); err != nil {
		t.Fatalf("count slots: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no slots stored, got %d", n)
	}
}
