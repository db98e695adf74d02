package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/medbook/internal/domain/scheduling"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is one reserved seat. Slot details are copied in at creation so
// later slot edits do not rewrite history.
type Booking struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"userId"`
	PatientID       uuid.UUID `json:"patientId"`
	SlotID          uuid.UUID `json:"appointmentId"`
	DoctorID        uuid.UUID `json:"doctorId"`
	SpecialtyID     uuid.UUID `json:"specialtyId"`
	Symptoms        string    `json:"symptoms"`
	BookingCode     string    `json:"bookingCode"`
	QueueNumber     string    `json:"queueNumber"`
	QueueSeq        int       `json:"queueSeq"`
	Status          string    `json:"status"`
	Fee             int64     `json:"fee"`
	ExaminationDate string    `json:"examinationDate"`
	ExaminationTime string    `json:"examinationTime"`
	Room            string    `json:"room"`
	Building        string    `json:"building"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	DoctorName    string `json:"doctorName,omitempty"`
	DoctorTitle   string `json:"doctorTitle,omitempty"`
	SpecialtyName string `json:"specialtyName,omitempty"`
	PatientName   string `json:"patientName,omitempty"`
}

func (b *Booking) Cohort() Cohort {
	return Cohort{SpecialtyID: b.SpecialtyID, Date: b.ExaminationDate}
}

// Cohort is the queue numbering scope: one specialty on one examination day.
type Cohort struct {
	SpecialtyID uuid.UUID
	Date        string
}

// CreateInput names the slot either by id or by coordinates. PatientID
// defaults to the requester.
type CreateInput struct {
	RequesterID uuid.UUID
	PatientID   uuid.UUID
	SlotID      uuid.UUID
	Slot        scheduling.Coordinates
	Symptoms    string
	Fee         *int64
}

type QueueInfo struct {
	BookingID       uuid.UUID `json:"bookingId"`
	BookingCode     string    `json:"bookingCode"`
	QueueNumber     string    `json:"queueNumber"`
	WaitingCount    int       `json:"waitingCount"`
	Status          string    `json:"status"`
	ExaminationDate string    `json:"examinationDate"`
	ExaminationTime string    `json:"examinationTime"`
	Room            string    `json:"room"`
	Building        string    `json:"building"`
	DoctorName      string    `json:"doctorName,omitempty"`
}

// FormatQueueNumber renders seq as a two-digit ordinal, e.g. A07.
func FormatQueueNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%02d", prefix, seq)
}
