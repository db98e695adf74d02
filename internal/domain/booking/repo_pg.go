package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/medbook/internal/platform/db"
	"github.com/medbook/medbook/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const bookingCols = `b.id, b.user_id, b.patient_id, b.slot_id, b.doctor_id, b.specialty_id,
	COALESCE(b.symptoms, ''), b.booking_code, b.queue_number, b.queue_seq, b.status, b.fee,
	b.examination_date::text, b.examination_time, COALESCE(b.room, ''), COALESCE(b.building, ''),
	b.created_at, b.updated_at,
	COALESCE(d.full_name, ''), COALESCE(d.title, ''), COALESCE(s.name, ''), COALESCE(fm.full_name, '')`

const bookingJoins = `
	LEFT JOIN doctors d ON d.id = b.doctor_id
	LEFT JOIN specialties s ON s.id = b.specialty_id
	LEFT JOIN family_members fm ON fm.id = b.patient_id`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.UserID, &b.PatientID, &b.SlotID, &b.DoctorID, &b.SpecialtyID,
		&b.Symptoms, &b.BookingCode, &b.QueueNumber, &b.QueueSeq, &b.Status, &b.Fee,
		&b.ExaminationDate, &b.ExaminationTime, &b.Room, &b.Building,
		&b.CreatedAt, &b.UpdatedAt,
		&b.DoctorName, &b.DoctorTitle, &b.SpecialtyName, &b.PatientName)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &b, nil
}

func collect(rows pgx.Rows) ([]*Booking, error) {
	defer rows.Close()
	var items []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *repoPG) Insert(ctx context.Context, b *Booking) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bookings (id, user_id, patient_id, slot_id, doctor_id, specialty_id, symptoms,
			booking_code, queue_number, queue_seq, status, fee,
			examination_date, examination_time, room, building)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`,
		b.ID, b.UserID, b.PatientID, b.SlotID, b.DoctorID, b.SpecialtyID, b.Symptoms,
		b.BookingCode, b.QueueNumber, b.QueueSeq, b.Status, b.Fee,
		b.ExaminationDate, b.ExaminationTime, b.Room, b.Building,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return db.MapError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return scanBooking(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bookingCols+` FROM bookings b`+bookingJoins+` WHERE b.id = $1`, id))
}

func (r *repoPG) CancelOwned(ctx context.Context, id, userID uuid.UUID) (*Booking, error) {
	return scanBooking(r.conn(ctx).QueryRow(ctx, `
		WITH cancelled AS (
			UPDATE bookings SET status = 'cancelled', updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND status = 'confirmed'
			RETURNING *
		)
		SELECT `+bookingCols+` FROM cancelled b`+bookingJoins,
		id, userID))
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Booking, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bookingCols+` FROM bookings b`+bookingJoins+`
		WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListAll(ctx context.Context, p pagination.Params) ([]*Booking, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bookingCols+` FROM bookings b`+bookingJoins+`
		ORDER BY b.created_at DESC LIMIT $1 OFFSET $2`, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) CountThrough(ctx context.Context, c Cohort, seq int) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE specialty_id = $1 AND examination_date = $2 AND status = 'confirmed' AND queue_seq <= $3`,
		c.SpecialtyID, c.Date, seq).Scan(&n)
	return n, err
}

type counterPG struct{ pool *pgxpool.Pool }

// NewQueueCounterPG returns a counter backed by booking_queue_counters. The
// upsert locks the cohort row until the surrounding transaction ends.
func NewQueueCounterPG(pool *pgxpool.Pool) QueueCounter { return &counterPG{pool: pool} }

func (c *counterPG) Next(ctx context.Context, cohort Cohort) (int, error) {
	var next int
	err := db.Conn(ctx, c.pool).QueryRow(ctx, `
		INSERT INTO booking_queue_counters (specialty_id, examination_date, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (specialty_id, examination_date)
		DO UPDATE SET last_value = booking_queue_counters.last_value + 1
		RETURNING last_value`,
		cohort.SpecialtyID, cohort.Date).Scan(&next)
	return next, err
}
