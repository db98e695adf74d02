package scheduling

import (
	"context"
	"fmt"

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

const slotCols = `id, doctor_id, specialty_id, slot_date::text, time_slot,
	COALESCE(room, ''), COALESCE(building, ''), max_capacity, current_occupancy, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.DoctorID, &s.SpecialtyID, &s.Date, &s.TimeSlot,
		&s.Room, &s.Building, &s.MaxCapacity, &s.CurrentOccupancy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &s, nil
}

func collectSlots(rows pgx.Rows) ([]*Slot, error) {
	defer rows.Close()
	var items []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, s *Slot) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment_slots (id, doctor_id, specialty_id, slot_date, time_slot, room, building,
			max_capacity, current_occupancy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING current_occupancy, created_at, updated_at`,
		s.ID, s.DoctorID, s.SpecialtyID, s.Date, s.TimeSlot, s.Room, s.Building, s.MaxCapacity,
	).Scan(&s.CurrentOccupancy, &s.CreatedAt, &s.UpdatedAt)
	return db.MapError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotCols+` FROM appointment_slots WHERE id = $1`, id))
}

func (r *repoPG) FindByCoordinates(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (*Slot, error) {
	return scanSlot(r.conn(ctx).QueryRow(ctx,
		`SELECT `+slotCols+` FROM appointment_slots WHERE doctor_id = $1 AND slot_date = $2 AND time_slot = $3`,
		doctorID, date, timeSlot))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM appointment_slots WHERE id = $1 AND current_occupancy = 0`, id)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ApplyPatch(ctx context.Context, id uuid.UUID, p SlotPatch) (*Slot, error) {
	return scanSlot(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment_slots SET
			max_capacity = COALESCE($2, max_capacity),
			room = COALESCE($3, room),
			building = COALESCE($4, building),
			updated_at = NOW()
		WHERE id = $1 AND ($2::int IS NULL OR $2::int >= current_occupancy)
		RETURNING `+slotCols,
		id, p.MaxCapacity, p.Room, p.Building))
}

func (r *repoPG) ConsumeSeat(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_slots SET current_occupancy = current_occupancy + 1, updated_at = NOW()
		WHERE id = $1 AND current_occupancy < max_capacity`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_slots SET current_occupancy = GREATEST(current_occupancy - 1, 0), updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListForDoctors(ctx context.Context, specialtyID uuid.UUID, date string, doctorIDs []uuid.UUID) ([]*Slot, error) {
	if len(doctorIDs) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+slotCols+` FROM appointment_slots
		WHERE specialty_id = $1 AND slot_date = $2 AND doctor_id = ANY($3)
		ORDER BY time_slot, doctor_id`,
		specialtyID, date, doctorIDs)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *repoPG) ListGrouped(ctx context.Context, f SlotFilter, p pagination.Params) ([]*SlotGroup, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1
	if f.DoctorID != uuid.Nil {
		where += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		args = append(args, f.DoctorID)
		idx++
	}
	if f.SpecialtyID != uuid.Nil {
		where += fmt.Sprintf(` AND specialty_id = $%d`, idx)
		args = append(args, f.SpecialtyID)
		idx++
	}
	if f.Date != "" {
		where += fmt.Sprintf(` AND slot_date = $%d`, idx)
		args = append(args, f.Date)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM (SELECT 1 FROM appointment_slots`+where+` GROUP BY slot_date, doctor_id) g`,
		args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT slot_date::text, doctor_id, (array_agg(specialty_id))[1],
			COALESCE(MAX(room), ''), COALESCE(MAX(building), ''),
			COUNT(*), SUM(current_occupancy), SUM(max_capacity)
		FROM appointment_slots`+where+`
		GROUP BY slot_date, doctor_id
		ORDER BY slot_date DESC, doctor_id
		`+fmt.Sprintf(`LIMIT $%d OFFSET $%d`, idx, idx+1),
		append(args, p.Limit(), p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var groups []*SlotGroup
	index := make(map[string]*SlotGroup)
	var doctorIDs []uuid.UUID
	var dates []string
	for rows.Next() {
		g := &SlotGroup{Appointments: []*SlotView{}}
		if err := rows.Scan(&g.Date, &g.DoctorID, &g.SpecialtyID, &g.Room, &g.Building,
			&g.TotalSlots, &g.TotalPatients, &g.TotalMaxPatients); err != nil {
			return nil, 0, err
		}
		groups = append(groups, g)
		index[groupKey(g.Date, g.DoctorID)] = g
		doctorIDs = append(doctorIDs, g.DoctorID)
		dates = append(dates, g.Date)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(groups) == 0 {
		return groups, total, nil
	}

	// One query for every slot on the page; pairs outside the page are dropped.
	slotRows, err := r.conn(ctx).Query(ctx, `
		SELECT `+slotCols+` FROM appointment_slots
		WHERE doctor_id = ANY($1) AND slot_date::text = ANY($2)
		ORDER BY time_slot`,
		doctorIDs, dates)
	if err != nil {
		return nil, 0, err
	}
	slots, err := collectSlots(slotRows)
	if err != nil {
		return nil, 0, err
	}
	for _, s := range slots {
		if g, ok := index[groupKey(s.Date, s.DoctorID)]; ok {
			if f.SpecialtyID != uuid.Nil && s.SpecialtyID != f.SpecialtyID {
				continue
			}
			g.Appointments = append(g.Appointments, &SlotView{Slot: *s})
		}
	}
	return groups, total, nil
}

func groupKey(date string, doctorID uuid.UUID) string {
	return date + "|" + doctorID.String()
}
