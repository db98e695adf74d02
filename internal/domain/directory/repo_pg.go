package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/medbook/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const doctorCols = `id, full_name, COALESCE(title, ''), specialty_id,
	COALESCE(room, ''), COALESCE(building, ''), created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FullName, &d.Title, &d.SpecialtyID,
		&d.Room, &d.Building, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}

const specialtyCols = `id, name, COALESCE(description, ''), created_at, updated_at`

func scanSpecialty(row pgx.Row) (*Specialty, error) {
	var s Specialty
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &s, nil
}

func (r *repoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *repoPG) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.SpecialtyID != uuid.Nil {
		query += fmt.Sprintf(` AND specialty_id = $%d`, idx)
		args = append(args, f.SpecialtyID)
		idx++
	}
	if f.Title != "" {
		query += fmt.Sprintf(` AND title = $%d`, idx)
		args = append(args, f.Title)
		idx++
	}
	if f.Search != "" {
		query += fmt.Sprintf(` AND full_name ILIKE $%d`, idx)
		args = append(args, "%"+f.Search+"%")
	}
	query += ` ORDER BY full_name, id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	return scanSpecialty(r.conn(ctx).QueryRow(ctx, `SELECT `+specialtyCols+` FROM specialties WHERE id = $1`, id))
}

func (r *repoPG) ListSpecialties(ctx context.Context) ([]*Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+specialtyCols+` FROM specialties ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
