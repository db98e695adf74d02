package family

import (
	"context"

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

const memberCols = `id, user_id, full_name, date_of_birth::text, gender,
	COALESCE(relationship, ''), COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.UserID, &m.FullName, &m.DateOfBirth, &m.Gender,
		&m.Relationship, &m.Phone, &m.Address, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO family_members (id, user_id, full_name, date_of_birth, gender, relationship, phone, address)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING created_at, updated_at`,
		m.ID, m.UserID, m.FullName, m.DateOfBirth, m.Gender, m.Relationship, m.Phone, m.Address,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*Member, error) {
	return scanMember(r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM family_members WHERE id = $1 AND user_id = $2`, id, ownerID))
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Member, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+memberCols+` FROM family_members WHERE user_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
