package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
	"github.com/Yamojr001/lip-sub002/internal/platform/db"
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

// =========== LGA Repository ===========

type lgaRepoPG struct{ pool *pgxpool.Pool }

func NewLGARepoPG(pool *pgxpool.Pool) LGARepository {
	return &lgaRepoPG{pool: pool}
}

func (r *lgaRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const lgaCols = `id, name, code, created_at`

func scanLGA(row pgx.Row) (*LGA, error) {
	var l LGA
	if err := row.Scan(&l.ID, &l.Name, &l.Code, &l.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *lgaRepoPG) Create(ctx context.Context, l *LGA) error {
	l.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO lga (id, name, code) VALUES ($1, $2, $3) RETURNING created_at`,
		l.ID, l.Name, l.Code).Scan(&l.CreatedAt)
}

func (r *lgaRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LGA, error) {
	return scanLGA(r.conn(ctx).QueryRow(ctx, `SELECT `+lgaCols+` FROM lga WHERE id = $1`, id))
}

func (r *lgaRepoPG) Update(ctx context.Context, l *LGA) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE lga SET name = $2, code = $3 WHERE id = $1`, l.ID, l.Name, l.Code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *lgaRepoPG) List(ctx context.Context) ([]*LGA, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+lgaCols+` FROM lga ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LGA
	for rows.Next() {
		l, err := scanLGA(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// =========== Ward Repository ===========

type wardRepoPG struct{ pool *pgxpool.Pool }

func NewWardRepoPG(pool *pgxpool.Pool) WardRepository {
	return &wardRepoPG{pool: pool}
}

func (r *wardRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const wardCols = `id, lga_id, name, code, patient_serial, created_at`

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	if err := row.Scan(&w.ID, &w.LGAID, &w.Name, &w.Code, &w.PatientSerial, &w.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

func (r *wardRepoPG) Create(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO ward (id, lga_id, name, code) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		w.ID, w.LGAID, w.Name, w.Code).Scan(&w.CreatedAt)
}

func (r *wardRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM ward WHERE id = $1`, id))
}

func (r *wardRepoPG) Update(ctx context.Context, w *Ward) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE ward SET name = $2, code = $3 WHERE id = $1`, w.ID, w.Name, w.Code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *wardRepoPG) List(ctx context.Context, lgaID *uuid.UUID) ([]*Ward, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+wardCols+` FROM ward WHERE ($1::uuid IS NULL OR lga_id = $1) ORDER BY name`, lgaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Ward
	for rows.Next() {
		w, err := scanWard(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func (r *wardRepoPG) NextSerial(ctx context.Context, wardID uuid.UUID) (*Serial, error) {
	var s Serial
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE ward w SET patient_serial = w.patient_serial + 1
		FROM lga l
		WHERE w.id = $1 AND l.id = w.lga_id
		RETURNING l.code, w.code, w.patient_serial`, wardID).Scan(&s.LGACode, &s.WardCode, &s.Number)
	if err != nil {
		return nil, fmt.Errorf("allocate serial for ward %s: %w", wardID, notFound(err))
	}
	return &s, nil
}

// =========== Facility Repository ===========

type facilityRepoPG struct{ pool *pgxpool.Pool }

func NewFacilityRepoPG(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepoPG{pool: pool}
}

func (r *facilityRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const facilityCols = `id, ward_id, lga_id, name, type, created_at`

func scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	if err := row.Scan(&f.ID, &f.WardID, &f.LGAID, &f.Name, &f.Type, &f.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *facilityRepoPG) Create(ctx context.Context, f *Facility) error {
	f.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO facility (id, ward_id, lga_id, name, type) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		f.ID, f.WardID, f.LGAID, f.Name, f.Type).Scan(&f.CreatedAt)
}

func (r *facilityRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return scanFacility(r.conn(ctx).QueryRow(ctx, `SELECT `+facilityCols+` FROM facility WHERE id = $1`, id))
}

func (r *facilityRepoPG) Update(ctx context.Context, f *Facility) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE facility SET name = $2, type = $3 WHERE id = $1`,
		f.ID, f.Name, f.Type)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *facilityRepoPG) List(ctx context.Context, lgaID, wardID *uuid.UUID) ([]*Facility, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+facilityCols+` FROM facility
		WHERE ($1::uuid IS NULL OR lga_id = $1) AND ($2::uuid IS NULL OR ward_id = $2)
		ORDER BY name`, lgaID, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}
