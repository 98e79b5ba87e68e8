package child

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
	"github.com/Yamojr001/lip-sub002/internal/platform/db"
)

// -- Child --

type childRepoPG struct{ pool *pgxpool.Pool }

func NewChildRepoPG(pool *pgxpool.Pool) Repository {
	return &childRepoPG{pool: pool}
}

func (r *childRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const childCols = `c.id, c.patient_id, c.lga_id, c.ward_id, c.facility_id, c.name, c.dob, c.sex,
	c.vaccines, c.notes, c.created_by, c.created_at, c.updated_at, f.name`

const childFrom = ` FROM child c JOIN facility f ON f.id = c.facility_id`

func scanChild(row pgx.Row) (*Record, error) {
	var (
		c        Record
		vaccines []byte
	)
	err := row.Scan(&c.ID, &c.PatientID, &c.LGAID, &c.WardID, &c.FacilityID, &c.Name, &c.DOB, &c.Sex,
		&vaccines, &c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &c.FacilityName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if len(vaccines) > 0 {
		if err := json.Unmarshal(vaccines, &c.Vaccines); err != nil {
			return nil, fmt.Errorf("decode vaccines of child %s: %w", c.ID, err)
		}
	}
	return &c, nil
}

func encodeVaccines(c *Record) ([]byte, error) {
	if c.Vaccines == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.Vaccines)
}

func (r *childRepoPG) Create(ctx context.Context, c *Record) error {
	c.ID = uuid.New()
	vaccines, err := encodeVaccines(c)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO child (id, patient_id, lga_id, ward_id, facility_id, name, dob, sex, vaccines, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientID, c.LGAID, c.WardID, c.FacilityID, c.Name, c.DOB, c.Sex, vaccines, c.Notes, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *childRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanChild(r.conn(ctx).QueryRow(ctx, `SELECT `+childCols+childFrom+` WHERE c.id = $1`, id))
}

func (r *childRepoPG) Update(ctx context.Context, c *Record) error {
	vaccines, err := encodeVaccines(c)
	if err != nil {
		return err
	}
	err = r.conn(ctx).QueryRow(ctx, `
		UPDATE child SET patient_id = $2, lga_id = $3, ward_id = $4, facility_id = $5, name = $6, dob = $7,
			sex = $8, vaccines = $9, notes = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.PatientID, c.LGAID, c.WardID, c.FacilityID, c.Name, c.DOB, c.Sex, vaccines, c.Notes,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (r *childRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM child WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func where(f Filter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.LGAID != nil {
		add("c.lga_id = $%d", *f.LGAID)
	}
	if f.WardID != nil {
		add("c.ward_id = $%d", *f.WardID)
	}
	if f.FacilityID != nil {
		add("c.facility_id = $%d", *f.FacilityID)
	}
	if f.RegisteredFrom != nil {
		add("c.created_at >= $%d", *f.RegisteredFrom)
	}
	if f.RegisteredTo != nil {
		add("c.created_at < $%d", *f.RegisteredTo)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("c.name ILIKE $%d", "%"+s+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *childRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Record, int, error) {
	cond, args := where(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM child c`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+childCols+childFrom+cond+fmt.Sprintf(` ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *childRepoPG) Each(ctx context.Context, f Filter, fn func(*Record) error) error {
	cond, args := where(f)
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+childCols+childFrom+cond+` ORDER BY c.created_at`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

// -- Nutrition --

type nutritionRepoPG struct{ pool *pgxpool.Pool }

func NewNutritionRepoPG(pool *pgxpool.Pool) NutritionRepository {
	return &nutritionRepoPG{pool: pool}
}

func (r *nutritionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const nutritionCols = `n.id, n.child_id, n.visit_date, n.weight_kg, n.height_cm, n.muac_cm, n.status,
	n.vitamin_a, n.deworming, n.micronutrient_powder, n.referred, n.notes, n.created_at`

func scanNutrition(row pgx.Row) (*NutritionLogEntry, error) {
	var e NutritionLogEntry
	err := row.Scan(&e.ID, &e.ChildID, &e.VisitDate, &e.WeightKG, &e.HeightCM, &e.MUACCM, &e.Status,
		&e.VitaminA, &e.Deworming, &e.MicronutrientPowder, &e.Referred, &e.Notes, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *nutritionRepoPG) Create(ctx context.Context, e *NutritionLogEntry) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO nutrition_log (id, child_id, visit_date, weight_kg, height_cm, muac_cm, status,
			vitamin_a, deworming, micronutrient_powder, referred, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		e.ID, e.ChildID, e.VisitDate, e.WeightKG, e.HeightCM, e.MUACCM, e.Status,
		e.VitaminA, e.Deworming, e.MicronutrientPowder, e.Referred, e.Notes,
	).Scan(&e.CreatedAt)
}

func (r *nutritionRepoPG) ListByChild(ctx context.Context, childID uuid.UUID) ([]*NutritionLogEntry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+nutritionCols+` FROM nutrition_log n WHERE n.child_id = $1 ORDER BY n.visit_date DESC, n.created_at DESC`,
		childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*NutritionLogEntry
	for rows.Next() {
		e, err := scanNutrition(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *nutritionRepoPG) Latest(ctx context.Context, f Filter) (map[uuid.UUID]*NutritionLogEntry, error) {
	cond, args := where(f)
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT ON (n.child_id) `+nutritionCols+`
		FROM nutrition_log n JOIN child c ON c.id = n.child_id`+cond+`
		ORDER BY n.child_id, n.visit_date DESC, n.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]*NutritionLogEntry)
	for rows.Next() {
		e, err := scanNutrition(rows)
		if err != nil {
			return nil, err
		}
		out[e.ChildID] = e
	}
	return out, rows.Err()
}
