package patient

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const recordCols = `p.id, p.unique_code, p.name, p.age, p.literacy_status, p.phone, p.community, p.address,
	p.lga_id, p.ward_id, p.facility_id,
	p.gravida, p.parity, p.registration_date, p.edd,
	p.anc_visits, p.additional_anc_count,
	p.place_of_delivery, p.delivery_kits_received, p.type_of_delivery, p.delivery_complications,
	p.delivery_outcome, p.mother_alive, p.mother_status, p.date_of_delivery,
	p.pnc_visit_1, p.pnc_visit_2, p.pnc_visit_3,
	p.health_insurance_status, p.insurance_type, p.insurance_satisfaction,
	p.fp_using, p.fp_male_condom, p.fp_female_condom, p.fp_pill, p.fp_injectable, p.fp_implant, p.fp_iud, p.fp_other,
	p.child_name, p.child_dob, p.child_sex,
	p.vaccines, p.notes, p.created_by, p.created_at, p.updated_at,
	f.name, w.name, l.name`

const recordFrom = ` FROM patient p
	JOIN facility f ON f.id = p.facility_id
	JOIN ward w ON w.id = p.ward_id
	JOIN lga l ON l.id = p.lga_id`

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		r             Record
		anc, vaccines []byte
	)
	err := row.Scan(&r.ID, &r.UniqueCode, &r.Name, &r.Age, &r.Literacy, &r.Phone, &r.Community, &r.Address,
		&r.LGAID, &r.WardID, &r.FacilityID,
		&r.Gravida, &r.Parity, &r.RegistrationDate, &r.EDD,
		&anc, &r.AdditionalANCCount,
		&r.Delivery.Place, &r.Delivery.KitsReceived, &r.Delivery.Type, &r.Delivery.Complication,
		&r.Delivery.Outcome, &r.Delivery.MotherAlive, &r.Delivery.MotherStatus, &r.Delivery.Date,
		&r.PNCVisits[0], &r.PNCVisits[1], &r.PNCVisits[2],
		&r.Insurance.Status, &r.Insurance.Type, &r.Insurance.Satisfaction,
		&r.FamilyPlanning.Using, &r.FamilyPlanning.MaleCondom, &r.FamilyPlanning.FemaleCondom,
		&r.FamilyPlanning.Pill, &r.FamilyPlanning.Injectable, &r.FamilyPlanning.Implant,
		&r.FamilyPlanning.IUD, &r.FamilyPlanning.Other,
		&r.Child.Name, &r.Child.DOB, &r.Child.Sex,
		&vaccines, &r.Notes, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
		&r.FacilityName, &r.WardName, &r.LGAName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if len(anc) > 0 {
		if err := json.Unmarshal(anc, &r.ANCVisits); err != nil {
			return nil, fmt.Errorf("decode anc_visits of %s: %w", r.ID, err)
		}
	}
	if len(vaccines) > 0 {
		if err := json.Unmarshal(vaccines, &r.Vaccines); err != nil {
			return nil, fmt.Errorf("decode vaccines of %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

// encodeJSONB marshals the two document columns.
func encodeJSONB(r *Record) (anc, vaccines []byte, err error) {
	if anc, err = json.Marshal(r.ANCVisits); err != nil {
		return nil, nil, fmt.Errorf("encode anc_visits: %w", err)
	}
	if r.Vaccines == nil {
		vaccines = []byte("{}")
	} else if vaccines, err = json.Marshal(r.Vaccines); err != nil {
		return nil, nil, fmt.Errorf("encode vaccines: %w", err)
	}
	return anc, vaccines, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	anc, vaccines, err := encodeJSONB(rec)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, unique_code, name, age, literacy_status, phone, community, address,
			lga_id, ward_id, facility_id, gravida, parity, registration_date, edd,
			anc_visits, additional_anc_count,
			place_of_delivery, delivery_kits_received, type_of_delivery, delivery_complications,
			delivery_outcome, mother_alive, mother_status, date_of_delivery,
			pnc_visit_1, pnc_visit_2, pnc_visit_3,
			health_insurance_status, insurance_type, insurance_satisfaction,
			fp_using, fp_male_condom, fp_female_condom, fp_pill, fp_injectable, fp_implant, fp_iud, fp_other,
			child_name, child_dob, child_sex, vaccines, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,
			$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,$41,$42,$43,$44,$45)
		RETURNING created_at, updated_at`,
		rec.ID, rec.UniqueCode, rec.Name, rec.Age, rec.Literacy, rec.Phone, rec.Community, rec.Address,
		rec.LGAID, rec.WardID, rec.FacilityID, rec.Gravida, rec.Parity, rec.RegistrationDate, rec.EDD,
		anc, rec.AdditionalANCCount,
		rec.Delivery.Place, rec.Delivery.KitsReceived, rec.Delivery.Type, rec.Delivery.Complication,
		rec.Delivery.Outcome, rec.Delivery.MotherAlive, rec.Delivery.MotherStatus, rec.Delivery.Date,
		rec.PNCVisits[0], rec.PNCVisits[1], rec.PNCVisits[2],
		rec.Insurance.Status, rec.Insurance.Type, rec.Insurance.Satisfaction,
		rec.FamilyPlanning.Using, rec.FamilyPlanning.MaleCondom, rec.FamilyPlanning.FemaleCondom,
		rec.FamilyPlanning.Pill, rec.FamilyPlanning.Injectable, rec.FamilyPlanning.Implant,
		rec.FamilyPlanning.IUD, rec.FamilyPlanning.Other,
		rec.Child.Name, rec.Child.DOB, rec.Child.Sex, vaccines, rec.Notes, rec.CreatedBy,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+recordFrom+` WHERE p.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	anc, vaccines, err := encodeJSONB(rec)
	if err != nil {
		return err
	}
	err = r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET name=$2, age=$3, literacy_status=$4, phone=$5, community=$6, address=$7,
			lga_id=$8, ward_id=$9, facility_id=$10, gravida=$11, parity=$12, registration_date=$13, edd=$14,
			anc_visits=$15, additional_anc_count=$16,
			place_of_delivery=$17, delivery_kits_received=$18, type_of_delivery=$19, delivery_complications=$20,
			delivery_outcome=$21, mother_alive=$22, mother_status=$23, date_of_delivery=$24,
			pnc_visit_1=$25, pnc_visit_2=$26, pnc_visit_3=$27,
			health_insurance_status=$28, insurance_type=$29, insurance_satisfaction=$30,
			fp_using=$31, fp_male_condom=$32, fp_female_condom=$33, fp_pill=$34, fp_injectable=$35,
			fp_implant=$36, fp_iud=$37, fp_other=$38,
			child_name=$39, child_dob=$40, child_sex=$41, vaccines=$42, notes=$43, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		rec.ID, rec.Name, rec.Age, rec.Literacy, rec.Phone, rec.Community, rec.Address,
		rec.LGAID, rec.WardID, rec.FacilityID, rec.Gravida, rec.Parity, rec.RegistrationDate, rec.EDD,
		anc, rec.AdditionalANCCount,
		rec.Delivery.Place, rec.Delivery.KitsReceived, rec.Delivery.Type, rec.Delivery.Complication,
		rec.Delivery.Outcome, rec.Delivery.MotherAlive, rec.Delivery.MotherStatus, rec.Delivery.Date,
		rec.PNCVisits[0], rec.PNCVisits[1], rec.PNCVisits[2],
		rec.Insurance.Status, rec.Insurance.Type, rec.Insurance.Satisfaction,
		rec.FamilyPlanning.Using, rec.FamilyPlanning.MaleCondom, rec.FamilyPlanning.FemaleCondom,
		rec.FamilyPlanning.Pill, rec.FamilyPlanning.Injectable, rec.FamilyPlanning.Implant,
		rec.FamilyPlanning.IUD, rec.FamilyPlanning.Other,
		rec.Child.Name, rec.Child.DOB, rec.Child.Sex, vaccines, rec.Notes,
	).Scan(&rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// where renders f as a WHERE clause with positional arguments.
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
		add("p.lga_id = $%d", *f.LGAID)
	}
	if f.WardID != nil {
		add("p.ward_id = $%d", *f.WardID)
	}
	if f.FacilityID != nil {
		add("p.facility_id = $%d", *f.FacilityID)
	}
	if f.RegisteredFrom != nil {
		add("p.registration_date >= $%d", *f.RegisteredFrom)
	}
	if f.RegisteredTo != nil {
		add("p.registration_date < $%d", *f.RegisteredTo)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(p.name ILIKE $%d OR p.unique_code ILIKE $%d)", n, n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Record, int, error) {
	cond, args := where(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient p`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+recordFrom+cond+fmt.Sprintf(` ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Each(ctx context.Context, f Filter, fn func(*Record) error) error {
	cond, args := where(f)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+recordFrom+cond+` ORDER BY p.registration_date, p.created_at`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
