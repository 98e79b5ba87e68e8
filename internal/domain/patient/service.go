package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
	"github.com/Yamojr001/lip-sub002/internal/platform/db"
)

// Locations is the part of the location service that patient registration needs.
type Locations interface {
	ResolveFacility(ctx context.Context, id uuid.UUID) (*location.Facility, error)
	AllocateUniqueCode(ctx context.Context, wardID uuid.UUID) (string, error)
}

type Service struct {
	records   Repository
	locations Locations
	tx        db.Transactor
	now       func() time.Time
	onChange  []func(ctx context.Context)
}

func NewService(records Repository, locations Locations, tx db.Transactor) *Service {
	return &Service{records: records, locations: locations, tx: tx, now: time.Now}
}

// WithClock replaces the wall clock used to reject future dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OnChange registers fn to run after every successful write.
func (s *Service) OnChange(fn func(ctx context.Context)) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed(ctx context.Context) {
	for _, fn := range s.onChange {
		fn(ctx)
	}
}

func (s *Service) Register(ctx context.Context, actor Actor, r *Record) error {
	if !actor.IsAdmin() {
		scope := actor.FacilityScope()
		if scope != nil && r.FacilityID == uuid.Nil {
			r.FacilityID = *scope
		}
		if scope == nil || *scope == uuid.Nil || *scope != r.FacilityID {
			return fmt.Errorf("%w: staff may only register patients at their own facility", apperr.ErrForbidden)
		}
	}

	v := &apperr.ValidationError{}
	validateDemographics(v, r, s.now())
	validateClinical(v, r)
	if err := v.OrNil(); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		f, err := s.locations.ResolveFacility(ctx, r.FacilityID)
		if err != nil {
			return err
		}
		if err := checkHierarchy(r, f); err != nil {
			return err
		}
		r.WardID, r.LGAID = f.WardID, f.LGAID

		code, err := s.locations.AllocateUniqueCode(ctx, r.WardID)
		if err != nil {
			return fmt.Errorf("allocate unique code: %w", err)
		}
		r.UniqueCode = code
		return s.records.Create(ctx, r)
	})
	if err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func checkHierarchy(r *Record, f *location.Facility) error {
	v := &apperr.ValidationError{}
	if r.WardID != uuid.Nil && r.WardID != f.WardID {
		v.Add("ward_id", "does not match the facility's ward")
	}
	if r.LGAID != uuid.Nil && r.LGAID != f.LGAID {
		v.Add("lga_id", "does not match the facility's LGA")
	}
	return v.OrNil()
}

// Get returns a record the actor may see: their own facility's, any record
// for admins, and records elsewhere for cross-facility editors.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Record, error) {
	r, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, r) {
		// Out-of-scope records are indistinguishable from absent ones.
		return nil, apperr.ErrNotFound
	}
	return r, nil
}

func canRead(actor Actor, r *Record) bool {
	return actor.IsAdmin() || actor.OwnsFacility(r.FacilityID) || actor.CanEditAcrossFacilities()
}

// Update applies in to the stored record. Same-facility staff and admins
// replace every editable field; cross-facility editors only replace the
// clinical event sections.
func (s *Service) Update(ctx context.Context, actor Actor, in *Record) (*Record, error) {
	existing, err := s.records.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	var merged Record
	switch {
	case actor.IsAdmin() || actor.OwnsFacility(existing.FacilityID):
		merged = *in
		merged.UniqueCode = existing.UniqueCode
		merged.CreatedAt, merged.CreatedBy = existing.CreatedAt, existing.CreatedBy
		if merged.FacilityID == uuid.Nil {
			merged.FacilityID = existing.FacilityID
		}
		if !actor.IsAdmin() && merged.FacilityID != existing.FacilityID {
			return nil, fmt.Errorf("%w: only admins may move a patient to another facility", apperr.ErrForbidden)
		}
	case actor.CanEditAcrossFacilities():
		merged = *existing
		applyClinical(&merged, in)
	default:
		return nil, apperr.ErrNotFound
	}

	v := &apperr.ValidationError{}
	validateDemographics(v, &merged, s.now())
	validateClinical(v, &merged)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if merged.FacilityID != existing.FacilityID {
		f, err := s.locations.ResolveFacility(ctx, merged.FacilityID)
		if err != nil {
			return nil, err
		}
		merged.WardID, merged.LGAID = f.WardID, f.LGAID
	} else {
		merged.WardID, merged.LGAID = existing.WardID, existing.LGAID
	}

	if err := s.records.Update(ctx, &merged); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &merged, nil
}

// applyClinical copies the event sections recorded at visits.
func applyClinical(dst, src *Record) {
	dst.ANCVisits = src.ANCVisits
	dst.AdditionalANCCount = src.AdditionalANCCount
	dst.Delivery = src.Delivery
	dst.PNCVisits = src.PNCVisits
	dst.FamilyPlanning = src.FamilyPlanning
	dst.Insurance = src.Insurance
	dst.Child = src.Child
	dst.Vaccines = src.Vaccines
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// List pages through the records visible to actor. A cross-facility editor
// searching by name or code looks across facilities.
func (s *Service) List(ctx context.Context, actor Actor, f Filter, limit, offset int) ([]*Record, int, error) {
	return s.records.List(ctx, ScopeFilter(actor, f), limit, offset)
}

// ScopeFilter pins f to the actor's facility unless the actor may see more.
func ScopeFilter(actor Actor, f Filter) Filter {
	if strings.TrimSpace(f.Search) != "" && actor.CanEditAcrossFacilities() {
		return f
	}
	if scope := actor.FacilityScope(); scope != nil {
		f.FacilityID = scope
	}
	return f
}

// All returns every record matching f, for aggregation and export.
func (s *Service) All(ctx context.Context, f Filter) ([]*Record, error) {
	var out []*Record
	err := s.records.Each(ctx, f, func(r *Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Each streams records matching f to fn.
func (s *Service) Each(ctx context.Context, f Filter, fn func(*Record) error) error {
	return s.records.Each(ctx, f, fn)
}
