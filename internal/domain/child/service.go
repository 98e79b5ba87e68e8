package child

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
)

type Locations interface {
	ResolveFacility(ctx context.Context, id uuid.UUID) (*location.Facility, error)
}

// Mothers looks up the maternal record a child is linked to.
type Mothers interface {
	Get(ctx context.Context, actor patient.Actor, id uuid.UUID) (*patient.Record, error)
}

type Service struct {
	children  Repository
	nutrition NutritionRepository
	locations Locations
	mothers   Mothers
	now       func() time.Time
	onChange  []func(ctx context.Context)
}

func NewService(children Repository, nutrition NutritionRepository, locations Locations, mothers Mothers) *Service {
	return &Service{children: children, nutrition: nutrition, locations: locations, mothers: mothers, now: time.Now}
}

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

var validSex = map[string]bool{"Male": true, "Female": true}

func (s *Service) validate(c *Record) error {
	v := &apperr.ValidationError{}
	now := s.now()

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		v.Add("name", "is required")
	}
	if c.DOB == nil {
		v.Add("dob", "is required")
	} else if c.DOB.After(now) {
		v.Add("dob", "cannot be in the future")
	}
	if c.Sex != nil && *c.Sex != "" && !validSex[*c.Sex] {
		v.Add("sex", "invalid value %q", *c.Sex)
	}
	if c.FacilityID == uuid.Nil {
		v.Add("facility_id", "is required")
	}
	if err := c.Vaccines.Validate(); err != nil {
		v.Add("vaccines", "%s", err.Error())
	}
	for _, vac := range immunization.Schedule {
		d := c.Vaccines.Date(vac.Code)
		if d == nil {
			continue
		}
		if c.DOB != nil && d.Before(*c.DOB) {
			v.Add("vaccines."+vac.Code, "cannot be given before the date of birth")
		}
		if d.After(now) {
			v.Add("vaccines."+vac.Code, "cannot be in the future")
		}
	}
	return v.OrNil()
}

// Register creates a child record. A linked mother supplies the facility and
// date of birth when they are not given.
func (s *Service) Register(ctx context.Context, actor Actor, c *Record) error {
	if c.PatientID != nil {
		mother, err := s.mothers.Get(ctx, actor, *c.PatientID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("patient_id", "unknown patient")
		}
		if err != nil {
			return err
		}
		if c.FacilityID == uuid.Nil {
			c.FacilityID = mother.FacilityID
		}
		if c.DOB == nil {
			c.DOB = mother.Child.DOB
		}
	}
	if !actor.IsAdmin() {
		scope := actor.FacilityScope()
		if scope != nil && c.FacilityID == uuid.Nil {
			c.FacilityID = *scope
		}
		if scope == nil || *scope == uuid.Nil || *scope != c.FacilityID {
			return fmt.Errorf("%w: staff may only register children at their own facility", apperr.ErrForbidden)
		}
	}
	if err := s.validate(c); err != nil {
		return err
	}
	f, err := s.locations.ResolveFacility(ctx, c.FacilityID)
	if err != nil {
		return err
	}
	c.WardID, c.LGAID = f.WardID, f.LGAID
	if err := s.children.Create(ctx, c); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func canRead(actor Actor, c *Record) bool {
	return actor.IsAdmin() || actor.OwnsFacility(c.FacilityID) || actor.CanEditAcrossFacilities()
}

func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Record, error) {
	c, err := s.children.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, c) {
		return nil, apperr.ErrNotFound
	}
	return c, nil
}

// Update replaces the stored child. Cross-facility editors may only record
// vaccinations on a child from another facility.
func (s *Service) Update(ctx context.Context, actor Actor, in *Record) (*Record, error) {
	existing, err := s.children.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	var merged Record
	switch {
	case actor.IsAdmin() || actor.OwnsFacility(existing.FacilityID):
		merged = *in
		merged.CreatedAt, merged.CreatedBy = existing.CreatedAt, existing.CreatedBy
		if merged.FacilityID == uuid.Nil {
			merged.FacilityID = existing.FacilityID
		}
		if !actor.IsAdmin() && merged.FacilityID != existing.FacilityID {
			return nil, fmt.Errorf("%w: only admins may move a child to another facility", apperr.ErrForbidden)
		}
	case actor.CanEditAcrossFacilities():
		merged = *existing
		merged.Vaccines = in.Vaccines
	default:
		return nil, apperr.ErrNotFound
	}

	if err := s.validate(&merged); err != nil {
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

	if err := s.children.Update(ctx, &merged); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &merged, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.children.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) List(ctx context.Context, actor Actor, f Filter, limit, offset int) ([]*Record, int, error) {
	return s.children.List(ctx, ScopeFilter(actor, f), limit, offset)
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

// AddNutrition records a growth-monitoring visit and derives its MUAC status.
func (s *Service) AddNutrition(ctx context.Context, actor Actor, childID uuid.UUID, e *NutritionLogEntry) error {
	c, err := s.Get(ctx, actor, childID)
	if err != nil {
		return err
	}
	e.ChildID = c.ID

	v := &apperr.ValidationError{}
	if e.VisitDate.IsZero() {
		v.Add("visit_date", "is required")
	} else {
		if e.VisitDate.After(s.now()) {
			v.Add("visit_date", "cannot be in the future")
		}
		if c.DOB != nil && e.VisitDate.Before(*c.DOB) {
			v.Add("visit_date", "cannot precede the date of birth")
		}
	}
	checkRange(v, "weight_kg", e.WeightKG, 0.5, 50)
	checkRange(v, "height_cm", e.HeightCM, 20, 150)
	checkRange(v, "muac_cm", e.MUACCM, 5, 30)
	if err := v.OrNil(); err != nil {
		return err
	}

	e.Derive()
	if err := s.nutrition.Create(ctx, e); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func checkRange(v *apperr.ValidationError, field string, value *float64, min, max float64) {
	if value != nil && (*value < min || *value > max) {
		v.Add(field, "must be between %g and %g", min, max)
	}
}

func (s *Service) Nutrition(ctx context.Context, actor Actor, childID uuid.UUID) ([]*NutritionLogEntry, error) {
	if _, err := s.Get(ctx, actor, childID); err != nil {
		return nil, err
	}
	return s.nutrition.ListByChild(ctx, childID)
}

// Each streams children matching f to fn.
func (s *Service) Each(ctx context.Context, f Filter, fn func(*Record) error) error {
	return s.children.Each(ctx, f, fn)
}

// LatestNutrition returns each matching child's most recent nutrition entry.
func (s *Service) LatestNutrition(ctx context.Context, f Filter) (map[uuid.UUID]*NutritionLogEntry, error) {
	return s.nutrition.Latest(ctx, f)
}
