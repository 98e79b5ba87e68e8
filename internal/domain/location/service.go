package location

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

var validFacilityTypes = map[string]bool{
	"PHC": true, "Health Post": true, "Clinic": true, "General Hospital": true, "Other": true,
}

type Service struct {
	lgas       LGARepository
	wards      WardRepository
	facilities FacilityRepository
}

func NewService(lgas LGARepository, wards WardRepository, facilities FacilityRepository) *Service {
	return &Service{lgas: lgas, wards: wards, facilities: facilities}
}

// -- LGA --

func validateNameCode(v *apperr.ValidationError, name, code string) {
	if strings.TrimSpace(name) == "" {
		v.Add("name", "is required")
	}
	if !codePattern.MatchString(code) {
		v.Add("code", "must be 2-10 uppercase letters or digits")
	}
}

func (s *Service) CreateLGA(ctx context.Context, l *LGA) error {
	l.Code = strings.ToUpper(strings.TrimSpace(l.Code))
	v := &apperr.ValidationError{}
	validateNameCode(v, l.Name, l.Code)
	if err := v.OrNil(); err != nil {
		return err
	}
	return s.lgas.Create(ctx, l)
}

func (s *Service) GetLGA(ctx context.Context, id uuid.UUID) (*LGA, error) {
	return s.lgas.GetByID(ctx, id)
}

func (s *Service) UpdateLGA(ctx context.Context, l *LGA) error {
	l.Code = strings.ToUpper(strings.TrimSpace(l.Code))
	v := &apperr.ValidationError{}
	validateNameCode(v, l.Name, l.Code)
	if err := v.OrNil(); err != nil {
		return err
	}
	return s.lgas.Update(ctx, l)
}

func (s *Service) ListLGAs(ctx context.Context) ([]*LGA, error) {
	return s.lgas.List(ctx)
}

// -- Ward --

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	w.Code = strings.ToUpper(strings.TrimSpace(w.Code))
	v := &apperr.ValidationError{}
	validateNameCode(v, w.Name, w.Code)
	if w.LGAID == uuid.Nil {
		v.Add("lga_id", "is required")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	if _, err := s.lgas.GetByID(ctx, w.LGAID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("lga_id", "does not exist")
		}
		return fmt.Errorf("load lga: %w", err)
	}
	return s.wards.Create(ctx, w)
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return s.wards.GetByID(ctx, id)
}

// UpdateWard renames a ward. The LGA and serial are fixed once created.
func (s *Service) UpdateWard(ctx context.Context, w *Ward) error {
	w.Code = strings.ToUpper(strings.TrimSpace(w.Code))
	v := &apperr.ValidationError{}
	validateNameCode(v, w.Name, w.Code)
	if err := v.OrNil(); err != nil {
		return err
	}
	return s.wards.Update(ctx, w)
}

func (s *Service) ListWards(ctx context.Context, lgaID *uuid.UUID) ([]*Ward, error) {
	return s.wards.List(ctx, lgaID)
}

// -- Facility --

func (s *Service) prepareFacility(ctx context.Context, f *Facility) error {
	v := &apperr.ValidationError{}
	if strings.TrimSpace(f.Name) == "" {
		v.Add("name", "is required")
	}
	if f.Type == "" {
		f.Type = "PHC"
	}
	if !validFacilityTypes[f.Type] {
		v.Add("type", "invalid facility type: %s", f.Type)
	}
	if f.WardID == uuid.Nil {
		v.Add("ward_id", "is required")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	ward, err := s.wards.GetByID(ctx, f.WardID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("ward_id", "does not exist")
		}
		return fmt.Errorf("load ward: %w", err)
	}
	f.LGAID = ward.LGAID
	return nil
}

func (s *Service) CreateFacility(ctx context.Context, f *Facility) error {
	if err := s.prepareFacility(ctx, f); err != nil {
		return err
	}
	return s.facilities.Create(ctx, f)
}

func (s *Service) GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.facilities.GetByID(ctx, id)
}

// UpdateFacility renames or retypes a facility. Its ward, and so its LGA, are
// fixed once created: existing records copy both for filtering.
func (s *Service) UpdateFacility(ctx context.Context, f *Facility) error {
	cur, err := s.facilities.GetByID(ctx, f.ID)
	if err != nil {
		return err
	}
	if f.WardID == uuid.Nil {
		f.WardID = cur.WardID
	}
	if f.WardID != cur.WardID {
		return apperr.Invalid("ward_id", "cannot be changed once the facility is created")
	}
	if err := s.prepareFacility(ctx, f); err != nil {
		return err
	}
	return s.facilities.Update(ctx, f)
}

func (s *Service) ListFacilities(ctx context.Context, lgaID, wardID *uuid.UUID) ([]*Facility, error) {
	return s.facilities.List(ctx, lgaID, wardID)
}

// ResolveFacility returns the facility along with its ward and LGA ids, which
// patient and child records copy for filtering.
func (s *Service) ResolveFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	f, err := s.facilities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Invalid("facility_id", "does not exist")
		}
		return nil, fmt.Errorf("load facility: %w", err)
	}
	return f, nil
}

// AllocateUniqueCode reserves the next serial in the ward and formats it as
// LGA_CODE/WARD_CODE/NNNN. It must run inside the transaction that inserts
// the record so that a rolled back insert also returns the serial.
func (s *Service) AllocateUniqueCode(ctx context.Context, wardID uuid.UUID) (string, error) {
	serial, err := s.wards.NextSerial(ctx, wardID)
	if err != nil {
		return "", err
	}
	return FormatUniqueCode(serial), nil
}

func FormatUniqueCode(s *Serial) string {
	return fmt.Sprintf("%s/%s/%04d", s.LGACode, s.WardCode, s.Number)
}
