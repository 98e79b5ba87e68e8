package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
)

var refNow = time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)

type fakeLocations struct {
	lgaCodes  map[string]bool
	wardCodes map[string]bool
	wards     map[uuid.UUID]*location.Ward
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{lgaCodes: map[string]bool{}, wardCodes: map[string]bool{}, wards: map[uuid.UUID]*location.Ward{}}
}

func (f *fakeLocations) CreateLGA(_ context.Context, l *location.LGA) error {
	if len(l.Code) < 2 || len(l.Code) > 10 || strings.ToUpper(l.Code) != l.Code {
		return errors.New("bad lga code " + l.Code)
	}
	if f.lgaCodes[l.Code] {
		return errors.New("duplicate lga code " + l.Code)
	}
	f.lgaCodes[l.Code] = true
	l.ID = uuid.New()
	return nil
}

func (f *fakeLocations) CreateWard(_ context.Context, w *location.Ward) error {
	if len(w.Code) < 2 || len(w.Code) > 10 {
		return errors.New("bad ward code " + w.Code)
	}
	key := w.LGAID.String() + w.Code
	if f.wardCodes[key] {
		return errors.New("duplicate ward code " + w.Code)
	}
	f.wardCodes[key] = true
	w.ID = uuid.New()
	f.wards[w.ID] = w
	return nil
}

func (f *fakeLocations) CreateFacility(_ context.Context, fac *location.Facility) error {
	w, ok := f.wards[fac.WardID]
	if !ok {
		return errors.New("unknown ward")
	}
	fac.ID, fac.LGAID = uuid.New(), w.LGAID
	return nil
}

type fakePatients struct {
	records []*patient.Record
	fail    error
}

func (f *fakePatients) Register(_ context.Context, _ patient.Actor, r *patient.Record) error {
	if f.fail != nil {
		return f.fail
	}
	f.records = append(f.records, r)
	return nil
}

type fakeChildren struct {
	records   []*child.Record
	nutrition []*child.NutritionLogEntry
}

func (f *fakeChildren) Register(_ context.Context, _ child.Actor, c *child.Record) error {
	c.ID = uuid.New()
	f.records = append(f.records, c)
	return nil
}

func (f *fakeChildren) AddNutrition(_ context.Context, _ child.Actor, id uuid.UUID, e *child.NutritionLogEntry) error {
	e.ChildID = id
	f.nutrition = append(f.nutrition, e)
	return nil
}

func TestDataGenerator_Deterministic(t *testing.T) {
	fac := uuid.New()
	a := NewDataGenerator(42, refNow)
	b := NewDataGenerator(42, refNow)
	for i := 0; i < 20; i++ {
		if !reflect.DeepEqual(a.Patient(fac), b.Patient(fac)) {
			t.Fatalf("patient %d differs for the same seed", i)
		}
		if !reflect.DeepEqual(a.Child(fac), b.Child(fac)) {
			t.Fatalf("child %d differs for the same seed", i)
		}
	}

	c := NewDataGenerator(43, refNow)
	if reflect.DeepEqual(NewDataGenerator(42, refNow).Patient(fac), c.Patient(fac)) {
		t.Error("expected different seeds to diverge")
	}
}

func TestDataGenerator_PatientsAreConsistent(t *testing.T) {
	gen := NewDataGenerator(7, refNow)
	fac := uuid.New()
	delivered := 0
	for i := 0; i < 500; i++ {
		r := gen.Patient(fac)
		if r.FacilityID != fac {
			t.Fatalf("facility not set")
		}
		if r.RegistrationDate.After(refNow) {
			t.Fatalf("registration %s in the future", r.RegistrationDate)
		}
		if r.EDD == nil || !r.EDD.After(r.RegistrationDate) {
			t.Fatalf("edd %v not after registration %s", r.EDD, r.RegistrationDate)
		}
		if *r.Parity > *r.Gravida {
			t.Fatalf("parity %d exceeds gravida %d", *r.Parity, *r.Gravida)
		}
		for n, v := range r.ANCVisits {
			if v.Date != nil && v.Date.After(refNow) {
				t.Fatalf("anc visit %d in the future", n+1)
			}
			if v.PaymentAmount != nil && !v.Paid {
				t.Fatalf("payment amount without paid on visit %d", n+1)
			}
			if v.HIVResultReceived && (v.HIVTest == nil || *v.HIVTest != patient.Yes) {
				t.Fatalf("hiv result received without a test on visit %d", n+1)
			}
			if v.HIVResult != nil && !v.HIVResultReceived {
				t.Fatalf("hiv result without received flag on visit %d", n+1)
			}
		}
		if r.Insurance.Type != nil && *r.Insurance.Status != patient.Yes {
			t.Fatalf("insurance type without status Yes")
		}
		fp := r.FamilyPlanning
		if !fp.Using && (fp.MaleCondom || fp.FemaleCondom || fp.Pill || fp.Injectable || fp.Implant || fp.IUD || fp.Other) {
			t.Fatalf("family planning method without using")
		}
		if err := r.Vaccines.Validate(); err != nil {
			t.Fatalf("vaccines: %v", err)
		}
		if r.Delivery.Date == nil {
			if r.Child.DOB != nil || len(r.Vaccines) > 0 {
				t.Fatalf("child details without a delivery")
			}
			continue
		}
		delivered++
		if r.Delivery.Date.After(refNow) {
			t.Fatalf("delivery %s in the future", r.Delivery.Date)
		}
		for _, d := range r.PNCVisits {
			if d != nil && (d.Before(*r.Delivery.Date) || d.After(refNow)) {
				t.Fatalf("pnc visit %s outside delivery..now", d)
			}
		}
		for code, dose := range r.Vaccines {
			if dose.Date.Before(*r.Delivery.Date) || dose.Date.After(refNow) {
				t.Fatalf("vaccine %s dated %s outside birth..now", code, dose.Date)
			}
		}
	}
	if delivered == 0 {
		t.Error("expected some generated pregnancies to have delivered")
	}
}

func TestDataGenerator_ChildrenAndNutrition(t *testing.T) {
	gen := NewDataGenerator(11, refNow)
	fac := uuid.New()
	screened := 0
	for i := 0; i < 300; i++ {
		c := gen.Child(fac)
		if c.DOB == nil || c.DOB.After(refNow) {
			t.Fatalf("bad dob %v", c.DOB)
		}
		if err := c.Vaccines.Validate(); err != nil {
			t.Fatalf("vaccines: %v", err)
		}
		e := gen.Nutrition(c)
		if e == nil {
			continue
		}
		screened++
		if e.VisitDate.Before(*c.DOB) || e.VisitDate.After(refNow) {
			t.Fatalf("visit %s outside dob..now", e.VisitDate)
		}
		if *e.WeightKG < 0.5 || *e.WeightKG > 50 {
			t.Fatalf("weight %g out of range", *e.WeightKG)
		}
		if *e.HeightCM < 20 || *e.HeightCM > 150 {
			t.Fatalf("height %g out of range", *e.HeightCM)
		}
		if *e.MUACCM < 5 || *e.MUACCM > 30 {
			t.Fatalf("muac %g out of range", *e.MUACCM)
		}
	}
	if screened == 0 {
		t.Error("expected some children to be screened")
	}
}

func TestSeeder_Run(t *testing.T) {
	locs, pats, kids := newFakeLocations(), &fakePatients{}, &fakeChildren{}
	cfg := SeedConfig{LGAs: 3, WardsPerLGA: 2, FacilitiesPerWard: 2, PatientsPerFacility: 5, ChildrenPerFacility: 4, Seed: 9}

	res, err := NewSeeder(cfg, locs, pats, kids, zerolog.Nop()).WithClock(func() time.Time { return refNow }).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.LGAs != 3 || res.Wards != 6 || res.Facilities != 12 {
		t.Fatalf("unexpected hierarchy %+v", res)
	}
	if res.Patients != 60 || len(pats.records) != 60 {
		t.Fatalf("expected 60 patients, got %d", res.Patients)
	}
	if res.Children != 48 || len(kids.records) != 48 {
		t.Fatalf("expected 48 children, got %d", res.Children)
	}
	if res.Nutrition != len(kids.nutrition) {
		t.Fatalf("nutrition count %d != %d", res.Nutrition, len(kids.nutrition))
	}
	for _, e := range kids.nutrition {
		if e.ChildID == uuid.Nil {
			t.Fatal("nutrition visit not linked to a child")
		}
	}

	// A second run with another seed must not reuse LGA codes.
	other := cfg
	other.Seed = 10
	if _, err := NewSeeder(other, locs, &fakePatients{}, &fakeChildren{}, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestSeeder_StopsOnError(t *testing.T) {
	pats := &fakePatients{fail: errors.New("boom")}
	_, err := NewSeeder(DefaultSeedConfig(), newFakeLocations(), pats, &fakeChildren{}, zerolog.Nop()).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected registration error, got %v", err)
	}
}

func TestSeedConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SeedConfig)
		wantErr bool
	}{
		{"default", func(*SeedConfig) {}, false},
		{"no lgas", func(c *SeedConfig) { c.LGAs = 0 }, true},
		{"too many lgas", func(c *SeedConfig) { c.LGAs = len(lgaNames) + 1 }, true},
		{"no wards", func(c *SeedConfig) { c.WardsPerLGA = 0 }, true},
		{"negative patients", func(c *SeedConfig) { c.PatientsPerFacility = -1 }, true},
		{"no records", func(c *SeedConfig) { c.PatientsPerFacility, c.ChildrenPerFacility = 0, 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSeedConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeedHandler(t *testing.T) {
	pats := &fakePatients{}
	h := NewSeedHandler(newFakeLocations(), pats, &fakeChildren{}, zerolog.Nop())
	e := echo.New()
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := auth.Principal{UserID: "root", Roles: []string{auth.RoleAdmin}}
			if c.Request().Header.Get("X-Test-Role") == "staff" {
				p = auth.Principal{UserID: "nurse", Roles: []string{auth.RolePHCStaff}}
			}
			c.SetRequest(c.Request().WithContext(auth.WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	})
	h.RegisterRoutes(api)

	body, _ := json.Marshal(SeedConfig{LGAs: 1, WardsPerLGA: 1, FacilitiesPerWard: 1, PatientsPerFacility: 3, Seed: 5})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sandbox/seed", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res SeedResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Patients != 3 || len(pats.records) != 3 {
		t.Errorf("expected 3 patients, got %+v", res)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sandbox/seed", strings.NewReader(`{"lgas":0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid config, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sandbox/seed", nil)
	req.Header.Set("X-Test-Role", "staff")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for staff, got %d", rec.Code)
	}
}
