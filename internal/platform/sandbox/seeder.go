package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
)

var lgaNames = []string{"Dala", "Gwale", "Fagge", "Nassarawa", "Tarauni", "Ungogo", "Kumbotso"}

// SeedConfig sizes a synthetic dataset. Counts are per parent unit.
type SeedConfig struct {
	LGAs                int   `json:"lgas"`
	WardsPerLGA         int   `json:"wards_per_lga"`
	FacilitiesPerWard   int   `json:"facilities_per_ward"`
	PatientsPerFacility int   `json:"patients_per_facility"`
	ChildrenPerFacility int   `json:"children_per_facility"`
	Seed                int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		LGAs:                2,
		WardsPerLGA:         2,
		FacilitiesPerWard:   1,
		PatientsPerFacility: 50,
		ChildrenPerFacility: 20,
		Seed:                1,
	}
}

func (c SeedConfig) Validate() error {
	switch {
	case c.LGAs < 1 || c.LGAs > len(lgaNames):
		return fmt.Errorf("lgas must be between 1 and %d", len(lgaNames))
	case c.WardsPerLGA < 1 || c.WardsPerLGA > 20:
		return fmt.Errorf("wards_per_lga must be between 1 and 20")
	case c.FacilitiesPerWard < 1 || c.FacilitiesPerWard > 20:
		return fmt.Errorf("facilities_per_ward must be between 1 and 20")
	case c.PatientsPerFacility < 0 || c.ChildrenPerFacility < 0:
		return fmt.Errorf("record counts cannot be negative")
	}
	return nil
}

// SeedResult counts what a run created.
type SeedResult struct {
	LGAs       int `json:"lgas"`
	Wards      int `json:"wards"`
	Facilities int `json:"facilities"`
	Patients   int `json:"patients"`
	Children   int `json:"children"`
	Nutrition  int `json:"nutrition_visits"`
}

type Locations interface {
	CreateLGA(ctx context.Context, l *location.LGA) error
	CreateWard(ctx context.Context, w *location.Ward) error
	CreateFacility(ctx context.Context, f *location.Facility) error
}

type Patients interface {
	Register(ctx context.Context, actor patient.Actor, r *patient.Record) error
}

type Children interface {
	Register(ctx context.Context, actor child.Actor, c *child.Record) error
	AddNutrition(ctx context.Context, actor child.Actor, childID uuid.UUID, e *child.NutritionLogEntry) error
}

// Seeder writes a generated location hierarchy and its records through the
// domain services, so every record goes through normal validation.
type Seeder struct {
	cfg       SeedConfig
	locations Locations
	patients  Patients
	children  Children
	logger    zerolog.Logger
	now       func() time.Time
}

func NewSeeder(cfg SeedConfig, locations Locations, patients Patients, children Children, logger zerolog.Logger) *Seeder {
	return &Seeder{
		cfg:       cfg,
		locations: locations,
		patients:  patients,
		children:  children,
		logger:    logger.With().Str("component", "seeder").Logger(),
		now:       time.Now,
	}
}

func (s *Seeder) WithClock(now func() time.Time) *Seeder {
	s.now = now
	return s
}

// SeedActor is the principal records are registered as.
var SeedActor = auth.Principal{UserID: "seeder", Roles: []string{auth.RoleAdmin}}

// Run creates the configured dataset. A prefix derived from the seed keeps
// location codes from colliding with earlier runs that used another seed.
func (s *Seeder) Run(ctx context.Context) (*SeedResult, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	gen := NewDataGenerator(s.cfg.Seed, s.now())
	res := &SeedResult{}
	tag := fmt.Sprintf("%02d", s.cfg.Seed%100)
	if s.cfg.Seed < 0 {
		tag = fmt.Sprintf("%02d", -s.cfg.Seed%100)
	}

	for i := 0; i < s.cfg.LGAs; i++ {
		name := lgaNames[i]
		lga := &location.LGA{Name: name, Code: codeFor(name, tag)}
		if err := s.locations.CreateLGA(ctx, lga); err != nil {
			return res, fmt.Errorf("create lga %s: %w", name, err)
		}
		res.LGAs++

		for w := 1; w <= s.cfg.WardsPerLGA; w++ {
			ward := &location.Ward{
				LGAID: lga.ID,
				Name:  fmt.Sprintf("%s Ward %d", name, w),
				Code:  fmt.Sprintf("%.4s%sW%02d", codeFor(name, ""), tag, w),
			}
			if err := s.locations.CreateWard(ctx, ward); err != nil {
				return res, fmt.Errorf("create ward %s: %w", ward.Name, err)
			}
			res.Wards++

			for f := 1; f <= s.cfg.FacilitiesPerWard; f++ {
				fac := &location.Facility{
					WardID: ward.ID,
					Name:   fmt.Sprintf("%s PHC %d", ward.Name, f),
					Type:   "PHC",
				}
				if err := s.locations.CreateFacility(ctx, fac); err != nil {
					return res, fmt.Errorf("create facility %s: %w", fac.Name, err)
				}
				res.Facilities++
				if err := s.fill(ctx, gen, fac.ID, res); err != nil {
					return res, err
				}
			}
		}
	}

	s.logger.Info().
		Int("lgas", res.LGAs).
		Int("facilities", res.Facilities).
		Int("patients", res.Patients).
		Int("children", res.Children).
		Int64("seed", s.cfg.Seed).
		Msg("sandbox data seeded")
	return res, nil
}

func (s *Seeder) fill(ctx context.Context, gen *DataGenerator, facilityID uuid.UUID, res *SeedResult) error {
	for i := 0; i < s.cfg.PatientsPerFacility; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.patients.Register(ctx, SeedActor, gen.Patient(facilityID)); err != nil {
			return fmt.Errorf("register patient: %w", err)
		}
		res.Patients++
	}
	for i := 0; i < s.cfg.ChildrenPerFacility; i++ {
		c := gen.Child(facilityID)
		if err := s.children.Register(ctx, SeedActor, c); err != nil {
			return fmt.Errorf("register child: %w", err)
		}
		res.Children++
		if e := gen.Nutrition(c); e != nil {
			if err := s.children.AddNutrition(ctx, SeedActor, c.ID, e); err != nil {
				return fmt.Errorf("add nutrition visit: %w", err)
			}
			res.Nutrition++
		}
	}
	return nil
}

// codeFor builds an upper case location code of at most ten characters.
func codeFor(name, tag string) string {
	code := strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if len(code) > 6 {
		code = code[:6]
	}
	return code + tag
}
