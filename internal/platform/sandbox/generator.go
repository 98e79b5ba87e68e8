// Package sandbox generates reproducible synthetic maternal and child records
// for demo environments, developer on-boarding and dashboard load tests.
package sandbox

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

var (
	firstNames = []string{
		"Aisha", "Fatima", "Hauwa", "Zainab", "Maryam", "Amina", "Hadiza", "Rukayya",
		"Khadija", "Bilkisu", "Safiya", "Halima", "Asma'u", "Jamila", "Balaraba", "Ladi",
	}
	lastNames = []string{
		"Bello", "Sani", "Musa", "Abdullahi", "Ibrahim", "Yusuf", "Garba", "Lawal",
		"Aliyu", "Usman", "Danjuma", "Shehu", "Idris", "Haruna", "Tijjani", "Kabir",
	}
	childNames = []string{
		"Muhammad", "Abubakar", "Umar", "Usman", "Ali", "Aisha", "Fatima", "Khadija",
		"Zainab", "Ahmad", "Yahaya", "Maryam", "Sadiq", "Hafsat", "Nafisa", "Bashir",
	}
	communities = []string{"Kabuga", "Gwammaja", "Sabon Gari", "Kofar Mata", "Dorayi", "Rijiyar Zaki"}
	literacy    = []string{"Literate", "Semi-literate", "Illiterate"}
	sexes       = []string{"Male", "Female"}
	insurers    = []string{"NHIS", "State Contributory Scheme", "Community Based"}
	complaints  = []string{"Postpartum haemorrhage", "Prolonged labour", "Pre-eclampsia"}
)

// vaccineAgeWeeks is the age at which each dose is normally given.
var vaccineAgeWeeks = map[string]int{
	"bcg": 0, "hep0": 0, "opv0": 0,
	"opv1": 6, "penta1": 6, "pcv1": 6, "rota1": 6,
	"opv2": 10, "penta2": 10, "pcv2": 10, "rota2": 10,
	"opv3": 14, "penta3": 14, "pcv3": 14, "ipv1": 14, "rota3": 14,
	"ipv2": 36, "measles1": 39, "yellow_fever": 39, "mena": 39,
	"measles2": 65,
}

// DataGenerator produces records that pass the registration rules. The same
// seed and reference time always yield the same sequence.
type DataGenerator struct {
	rng *rand.Rand
	now time.Time
}

func NewDataGenerator(seed int64, now time.Time) *DataGenerator {
	y, m, d := now.UTC().Date()
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *DataGenerator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *DataGenerator) daysAgo(lo, hi int) time.Time {
	return g.now.AddDate(0, 0, -g.between(lo, hi))
}

func (g *DataGenerator) phone() *string {
	s := fmt.Sprintf("080%08d", g.rng.Intn(100000000))
	return &s
}

func ptr[T any](v T) *T { return &v }

func (g *DataGenerator) pastOrNil(t time.Time) *time.Time {
	if t.After(g.now) {
		return nil
	}
	return &t
}

// vaccines marks each dose whose age has been reached as received with
// probability coverage.
func (g *DataGenerator) vaccines(dob time.Time, coverage float64) immunization.Doses {
	doses := immunization.Doses{}
	for _, v := range immunization.Schedule {
		given := dob.AddDate(0, 0, 7*vaccineAgeWeeks[v.Code])
		if given.After(g.now) || !g.chance(coverage) {
			continue
		}
		doses[v.Code] = immunization.Dose{Received: true, Date: ptr(given)}
	}
	return doses
}

// Patient returns a pregnancy registered within the last ten months at
// facilityID. Older registrations are more likely to have delivered.
func (g *DataGenerator) Patient(facilityID uuid.UUID) *patient.Record {
	gravida := g.between(1, 8)
	r := &patient.Record{
		Name:             g.pick(firstNames) + " " + g.pick(lastNames),
		Age:              ptr(g.between(15, 45)),
		Literacy:         ptr(g.pick(literacy)),
		Phone:            g.phone(),
		Community:        ptr(g.pick(communities)),
		FacilityID:       facilityID,
		Gravida:          &gravida,
		Parity:           ptr(g.rng.Intn(gravida)),
		RegistrationDate: g.daysAgo(0, 300),
	}
	edd := r.RegistrationDate.AddDate(0, 0, g.between(60, 250))
	r.EDD = &edd

	g.ancVisits(r)
	if edd.Before(g.now) && g.chance(0.85) {
		g.delivery(r)
	}

	if g.chance(0.3) {
		r.Insurance.Status = ptr(patient.Yes)
		r.Insurance.Type = ptr(g.pick(insurers))
	} else if g.chance(0.8) {
		r.Insurance.Status = ptr(patient.No)
	}
	return r
}

func (g *DataGenerator) ancVisits(r *patient.Record) {
	visits := g.between(0, patient.NumANCVisits)
	date := r.RegistrationDate
	for i := 0; i < visits; i++ {
		if date.After(g.now) || date.After(*r.EDD) {
			break
		}
		d := date
		v := patient.ANCVisit{
			Date:       &d,
			Urinalysis: g.chance(0.7),
			IronFolate: g.chance(0.8),
			MMS:        g.chance(0.4),
			SP:         i > 0 && g.chance(0.6),
			SBA:        g.chance(0.5),
		}
		if g.chance(0.3) {
			v.Paid = true
			v.PaymentAmount = ptr(float64(g.between(1, 10)) * 500)
		}
		if i == 0 && g.chance(0.75) {
			v.HIVTest = ptr(patient.Yes)
			if g.chance(0.85) {
				v.HIVResultReceived = true
				result := patient.HIVNegative
				if g.chance(0.04) {
					result = patient.HIVPositive
				}
				v.HIVResult = &result
			}
		}
		next := date.AddDate(0, 0, 28)
		v.NextVisitDate = &next
		r.ANCVisits[i] = v
		date = next
	}
	if visits == patient.NumANCVisits && g.chance(0.2) {
		r.AdditionalANCCount = g.between(1, 3)
	}
}

func (g *DataGenerator) delivery(r *patient.Record) {
	date := r.EDD.AddDate(0, 0, g.between(-14, 7))
	if date.After(g.now) {
		date = g.now
	}
	r.Delivery.Date = &date
	r.Delivery.KitsReceived = g.chance(0.6)

	place := patient.PlaceHealthFacility
	switch x := g.rng.Float64(); {
	case x > 0.9:
		place = patient.PlaceTBA
	case x > 0.65:
		place = patient.PlaceHome
	}
	r.Delivery.Place = &place

	kind := "Normal"
	switch x := g.rng.Float64(); {
	case x > 0.92:
		kind = "Caesarean Section"
	case x > 0.8:
		kind = "Assisted"
	}
	r.Delivery.Type = &kind

	outcome := patient.OutcomeLiveBirth
	switch x := g.rng.Float64(); {
	case x > 0.97:
		outcome = patient.OutcomeMiscarriage
	case x > 0.93:
		outcome = patient.OutcomeStillbirth
	}
	r.Delivery.Outcome = &outcome
	r.Delivery.MotherAlive = ptr(patient.Yes)
	if g.chance(0.08) {
		r.Delivery.Complication = ptr(g.pick(complaints))
	}

	for i, days := range [patient.NumPNCVisits]int{1, 7, 42} {
		if g.chance(0.75) {
			r.PNCVisits[i] = g.pastOrNil(date.AddDate(0, 0, days))
		}
	}

	if g.chance(0.45) {
		fp := &r.FamilyPlanning
		fp.Using = true
		switch g.rng.Intn(7) {
		case 0:
			fp.MaleCondom = true
		case 1:
			fp.FemaleCondom = true
		case 2:
			fp.Pill = true
		case 3:
			fp.Injectable = true
		case 4:
			fp.Implant = true
		case 5:
			fp.IUD = true
		default:
			fp.Other = true
		}
	}

	if outcome == patient.OutcomeLiveBirth {
		r.Child = patient.ChildInfo{
			Name: ptr(g.pick(childNames)),
			DOB:  ptr(date),
			Sex:  ptr(g.pick(sexes)),
		}
		r.Vaccines = g.vaccines(date, 0.85)
	}
}

// Child returns a child registered directly at facilityID, aged up to five.
func (g *DataGenerator) Child(facilityID uuid.UUID) *child.Record {
	dob := g.daysAgo(0, 5*365)
	return &child.Record{
		FacilityID: facilityID,
		Name:       g.pick(childNames) + " " + g.pick(lastNames),
		DOB:        &dob,
		Sex:        ptr(g.pick(sexes)),
		Vaccines:   g.vaccines(dob, 0.8),
	}
}

// Nutrition returns a growth monitoring visit for c within the last two
// months, or nil when c is too young to be screened.
func (g *DataGenerator) Nutrition(c *child.Record) *child.NutritionLogEntry {
	if c.DOB == nil || g.now.Sub(*c.DOB) < 180*24*time.Hour {
		return nil
	}
	visit := g.daysAgo(0, 60)
	if visit.Before(*c.DOB) {
		visit = *c.DOB
	}
	months := visit.Sub(*c.DOB).Hours() / 24 / 30.44
	return &child.NutritionLogEntry{
		VisitDate: visit,
		WeightKG:  ptr(4 + months*0.2 + g.rng.Float64()*2),
		HeightCM:  ptr(62 + months*0.8 + g.rng.Float64()*5),
		MUACCM:    ptr(10.8 + g.rng.Float64()*4.5),
		VitaminA:  g.chance(0.6),
		Deworming: months >= 12 && g.chance(0.5),
		Referred:  g.chance(0.05),
	}
}
