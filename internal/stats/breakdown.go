package stats

import (
	"fmt"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

type band struct {
	label    string
	min, max int
}

// ageBands are inclusive; the final "Other" band catches everything else.
var ageBands = [...]band{
	{"15-19", 15, 19},
	{"20-24", 20, 24},
	{"25-29", 25, 29},
	{"30-34", 30, 34},
	{"35-39", 35, 39},
	{"40-44", 40, 44},
	{"45-50", 45, 50},
	{"Other", 0, -1},
}

func ageBand(age *int) int {
	other := len(ageBands) - 1
	if age == nil {
		return other
	}
	for i, b := range ageBands[:other] {
		if *age >= b.min && *age <= b.max {
			return i
		}
	}
	return other
}

// AgeBandLabel returns the band an age falls into.
func AgeBandLabel(age *int) string {
	return ageBands[ageBand(age)].label
}

// legacyPlaces maps delivery places recorded by older forms.
var legacyPlaces = map[string]string{
	"Hospital": patient.PlaceHealthFacility,
	"PHC":      patient.PlaceHealthFacility,
	"Clinic":   patient.PlaceHealthFacility,
	"TBA":      patient.PlaceTBA,
}

// NormalizePlace folds legacy delivery places into the current categories.
func NormalizePlace(place string) string {
	if p, ok := legacyPlaces[place]; ok {
		return p
	}
	return place
}

// Canonical category keys, always present in breakdown output.
var (
	deliveryOutcomeKeys = []string{patient.OutcomeLiveBirth, patient.OutcomeStillbirth, patient.OutcomeMiscarriage}
	deliveryPlaceKeys   = []string{patient.PlaceHealthFacility, patient.PlaceHome, patient.PlaceTBA, patient.PlaceOther}
	deliveryTypeKeys    = []string{"Normal", "Assisted", "Caesarean Section"}
	literacyKeys        = []string{"Literate", "Semi-literate", "Illiterate"}
	insuranceKeys       = []string{"Enrolled", "Not Enrolled"}
	hivKeys             = []string{HIVTotalTested, HIVPositive, HIVNegative, HIVPending, HIVNotTested}
)

// seeded copies counts into a new map that has every key in keys.
func seeded(keys []string, counts map[string]int) map[string]int {
	out := make(map[string]int, len(keys)+len(counts))
	for _, k := range keys {
		out[k] = 0
	}
	for k, v := range counts {
		out[k] += v
	}
	return out
}

// ANCVisitCounts is per-visit attendance, not exclusive: a record counts
// towards every visit it attended. anc5plus sums the additional-visit counter.
func (t *Tally) ANCVisitCounts() map[string]int {
	out := make(map[string]int, patient.NumANCVisits+1)
	for i, n := range t.ANCVisits {
		out[fmt.Sprintf("anc%d", i+1)] = n
	}
	out["anc5plus"] = t.AdditionalANC
	return out
}

// ServiceCounts sums each service over every visit of every record.
func (t *Tally) ServiceCounts() map[string]int {
	out := make(map[string]int, numServices)
	for _, s := range Services {
		out[s.Key()] = t.Services[s]
	}
	return out
}

func (t *Tally) ANCCompletionStages() ANCCompletion {
	return completionFrom(t.Completion)
}

func (t *Tally) HIVOutcomes() map[string]int {
	tested := t.HIV.Tested()
	return map[string]int{
		HIVTotalTested: tested,
		HIVPositive:    t.HIV.Positive,
		HIVNegative:    t.HIV.Negative,
		HIVPending:     t.HIV.Pending,
		HIVNotTested:   t.Total - tested,
	}
}

func (t *Tally) DeliveryOutcomeDistribution() map[string]int {
	return seeded(deliveryOutcomeKeys, t.DeliveryOutcomes)
}

func (t *Tally) DeliveryLocationDistribution() map[string]int {
	return seeded(deliveryPlaceKeys, t.DeliveryPlaces)
}

func (t *Tally) DeliveryTypeDistribution() map[string]int {
	return seeded(deliveryTypeKeys, t.DeliveryTypes)
}

func (t *Tally) LiteracyDistribution() map[string]int {
	return seeded(literacyKeys, t.Literacy)
}

func (t *Tally) AgeDistribution() map[string]int {
	out := make(map[string]int, len(ageBands))
	for i, b := range ageBands {
		out[b.label] = t.Ages[i]
	}
	return out
}

// FPMethodDistribution counts users per method. Methods nobody uses are left out.
func (t *Tally) FPMethodDistribution() map[string]int {
	out := make(map[string]int)
	for i, m := range FPMethods {
		if t.FPMethods[i] > 0 {
			out[m.Name] = t.FPMethods[i]
		}
	}
	return out
}

// HealthInsuranceEnrollment overlays per-type counts on the Enrolled total, so
// an enrolled NHIS member counts towards both "Enrolled" and "NHIS".
func (t *Tally) HealthInsuranceEnrollment() map[string]int {
	out := seeded(insuranceKeys, t.InsuranceTypes)
	out["Enrolled"] += t.InsuranceEnrolled
	out["Not Enrolled"] += t.InsuranceNotEnrolled
	return out
}

// Coverage is a vaccine's received count and its share of children with a
// known birth date.
type Coverage struct {
	Count int     `json:"count"`
	Rate  float64 `json:"rate"`
}

func (t *Tally) ImmunizationCoverage() map[string]Coverage {
	out := make(map[string]Coverage, immunization.NumVaccines)
	for i, v := range immunization.Schedule {
		out[v.Code] = Coverage{Count: t.Vaccines[i], Rate: Rate(t.Vaccines[i], t.ChildrenWithDOB)}
	}
	return out
}

// PregnancyMonthDistribution keys are "1" to "9".
func (t *Tally) PregnancyMonthDistribution() map[string]int {
	out := make(map[string]int, fullTermMonths)
	for i, n := range t.ByMonth {
		out[fmt.Sprint(i+1)] = n
	}
	return out
}

// Rates are the headline percentages of one tally.
type Rates struct {
	ANC4                float64
	ANC8                float64
	FacilityDelivery    float64
	FPUptake            float64
	InsuranceEnrollment float64
	BCG                 float64
	HIVTesting          float64
	PNCCompletion       float64
}

func (t *Tally) Rates() Rates {
	bcg := 0
	for i, v := range immunization.Schedule {
		if v.Code == "bcg" {
			bcg = t.Vaccines[i]
		}
	}
	return Rates{
		ANC4:                Rate(t.ANCVisits[3], t.Total),
		ANC8:                Rate(t.Completion[patient.NumANCVisits], t.Total),
		FacilityDelivery:    Rate(t.FacilityDeliveries, t.Delivered),
		FPUptake:            Rate(t.FPUsers, t.Total),
		InsuranceEnrollment: Rate(t.InsuranceEnrolled, t.Total),
		BCG:                 Rate(bcg, t.ChildrenWithDOB),
		HIVTesting:          Rate(t.HIV.Tested(), t.Total),
		PNCCompletion:       Rate(t.PNCComplete, t.Delivered),
	}
}
