package stats

import (
	"fmt"
	"time"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

// PregnancyTracking summarises undelivered pregnancies and postnatal follow-up.
type PregnancyTracking struct {
	ActivePregnancies int            `json:"activePregnancies"`
	DueThisMonth      int            `json:"dueThisMonth"`
	Overdue           int            `json:"overdue"`
	HighRisk          int            `json:"highRisk"`
	PNCIncomplete     int            `json:"pncIncomplete"`
	ByMonth           map[string]int `json:"byMonth"`
}

// DetailedCounts are the raw numerators behind the headline rates.
type DetailedCounts struct {
	Delivered          int `json:"delivered"`
	LiveBirths         int `json:"liveBirths"`
	FacilityDeliveries int `json:"facilityDeliveries"`
	KitsReceived       int `json:"kitsReceived"`
	PNCCompleted       int `json:"pncCompleted"`
	FPUsers            int `json:"fpUsers"`
	InsuranceEnrolled  int `json:"insuranceEnrolled"`
	HIVTested          int `json:"hivTested"`
	HIVPositive        int `json:"hivPositive"`
	ChildrenWithDOB    int `json:"childrenWithDob"`
	FullyImmunized     int `json:"fullyImmunized"`
	AdditionalANC      int `json:"additionalAnc"`
}

// Summary is the block shared by every maternal dashboard. Every map carries
// its canonical keys even when the input is empty.
type Summary struct {
	TotalRegistered         int     `json:"totalRegistered"`
	ANC4Rate                float64 `json:"anc4Rate"`
	ANC8Rate                float64 `json:"anc8Rate"`
	FacilityDeliveryRate    float64 `json:"facilityDeliveryRate"`
	FPUptakeRate            float64 `json:"fpUptakeRate"`
	InsuranceEnrollmentRate float64 `json:"insuranceEnrollmentRate"`
	BCGRate                 float64 `json:"bcgRate"`
	HIVTestingRate          float64 `json:"hivTestingRate"`
	PNCCompletionRate       float64 `json:"pncCompletionRate"`

	ANCCompletion     ANCCompletion       `json:"ancCompletion"`
	ANCVisits         map[string]int      `json:"ancVisits"`
	ServiceCounts     map[string]int      `json:"serviceCounts"`
	HIVOutcomes       map[string]int      `json:"hivOutcomes"`
	DeliveryOutcomes  map[string]int      `json:"deliveryOutcomes"`
	DeliveryLocations map[string]int      `json:"deliveryLocations"`
	DeliveryTypes     map[string]int      `json:"deliveryTypes"`
	Literacy          map[string]int      `json:"literacy"`
	AgeDistribution   map[string]int      `json:"ageDistribution"`
	FPMethods         map[string]int      `json:"fpMethods"`
	HealthInsurance   map[string]int      `json:"healthInsurance"`
	Immunization      map[string]Coverage `json:"immunization"`

	PregnancyTracking PregnancyTracking `json:"pregnancyTracking"`
	DetailedCounts    DetailedCounts    `json:"detailedCounts"`
	Trends            Trends            `json:"trends"`

	Charts map[string][]ChartPoint `json:"charts"`
}

var (
	ancVisitOrder = func() []string {
		out := make([]string, 0, patient.NumANCVisits+1)
		for i := 1; i <= patient.NumANCVisits; i++ {
			out = append(out, fmt.Sprintf("anc%d", i))
		}
		return append(out, "anc5plus")
	}()
	serviceOrder = serviceKeys[:]
	ageOrder     = func() []string {
		out := make([]string, len(ageBands))
		for i, b := range ageBands {
			out[i] = b.label
		}
		return out
	}()
	fpOrder = func() []string {
		out := make([]string, len(FPMethods))
		for i, m := range FPMethods {
			out[i] = m.Name
		}
		return out
	}()
	vaccineOrder = func() []string {
		out := make([]string, len(immunization.Schedule))
		for i, v := range immunization.Schedule {
			out[i] = v.Code
		}
		return out
	}()
	monthOrder = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}
)

// Summarize assembles the shared dashboard block from the current and prior
// period tallies.
func Summarize(cur, prior *Tally) Summary {
	rates := cur.Rates()
	s := Summary{
		TotalRegistered:         cur.Total,
		ANC4Rate:                rates.ANC4,
		ANC8Rate:                rates.ANC8,
		FacilityDeliveryRate:    rates.FacilityDelivery,
		FPUptakeRate:            rates.FPUptake,
		InsuranceEnrollmentRate: rates.InsuranceEnrollment,
		BCGRate:                 rates.BCG,
		HIVTestingRate:          rates.HIVTesting,
		PNCCompletionRate:       rates.PNCCompletion,

		ANCCompletion:     cur.ANCCompletionStages(),
		ANCVisits:         cur.ANCVisitCounts(),
		ServiceCounts:     cur.ServiceCounts(),
		HIVOutcomes:       cur.HIVOutcomes(),
		DeliveryOutcomes:  cur.DeliveryOutcomeDistribution(),
		DeliveryLocations: cur.DeliveryLocationDistribution(),
		DeliveryTypes:     cur.DeliveryTypeDistribution(),
		Literacy:          cur.LiteracyDistribution(),
		AgeDistribution:   cur.AgeDistribution(),
		FPMethods:         cur.FPMethodDistribution(),
		HealthInsurance:   cur.HealthInsuranceEnrollment(),
		Immunization:      cur.ImmunizationCoverage(),

		PregnancyTracking: PregnancyTracking{
			ActivePregnancies: cur.ActivePregnancies,
			DueThisMonth:      cur.DueThisMonth,
			Overdue:           cur.Overdue,
			HighRisk:          cur.HighRisk,
			PNCIncomplete:     cur.PNCIncomplete,
			ByMonth:           cur.PregnancyMonthDistribution(),
		},
		DetailedCounts: DetailedCounts{
			Delivered:          cur.Delivered,
			LiveBirths:         cur.LiveBirths,
			FacilityDeliveries: cur.FacilityDeliveries,
			KitsReceived:       cur.KitsReceived,
			PNCCompleted:       cur.PNCComplete,
			FPUsers:            cur.FPUsers,
			InsuranceEnrolled:  cur.InsuranceEnrolled,
			HIVTested:          cur.HIV.Tested(),
			HIVPositive:        cur.HIV.Positive,
			ChildrenWithDOB:    cur.ChildrenWithDOB,
			FullyImmunized:     cur.FullyImmunized,
			AdditionalANC:      cur.AdditionalANC,
		},
		Trends: TrendsOf(cur, prior),
	}
	s.Charts = map[string][]ChartPoint{
		"ancCompletion":     completionChart(s.ANCCompletion),
		"ancVisits":         ToChart(s.ANCVisits, ancVisitOrder),
		"serviceCounts":     ToChart(s.ServiceCounts, serviceOrder),
		"hivOutcomes":       ToChart(s.HIVOutcomes, hivKeys, HIVTotalTested),
		"deliveryOutcomes":  ToChart(s.DeliveryOutcomes, deliveryOutcomeKeys),
		"deliveryLocations": ToChart(s.DeliveryLocations, deliveryPlaceKeys),
		"deliveryTypes":     ToChart(s.DeliveryTypes, deliveryTypeKeys),
		"literacy":          ToChart(s.Literacy, literacyKeys),
		"ageDistribution":   ToChart(s.AgeDistribution, ageOrder),
		"fpMethods":         ToChart(s.FPMethods, fpOrder),
		"healthInsurance":   ToChart(s.HealthInsurance, insuranceKeys),
		"immunization":      coverageChart(s.Immunization, vaccineOrder),
		"pregnancyMonths":   ToChart(s.PregnancyTracking.ByMonth, monthOrder),
	}
	return s
}

// Input is one dashboard computation: the current and prior period records
// and the reference time. Workers > 1 folds large inputs in parallel.
type Input struct {
	Current []*patient.Record
	Prior   []*patient.Record
	Now     time.Time
	Workers int
}

func (in Input) fold(records []*patient.Record) *Tally {
	if in.Workers > 1 {
		return FoldParallel(records, in.Now, in.Workers)
	}
	return Fold(records, in.Now)
}

// Tallies folds the current and prior records.
func (in Input) Tallies() (cur, prior *Tally) {
	return in.fold(in.Current), in.fold(in.Prior)
}
