package stats

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
)

const notAssessed = "Not Assessed"

var (
	nutritionKeys = []string{child.StatusNormal, child.StatusMAM, child.StatusSAM, notAssessed}
	sexKeys       = []string{"Male", "Female", "Unknown"}
	childAgeKeys  = []string{"0-11 months", "12-23 months", "24-59 months", "60+ months", "Unknown"}
)

// ChildTally is the mergeable accumulator for child records.
type ChildTally struct {
	Total          int
	Vaccines       [immunization.NumVaccines]int
	FullyImmunized int
	Nutrition      map[string]int
	VitaminA       int
	Deworming      int
	MNP            int
	Referred       int
	Sex            map[string]int
	AgeGroups      [5]int
}

// ageInMonths counts whole calendar months from dob to now.
func ageInMonths(dob, now time.Time) int {
	m := (now.Year()-dob.Year())*12 + int(now.Month()) - int(dob.Month())
	if now.Day() < dob.Day() {
		m--
	}
	return m
}

// childAgeGroup indexes childAgeKeys; a missing DOB falls in Unknown.
func childAgeGroup(dob *time.Time, now time.Time) int {
	if dob == nil {
		return 4
	}
	switch m := ageInMonths(*dob, now); {
	case m < 12:
		return 0
	case m < 24:
		return 1
	case m < 60:
		return 2
	default:
		return 3
	}
}

// Add folds one child and its latest nutrition entry (nil when none) into t.
func (t *ChildTally) Add(c *child.Record, latest *child.NutritionLogEntry, now time.Time) {
	t.Total++
	for i, v := range immunization.Schedule {
		if c.Vaccines.Received(v.Code) {
			t.Vaccines[i]++
		}
	}
	if c.Vaccines.FullyImmunized() {
		t.FullyImmunized++
	}

	status := notAssessed
	if latest != nil {
		if s := value(latest.Status); s != "" {
			status = s
		}
		if latest.VitaminA {
			t.VitaminA++
		}
		if latest.Deworming {
			t.Deworming++
		}
		if latest.MicronutrientPowder {
			t.MNP++
		}
		if latest.Referred {
			t.Referred++
		}
	}
	incr(&t.Nutrition, status, 1)

	sex := value(c.Sex)
	if sex == "" {
		sex = "Unknown"
	}
	incr(&t.Sex, sex, 1)

	t.AgeGroups[childAgeGroup(c.DOB, now)]++
}

// Merge adds o into t.
func (t *ChildTally) Merge(o *ChildTally) {
	t.Total += o.Total
	for i := range t.Vaccines {
		t.Vaccines[i] += o.Vaccines[i]
	}
	t.FullyImmunized += o.FullyImmunized
	mergeCounts(&t.Nutrition, o.Nutrition)
	t.VitaminA += o.VitaminA
	t.Deworming += o.Deworming
	t.MNP += o.MNP
	t.Referred += o.Referred
	mergeCounts(&t.Sex, o.Sex)
	for i := range t.AgeGroups {
		t.AgeGroups[i] += o.AgeGroups[i]
	}
}

// FoldChildren tallies children against their latest nutrition entries.
func FoldChildren(children []*child.Record, latest map[uuid.UUID]*child.NutritionLogEntry, now time.Time) *ChildTally {
	t := &ChildTally{}
	for _, c := range children {
		t.Add(c, latest[c.ID], now)
	}
	return t
}

// FoldChildrenParallel is FoldChildren split across workers goroutines, as
// FoldParallel does for patient records.
func FoldChildrenParallel(children []*child.Record, latest map[uuid.UUID]*child.NutritionLogEntry, now time.Time, workers int) *ChildTally {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(children) < parallelThreshold {
		return FoldChildren(children, latest, now)
	}
	size := (len(children) + workers - 1) / workers
	parts := make([]*ChildTally, (len(children)+size-1)/size)
	var wg sync.WaitGroup
	for i := range parts {
		start, end := i*size, (i+1)*size
		if end > len(children) {
			end = len(children)
		}
		wg.Add(1)
		go func(i int, chunk []*child.Record) {
			defer wg.Done()
			parts[i] = FoldChildren(chunk, latest, now)
		}(i, children[start:end])
	}
	wg.Wait()

	out := &ChildTally{}
	for _, p := range parts {
		out.Merge(p)
	}
	return out
}

// Children is the child health dashboard.
type Children struct {
	TotalChildren      int                     `json:"totalChildren"`
	FullyImmunized     int                     `json:"fullyImmunized"`
	FullyImmunizedRate float64                 `json:"fullyImmunizedRate"`
	Immunization       map[string]Coverage     `json:"immunization"`
	NutritionStatus    map[string]int          `json:"nutritionStatus"`
	Supplements        map[string]int          `json:"supplements"`
	Referred           int                     `json:"referred"`
	SexDistribution    map[string]int          `json:"sexDistribution"`
	AgeGroups          map[string]int          `json:"ageGroups"`
	Charts             map[string][]ChartPoint `json:"charts"`
}

// ChildDashboard assembles the child view. Vaccine coverage is a share of all
// children in the input.
func ChildDashboard(children []*child.Record, latest map[uuid.UUID]*child.NutritionLogEntry, now time.Time, workers int) Children {
	t := FoldChildrenParallel(children, latest, now, workers)

	cov := make(map[string]Coverage, immunization.NumVaccines)
	for i, v := range immunization.Schedule {
		cov[v.Code] = Coverage{Count: t.Vaccines[i], Rate: Rate(t.Vaccines[i], t.Total)}
	}
	ages := make(map[string]int, len(childAgeKeys))
	for i, k := range childAgeKeys {
		ages[k] = t.AgeGroups[i]
	}

	out := Children{
		TotalChildren:      t.Total,
		FullyImmunized:     t.FullyImmunized,
		FullyImmunizedRate: Rate(t.FullyImmunized, t.Total),
		Immunization:       cov,
		NutritionStatus:    seeded(nutritionKeys, t.Nutrition),
		Supplements: map[string]int{
			"vitaminA":            t.VitaminA,
			"deworming":           t.Deworming,
			"micronutrientPowder": t.MNP,
		},
		Referred:        t.Referred,
		SexDistribution: seeded(sexKeys, t.Sex),
		AgeGroups:       ages,
	}
	out.Charts = map[string][]ChartPoint{
		"immunization":    coverageChart(out.Immunization, vaccineOrder),
		"nutritionStatus": ToChart(out.NutritionStatus, nutritionKeys),
		"sexDistribution": ToChart(out.SexDistribution, sexKeys),
		"ageGroups":       ToChart(out.AgeGroups, childAgeKeys),
	}
	return out
}
