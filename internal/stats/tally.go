package stats

import (
	"runtime"
	"sync"
	"time"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

// HIV outcome labels, one per patient.
const (
	HIVTotalTested = "Total Tested"
	HIVPositive    = "Positive"
	HIVNegative    = "Negative"
	HIVPending     = "Results Not Received"
	HIVNotTested   = "Not Tested"
)

// HIVTally counts patients, not tests. A patient tested at several visits is
// classified once: Positive over Negative over results not received.
type HIVTally struct {
	Positive int
	Negative int
	Pending  int
}

// Tested is the number of patients tested at least once.
func (h HIVTally) Tested() int { return h.Positive + h.Negative + h.Pending }

// Tally is the mergeable accumulator for one set of patient records. The zero
// value is empty; maps are allocated lazily.
type Tally struct {
	Total int

	ANCVisits     [patient.NumANCVisits]int
	AdditionalANC int
	Completion    [patient.NumANCVisits + 1]int
	Services      [numServices]int

	HIV HIVTally

	Delivered          int
	FacilityDeliveries int
	LiveBirths         int
	KitsReceived       int
	PNCComplete        int
	PNCIncomplete      int
	DeliveryOutcomes   map[string]int
	DeliveryPlaces     map[string]int
	DeliveryTypes      map[string]int

	Literacy map[string]int
	Ages     [len(ageBands)]int

	FPUsers   int
	FPMethods [numFPMethods]int

	InsuranceEnrolled    int
	InsuranceNotEnrolled int
	InsuranceTypes       map[string]int

	ChildrenWithDOB int
	Vaccines        [immunization.NumVaccines]int
	FullyImmunized  int

	ActivePregnancies int
	DueThisMonth      int
	Overdue           int
	HighRisk          int
	ByMonth           [fullTermMonths]int
}

func incr(m *map[string]int, key string, n int) {
	if *m == nil {
		*m = make(map[string]int)
	}
	(*m)[key] += n
}

// Add folds one record into t.
func (t *Tally) Add(r *patient.Record, now time.Time) {
	t.Total++

	for n := 1; n <= patient.NumANCVisits; n++ {
		if HasCompletedVisit(r, n) {
			t.ANCVisits[n-1]++
		}
		for _, svc := range Services {
			if HasService(r, n, svc) {
				t.Services[svc]++
			}
		}
	}
	t.AdditionalANC += r.AdditionalANCCount
	t.Completion[HighestVisit(r)]++

	t.addHIV(r)
	t.addDelivery(r)

	if lit := value(r.Literacy); lit != "" {
		incr(&t.Literacy, lit, 1)
	}
	t.Ages[ageBand(r.Age)]++

	if r.FamilyPlanning.Using {
		t.FPUsers++
		for i, m := range FPMethods {
			if m.Uses(r.FamilyPlanning) {
				t.FPMethods[i]++
			}
		}
	}

	switch value(r.Insurance.Status) {
	case patient.Yes:
		t.InsuranceEnrolled++
		if typ := value(r.Insurance.Type); typ != "" {
			incr(&t.InsuranceTypes, typ, 1)
		}
	case patient.No:
		t.InsuranceNotEnrolled++
	}

	// Vaccination is only counted for children with a known birth date.
	if r.Child.DOB != nil {
		t.ChildrenWithDOB++
		for i, v := range immunization.Schedule {
			if r.Vaccines.Received(v.Code) {
				t.Vaccines[i]++
			}
		}
		if r.Vaccines.FullyImmunized() {
			t.FullyImmunized++
		}
	}

	if !Delivered(r) {
		t.ActivePregnancies++
		if month, ok := PregnancyMonth(r, now); ok {
			t.ByMonth[month-1]++
		}
		if IsDueThisMonth(r, now) {
			t.DueThisMonth++
		}
		if IsOverdue(r, now) {
			t.Overdue++
		}
		if IsHighRisk(r, now) {
			t.HighRisk++
		}
	}
}

func (t *Tally) addHIV(r *patient.Record) {
	var tested, positive, negative bool
	for n := 1; n <= patient.NumANCVisits; n++ {
		o := ResolveHIVOutcome(r, n)
		if !o.Tested {
			continue
		}
		tested = true
		if !o.ResultReceived {
			continue
		}
		switch o.Result {
		case patient.HIVPositive:
			positive = true
		case patient.HIVNegative:
			negative = true
		}
	}
	switch {
	case positive:
		t.HIV.Positive++
	case negative:
		t.HIV.Negative++
	case tested:
		t.HIV.Pending++
	}
}

func (t *Tally) addDelivery(r *patient.Record) {
	if outcome := value(r.Delivery.Outcome); outcome != "" {
		incr(&t.DeliveryOutcomes, outcome, 1)
		if outcome == patient.OutcomeLiveBirth {
			t.LiveBirths++
		}
	}
	if typ := value(r.Delivery.Type); typ != "" {
		incr(&t.DeliveryTypes, typ, 1)
	}
	if place := NormalizePlace(value(r.Delivery.Place)); place != "" {
		incr(&t.DeliveryPlaces, place, 1)
	}
	if !Delivered(r) {
		return
	}
	t.Delivered++
	if NormalizePlace(value(r.Delivery.Place)) == patient.PlaceHealthFacility {
		t.FacilityDeliveries++
	}
	if r.Delivery.KitsReceived {
		t.KitsReceived++
	}
	if IsPNCIncomplete(r) {
		t.PNCIncomplete++
	} else {
		t.PNCComplete++
	}
}

// Merge adds o into t. Merge is associative and commutative, so partial
// tallies can be combined in any order.
func (t *Tally) Merge(o *Tally) {
	t.Total += o.Total
	for i := range t.ANCVisits {
		t.ANCVisits[i] += o.ANCVisits[i]
	}
	t.AdditionalANC += o.AdditionalANC
	for i := range t.Completion {
		t.Completion[i] += o.Completion[i]
	}
	for i := range t.Services {
		t.Services[i] += o.Services[i]
	}

	t.HIV.Positive += o.HIV.Positive
	t.HIV.Negative += o.HIV.Negative
	t.HIV.Pending += o.HIV.Pending

	t.Delivered += o.Delivered
	t.FacilityDeliveries += o.FacilityDeliveries
	t.LiveBirths += o.LiveBirths
	t.KitsReceived += o.KitsReceived
	t.PNCComplete += o.PNCComplete
	t.PNCIncomplete += o.PNCIncomplete
	mergeCounts(&t.DeliveryOutcomes, o.DeliveryOutcomes)
	mergeCounts(&t.DeliveryPlaces, o.DeliveryPlaces)
	mergeCounts(&t.DeliveryTypes, o.DeliveryTypes)

	mergeCounts(&t.Literacy, o.Literacy)
	for i := range t.Ages {
		t.Ages[i] += o.Ages[i]
	}

	t.FPUsers += o.FPUsers
	for i := range t.FPMethods {
		t.FPMethods[i] += o.FPMethods[i]
	}

	t.InsuranceEnrolled += o.InsuranceEnrolled
	t.InsuranceNotEnrolled += o.InsuranceNotEnrolled
	mergeCounts(&t.InsuranceTypes, o.InsuranceTypes)

	t.ChildrenWithDOB += o.ChildrenWithDOB
	for i := range t.Vaccines {
		t.Vaccines[i] += o.Vaccines[i]
	}
	t.FullyImmunized += o.FullyImmunized

	t.ActivePregnancies += o.ActivePregnancies
	t.DueThisMonth += o.DueThisMonth
	t.Overdue += o.Overdue
	t.HighRisk += o.HighRisk
	for i := range t.ByMonth {
		t.ByMonth[i] += o.ByMonth[i]
	}
}

func mergeCounts(dst *map[string]int, src map[string]int) {
	for k, v := range src {
		incr(dst, k, v)
	}
}

// Fold tallies records sequentially.
func Fold(records []*patient.Record, now time.Time) *Tally {
	t := &Tally{}
	for _, r := range records {
		t.Add(r, now)
	}
	return t
}

// parallelThreshold is the record count below which FoldParallel folds inline.
const parallelThreshold = 2000

// FoldParallel splits records into chunks, folds each on its own goroutine
// and merges the partial tallies. workers <= 0 uses GOMAXPROCS.
func FoldParallel(records []*patient.Record, now time.Time, workers int) *Tally {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(records) < parallelThreshold {
		return Fold(records, now)
	}
	size := (len(records) + workers - 1) / workers
	parts := make([]*Tally, (len(records)+size-1)/size)
	var wg sync.WaitGroup
	for i := range parts {
		start, end := i*size, (i+1)*size
		if end > len(records) {
			end = len(records)
		}
		wg.Add(1)
		go func(i int, chunk []*patient.Record) {
			defer wg.Done()
			parts[i] = Fold(chunk, now)
		}(i, records[start:end])
	}
	wg.Wait()

	out := &Tally{}
	for _, p := range parts {
		out.Merge(p)
	}
	return out
}

// GroupFold tallies records per key.
func GroupFold[K comparable](records []*patient.Record, now time.Time, key func(*patient.Record) K) map[K]*Tally {
	out := make(map[K]*Tally)
	for _, r := range records {
		k := key(r)
		t, ok := out[k]
		if !ok {
			t = &Tally{}
			out[k] = t
		}
		t.Add(r, now)
	}
	return out
}
