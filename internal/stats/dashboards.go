package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

// Row is one facility or LGA line of the admin dashboard.
type Row struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	LGAName              string    `json:"lgaName,omitempty"`
	TotalRegistered      int       `json:"totalRegistered"`
	ActivePregnancies    int       `json:"activePregnancies"`
	Delivered            int       `json:"delivered"`
	LiveBirths           int       `json:"liveBirths"`
	HIVPositive          int       `json:"hivPositive"`
	HighRisk             int       `json:"highRisk"`
	ANC4Rate             float64   `json:"anc4Rate"`
	ANC8Rate             float64   `json:"anc8Rate"`
	FacilityDeliveryRate float64   `json:"facilityDeliveryRate"`
	FPUptakeRate         float64   `json:"fpUptakeRate"`
}

func rowOf(id uuid.UUID, name string, t *Tally) Row {
	r := t.Rates()
	return Row{
		ID:                   id,
		Name:                 name,
		TotalRegistered:      t.Total,
		ActivePregnancies:    t.ActivePregnancies,
		Delivered:            t.Delivered,
		LiveBirths:           t.LiveBirths,
		HIVPositive:          t.HIV.Positive,
		HighRisk:             t.HighRisk,
		ANC4Rate:             r.ANC4,
		ANC8Rate:             r.ANC8,
		FacilityDeliveryRate: r.FacilityDelivery,
		FPUptakeRate:         r.FPUptake,
	}
}

// sortRows orders by registrations, busiest first, then by name.
func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalRegistered != rows[j].TotalRegistered {
			return rows[i].TotalRegistered > rows[j].TotalRegistered
		}
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
}

// Admin is the cross-facility dashboard.
type Admin struct {
	Summary
	Facilities []Row `json:"facilities"`
	LGAs       []Row `json:"lgas"`
}

// AdminDashboard assembles the admin view. Every known facility and LGA gets
// a row, including those without records in the period.
func AdminDashboard(in Input, facilities []*location.Facility, lgas []*location.LGA) Admin {
	cur, prior := in.Tallies()

	byFacility := GroupFold(in.Current, in.Now, func(r *patient.Record) uuid.UUID { return r.FacilityID })
	byLGA := GroupFold(in.Current, in.Now, func(r *patient.Record) uuid.UUID { return r.LGAID })

	facilityNames := make(map[uuid.UUID]string)
	lgaNames := make(map[uuid.UUID]string)
	facilityLGA := make(map[uuid.UUID]uuid.UUID)
	for _, l := range lgas {
		lgaNames[l.ID] = l.Name
	}
	for _, f := range facilities {
		facilityNames[f.ID] = f.Name
		facilityLGA[f.ID] = f.LGAID
	}
	for _, r := range in.Current {
		if _, ok := facilityNames[r.FacilityID]; !ok {
			facilityNames[r.FacilityID] = r.FacilityName
			facilityLGA[r.FacilityID] = r.LGAID
		}
		if _, ok := lgaNames[r.LGAID]; !ok {
			lgaNames[r.LGAID] = r.LGAName
		}
	}

	out := Admin{
		Summary:    Summarize(cur, prior),
		Facilities: make([]Row, 0, len(facilityNames)),
		LGAs:       make([]Row, 0, len(lgaNames)),
	}
	for id, name := range facilityNames {
		t := byFacility[id]
		if t == nil {
			t = &Tally{}
		}
		row := rowOf(id, name, t)
		row.LGAName = lgaNames[facilityLGA[id]]
		out.Facilities = append(out.Facilities, row)
	}
	for id, name := range lgaNames {
		t := byLGA[id]
		if t == nil {
			t = &Tally{}
		}
		out.LGAs = append(out.LGAs, rowOf(id, name, t))
	}
	sortRows(out.Facilities)
	sortRows(out.LGAs)
	return out
}

// AlertPatient is a record surfaced on a facility's follow-up lists.
type AlertPatient struct {
	ID             uuid.UUID  `json:"id"`
	UniqueCode     string     `json:"uniqueCode"`
	Name           string     `json:"name"`
	Age            *int       `json:"age,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	EDD            *time.Time `json:"edd,omitempty"`
	PregnancyMonth *int       `json:"pregnancyMonth,omitempty"`
	DeliveryDate   *time.Time `json:"deliveryDate,omitempty"`
}

// Alerts are the follow-up lists of a facility dashboard.
type Alerts struct {
	DueThisMonth  []AlertPatient `json:"dueThisMonth"`
	Overdue       []AlertPatient `json:"overdue"`
	HighRisk      []AlertPatient `json:"highRisk"`
	PNCIncomplete []AlertPatient `json:"pncIncomplete"`
}

func alertOf(r *patient.Record, now time.Time) AlertPatient {
	a := AlertPatient{
		ID:           r.ID,
		UniqueCode:   r.UniqueCode,
		Name:         r.Name,
		Age:          r.Age,
		Phone:        r.Phone,
		EDD:          r.EDD,
		DeliveryDate: r.Delivery.Date,
	}
	if m, ok := PregnancyMonth(r, now); ok {
		a.PregnancyMonth = &m
	}
	return a
}

// AlertsOf builds the follow-up lists from open records, earliest EDD first.
func AlertsOf(records []*patient.Record, now time.Time) Alerts {
	a := Alerts{
		DueThisMonth:  []AlertPatient{},
		Overdue:       []AlertPatient{},
		HighRisk:      []AlertPatient{},
		PNCIncomplete: []AlertPatient{},
	}
	for _, r := range records {
		if IsDueThisMonth(r, now) {
			a.DueThisMonth = append(a.DueThisMonth, alertOf(r, now))
		}
		if IsOverdue(r, now) {
			a.Overdue = append(a.Overdue, alertOf(r, now))
		}
		if IsHighRisk(r, now) {
			a.HighRisk = append(a.HighRisk, alertOf(r, now))
		}
		if IsPNCIncomplete(r) {
			a.PNCIncomplete = append(a.PNCIncomplete, alertOf(r, now))
		}
	}
	for _, list := range [][]AlertPatient{a.DueThisMonth, a.Overdue, a.HighRisk, a.PNCIncomplete} {
		sortAlerts(list)
	}
	return a
}

func sortAlerts(list []AlertPatient) {
	sort.SliceStable(list, func(i, j int) bool {
		ei, ej := list[i].EDD, list[j].EDD
		switch {
		case ei != nil && ej != nil && !ei.Equal(*ej):
			return ei.Before(*ej)
		case ei != nil && ej == nil:
			return true
		case ei == nil && ej != nil:
			return false
		}
		return list[i].Name < list[j].Name
	})
}

// Facility is a single facility's dashboard.
type Facility struct {
	Summary
	Alerts Alerts `json:"alerts"`
}

// FacilityDashboard assembles one facility's view. open holds every record of
// the facility regardless of period, for the follow-up lists.
func FacilityDashboard(in Input, open []*patient.Record) Facility {
	cur, prior := in.Tallies()
	return Facility{
		Summary: Summarize(cur, prior),
		Alerts:  AlertsOf(open, in.Now),
	}
}

// Page is the filtered statistics page.
type Page struct {
	Summary
	RegistrationsByMonth []ChartPoint `json:"registrationsByMonth"`
}

// StatisticsPage assembles the statistics page for the period [from, to).
func StatisticsPage(in Input, from, to time.Time) Page {
	cur, prior := in.Tallies()
	return Page{
		Summary:              Summarize(cur, prior),
		RegistrationsByMonth: registrationsByMonth(in.Current, from, to),
	}
}

// registrationsByMonth counts registrations per calendar month of [from, to),
// with a zero point for every empty month.
func registrationsByMonth(records []*patient.Record, from, to time.Time) []ChartPoint {
	const layout = "2006-01"
	counts := make(map[string]int)
	var order []string
	if !from.IsZero() && to.After(from) {
		for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); m.Before(to); m = m.AddDate(0, 1, 0) {
			key := m.Format(layout)
			counts[key] = 0
			order = append(order, key)
		}
	}
	for _, r := range records {
		counts[r.RegistrationDate.Format(layout)]++
	}
	return ToChart(counts, order)
}
