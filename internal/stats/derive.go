package stats

import (
	"math"
	"time"

	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

const (
	daysPerMonth   = 30.44
	fullTermMonths = 9
)

// day truncates t to its calendar date in t's location, expressed in UTC so
// that differences are whole days.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(day(to).Sub(day(from)).Hours() / 24))
}

// Delivered reports whether the pregnancy has ended: a delivery date or an
// outcome is recorded.
func Delivered(r *patient.Record) bool {
	return r.Delivery.Date != nil || value(r.Delivery.Outcome) != ""
}

// PregnancyMonth estimates the current month of pregnancy (1..9) from the EDD
// using an average month length. It saturates at 9 once the EDD is reached.
// ok is false when there is no EDD or the woman has delivered.
func PregnancyMonth(r *patient.Record, now time.Time) (month int, ok bool) {
	if r.EDD == nil || Delivered(r) {
		return 0, false
	}
	daysToEDD := daysBetween(now, *r.EDD)
	if daysToEDD <= 0 {
		return fullTermMonths, true
	}
	remaining := int(math.Floor(float64(daysToEDD) / daysPerMonth))
	month = fullTermMonths - remaining
	if month < 1 {
		month = 1
	}
	return month, true
}

// IsDueThisMonth reports an undelivered pregnancy whose EDD falls in now's
// calendar month.
func IsDueThisMonth(r *patient.Record, now time.Time) bool {
	if r.EDD == nil || Delivered(r) {
		return false
	}
	return r.EDD.Year() == now.Year() && r.EDD.Month() == now.Month()
}

// IsOverdue reports an undelivered pregnancy whose EDD is before today.
func IsOverdue(r *patient.Record, now time.Time) bool {
	if r.EDD == nil || Delivered(r) {
		return false
	}
	return daysBetween(now, *r.EDD) < 0
}

// HasPositiveHIV reports a received positive result at any visit.
func HasPositiveHIV(r *patient.Record) bool {
	for n := 1; n <= patient.NumANCVisits; n++ {
		o := ResolveHIVOutcome(r, n)
		if o.Tested && o.ResultReceived && o.Result == patient.HIVPositive {
			return true
		}
	}
	return false
}

// IsHighRisk flags undelivered pregnancies where the mother is under 18 or
// over 35, is 18 or 35 and in months 7 to 9, has had more than five
// pregnancies, or has tested HIV positive.
func IsHighRisk(r *patient.Record, now time.Time) bool {
	if Delivered(r) {
		return false
	}
	if r.Age != nil {
		age := *r.Age
		if age < 18 || age > 35 {
			return true
		}
		if month, ok := PregnancyMonth(r, now); ok && (age >= 35 || age <= 18) && month >= 7 {
			return true
		}
	}
	if r.Gravida != nil && *r.Gravida > 5 {
		return true
	}
	return HasPositiveHIV(r)
}

// IsPNCIncomplete reports a delivered woman missing any of the three PNC visits.
func IsPNCIncomplete(r *patient.Record) bool {
	if !Delivered(r) {
		return false
	}
	for _, d := range r.PNCVisits {
		if d == nil {
			return true
		}
	}
	return false
}
