package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

var now = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func daysFromNow(d int) *time.Time {
	t := now.AddDate(0, 0, d)
	return &t
}

type opt func(*patient.Record)

func rec(opts ...opt) *patient.Record {
	r := &patient.Record{
		ID:               uuid.New(),
		Name:             "Test Mother",
		RegistrationDate: now.AddDate(0, -1, 0),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func withAge(a int) opt { return func(r *patient.Record) { r.Age = &a } }

func withVisits(ns ...int) opt {
	return func(r *patient.Record) {
		for _, n := range ns {
			r.ANCVisits[n-1].Date = daysFromNow(-7 * (9 - n))
		}
	}
}

func withHIV(n int, received bool, result string) opt {
	return func(r *patient.Record) {
		v := &r.ANCVisits[n-1]
		v.HIVTest = ptr(patient.Yes)
		v.HIVResultReceived = received
		if result != "" {
			v.HIVResult = ptr(result)
		}
	}
}

func delivered(place, outcome string) opt {
	return func(r *patient.Record) {
		r.Delivery.Date = daysFromNow(-3)
		if place != "" {
			r.Delivery.Place = ptr(place)
		}
		if outcome != "" {
			r.Delivery.Outcome = ptr(outcome)
		}
	}
}

func withEDD(days int) opt { return func(r *patient.Record) { r.EDD = daysFromNow(days) } }

func withFacility(id uuid.UUID) opt {
	return func(r *patient.Record) { r.FacilityID = id }
}

func withChild(vaccines ...string) opt {
	return func(r *patient.Record) {
		r.Child.DOB = daysFromNow(-60)
		r.Vaccines = immunization.Doses{}
		for _, code := range vaccines {
			r.Vaccines[code] = immunization.Dose{Received: true}
		}
	}
}
