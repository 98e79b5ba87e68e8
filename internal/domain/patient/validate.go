package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
)

var (
	validLiteracy = map[string]bool{"Literate": true, "Semi-literate": true, "Illiterate": true}
	validYesNo    = map[string]bool{Yes: true, No: true}
	validHIV      = map[string]bool{HIVPositive: true, HIVNegative: true}
	validSex      = map[string]bool{"Male": true, "Female": true}

	// Older forms recorded the facility kind rather than "Health Facility";
	// they are still accepted and normalised when aggregated.
	validPlaces = map[string]bool{
		PlaceHealthFacility: true, PlaceHome: true, PlaceTBA: true, PlaceOther: true,
		"Hospital": true, "PHC": true, "Clinic": true, "TBA": true,
	}
	validDeliveryTypes = map[string]bool{"Normal": true, "Assisted": true, "Caesarean Section": true}
	validOutcomes      = map[string]bool{OutcomeLiveBirth: true, OutcomeStillbirth: true, OutcomeMiscarriage: true}
)

const (
	minAge = 10
	maxAge = 60
)

func checkEnum(v *apperr.ValidationError, field string, value *string, allowed map[string]bool) {
	if value != nil && *value != "" && !allowed[*value] {
		v.Add(field, "invalid value %q", *value)
	}
}

func validateDemographics(v *apperr.ValidationError, r *Record, now time.Time) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		v.Add("name", "is required")
	}
	if r.Age == nil {
		v.Add("age", "is required")
	} else if *r.Age < minAge || *r.Age > maxAge {
		v.Add("age", "must be between %d and %d", minAge, maxAge)
	}
	checkEnum(v, "literacy_status", r.Literacy, validLiteracy)
	if r.FacilityID == uuid.Nil {
		v.Add("facility_id", "is required")
	}
	if r.RegistrationDate.IsZero() {
		v.Add("registration_date", "is required")
	} else if r.RegistrationDate.After(now) {
		v.Add("registration_date", "cannot be in the future")
	}
	if r.EDD != nil && !r.RegistrationDate.IsZero() && !r.EDD.After(r.RegistrationDate) {
		v.Add("edd", "must be after the registration date")
	}
	if r.Gravida != nil && *r.Gravida < 0 {
		v.Add("gravida", "cannot be negative")
	}
	if r.Parity != nil && *r.Parity < 0 {
		v.Add("parity", "cannot be negative")
	}
	if r.Gravida != nil && r.Parity != nil && *r.Parity > *r.Gravida {
		v.Add("parity", "cannot exceed gravida")
	}
}

func validateClinical(v *apperr.ValidationError, r *Record) {
	for i, visit := range r.ANCVisits {
		validateVisit(v, i+1, visit)
	}
	if r.AdditionalANCCount < 0 {
		v.Add("additional_anc_count", "cannot be negative")
	}

	checkEnum(v, "delivery.place", r.Delivery.Place, validPlaces)
	checkEnum(v, "delivery.type", r.Delivery.Type, validDeliveryTypes)
	checkEnum(v, "delivery.outcome", r.Delivery.Outcome, validOutcomes)
	checkEnum(v, "delivery.mother_alive", r.Delivery.MotherAlive, validYesNo)

	for i, d := range r.PNCVisits {
		if d != nil && r.Delivery.Date != nil && d.Before(*r.Delivery.Date) {
			v.Add(fmt.Sprintf("pnc_visits[%d]", i), "cannot precede the delivery date")
		}
	}

	checkEnum(v, "insurance.status", r.Insurance.Status, validYesNo)
	if r.Insurance.Type != nil && *r.Insurance.Type != "" &&
		(r.Insurance.Status == nil || *r.Insurance.Status != Yes) {
		v.Add("insurance.type", "requires insurance status %q", Yes)
	}

	fp := r.FamilyPlanning
	if !fp.Using && (fp.MaleCondom || fp.FemaleCondom || fp.Pill || fp.Injectable || fp.Implant || fp.IUD || fp.Other) {
		v.Add("family_planning", "methods require using to be set")
	}

	checkEnum(v, "child.sex", r.Child.Sex, validSex)
	if err := r.Vaccines.Validate(); err != nil {
		v.Add("vaccines", "%s", err.Error())
	}
}

func validateVisit(v *apperr.ValidationError, n int, visit ANCVisit) {
	field := func(name string) string { return fmt.Sprintf("anc_visits[%d].%s", n, name) }

	checkEnum(v, field("hiv_test"), visit.HIVTest, validYesNo)
	checkEnum(v, field("hiv_result"), visit.HIVResult, validHIV)

	tested := visit.HIVTest != nil && *visit.HIVTest == Yes
	if visit.HIVResultReceived && !tested {
		v.Add(field("hiv_result_received"), "requires hiv_test %q", Yes)
	}
	if visit.HIVResult != nil && *visit.HIVResult != "" && !visit.HIVResultReceived {
		v.Add(field("hiv_result"), "requires hiv_result_received")
	}
	if visit.PaymentAmount != nil {
		if !visit.Paid {
			v.Add(field("payment_amount"), "requires paid")
		} else if *visit.PaymentAmount < 0 {
			v.Add(field("payment_amount"), "cannot be negative")
		}
	}
	if visit.Date != nil && visit.NextVisitDate != nil && visit.NextVisitDate.Before(*visit.Date) {
		v.Add(field("next_visit_date"), "cannot precede the visit date")
	}
}
