// Package export renders patient records as flat CSV and XLSX sheets with
// one row per patient and a fixed column order.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

const dateLayout = "2006-01-02"

type column struct {
	header string
	value  func(r *patient.Record) string
}

func yesNo(b bool) string {
	if b {
		return patient.Yes
	}
	return patient.No
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func amount(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func ancColumns(i int) []column {
	n := i + 1
	at := func(get func(v patient.ANCVisit) string) func(*patient.Record) string {
		return func(r *patient.Record) string { return get(r.ANCVisits[i]) }
	}
	h := func(name string) string { return fmt.Sprintf("ANC%d %s", n, name) }
	return []column{
		{h("Date"), at(func(v patient.ANCVisit) string { return date(v.Date) })},
		{h("Tracked Before"), at(func(v patient.ANCVisit) string { return yesNo(v.TrackedBefore) })},
		{h("Paid"), at(func(v patient.ANCVisit) string { return yesNo(v.Paid) })},
		{h("Payment Amount"), at(func(v patient.ANCVisit) string { return amount(v.PaymentAmount) })},
		{h("Urinalysis"), at(func(v patient.ANCVisit) string { return yesNo(v.Urinalysis) })},
		{h("Iron Folate"), at(func(v patient.ANCVisit) string { return yesNo(v.IronFolate) })},
		{h("MMS"), at(func(v patient.ANCVisit) string { return yesNo(v.MMS) })},
		{h("SP"), at(func(v patient.ANCVisit) string { return yesNo(v.SP) })},
		{h("SBA"), at(func(v patient.ANCVisit) string { return yesNo(v.SBA) })},
		{h("HIV Test"), at(func(v patient.ANCVisit) string { return str(v.HIVTest) })},
		{h("HIV Result Received"), at(func(v patient.ANCVisit) string { return yesNo(v.HIVResultReceived) })},
		{h("HIV Result"), at(func(v patient.ANCVisit) string { return str(v.HIVResult) })},
	}
}

func vaccineColumns(v immunization.Vaccine) []column {
	return []column{
		{v.Label + " Received", func(r *patient.Record) string { return yesNo(r.Vaccines.Received(v.Code)) }},
		{v.Label + " Date", func(r *patient.Record) string { return date(r.Vaccines.Date(v.Code)) }},
	}
}

var columns = func() []column {
	cols := []column{
		{"Unique Code", func(r *patient.Record) string { return r.UniqueCode }},
		{"Name", func(r *patient.Record) string { return r.Name }},
		{"Age", func(r *patient.Record) string { return num(r.Age) }},
		{"Literacy Status", func(r *patient.Record) string { return str(r.Literacy) }},
		{"Phone", func(r *patient.Record) string { return str(r.Phone) }},
		{"Community", func(r *patient.Record) string { return str(r.Community) }},
		{"Address", func(r *patient.Record) string { return str(r.Address) }},
		{"LGA", func(r *patient.Record) string { return r.LGAName }},
		{"Ward", func(r *patient.Record) string { return r.WardName }},
		{"Facility", func(r *patient.Record) string { return r.FacilityName }},
		{"Gravida", func(r *patient.Record) string { return num(r.Gravida) }},
		{"Parity", func(r *patient.Record) string { return num(r.Parity) }},
		{"Registration Date", func(r *patient.Record) string { return date(&r.RegistrationDate) }},
		{"EDD", func(r *patient.Record) string { return date(r.EDD) }},
	}
	for i := 0; i < patient.NumANCVisits; i++ {
		cols = append(cols, ancColumns(i)...)
	}
	cols = append(cols,
		column{"Additional ANC Count", func(r *patient.Record) string { return strconv.Itoa(r.AdditionalANCCount) }},
		column{"Place of Delivery", func(r *patient.Record) string { return str(r.Delivery.Place) }},
		column{"Delivery Kits Received", func(r *patient.Record) string { return yesNo(r.Delivery.KitsReceived) }},
		column{"Type of Delivery", func(r *patient.Record) string { return str(r.Delivery.Type) }},
		column{"Delivery Complications", func(r *patient.Record) string { return str(r.Delivery.Complication) }},
		column{"Delivery Outcome", func(r *patient.Record) string { return str(r.Delivery.Outcome) }},
		column{"Mother Alive", func(r *patient.Record) string { return str(r.Delivery.MotherAlive) }},
		column{"Mother Status", func(r *patient.Record) string { return str(r.Delivery.MotherStatus) }},
		column{"Date of Delivery", func(r *patient.Record) string { return date(r.Delivery.Date) }},
	)
	for i := 0; i < patient.NumPNCVisits; i++ {
		i := i
		cols = append(cols, column{fmt.Sprintf("PNC Visit %d", i+1), func(r *patient.Record) string { return date(r.PNCVisits[i]) }})
	}
	cols = append(cols,
		column{"Health Insurance Status", func(r *patient.Record) string { return str(r.Insurance.Status) }},
		column{"Insurance Type", func(r *patient.Record) string { return str(r.Insurance.Type) }},
		column{"Insurance Satisfaction", func(r *patient.Record) string { return str(r.Insurance.Satisfaction) }},
		column{"FP Using", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.Using) }},
		column{"FP Male Condom", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.MaleCondom) }},
		column{"FP Female Condom", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.FemaleCondom) }},
		column{"FP Pill", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.Pill) }},
		column{"FP Injectable", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.Injectable) }},
		column{"FP Implant", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.Implant) }},
		column{"FP IUD", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.IUD) }},
		column{"FP Other", func(r *patient.Record) string { return yesNo(r.FamilyPlanning.Other) }},
		column{"Child Name", func(r *patient.Record) string { return str(r.Child.Name) }},
		column{"Child DOB", func(r *patient.Record) string { return date(r.Child.DOB) }},
		column{"Child Sex", func(r *patient.Record) string { return str(r.Child.Sex) }},
	)
	for _, v := range immunization.Schedule {
		cols = append(cols, vaccineColumns(v)...)
	}
	return append(cols, column{"Notes", func(r *patient.Record) string { return str(r.Notes) }})
}()

// Headers returns the column titles in export order.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// Row renders r in export order. Booleans are "Yes" or "No"; absent values
// are empty.
func Row(r *patient.Record) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.value(r)
	}
	return out
}
