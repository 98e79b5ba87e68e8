// Package stats is the aggregation engine behind every dashboard: pure folds
// over materialised patient and child records. Nothing here performs I/O or
// reads the wall clock; "now" is always passed in.
package stats

import (
	"strings"

	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

// Service is one of the five services that can be given at an ANC visit.
type Service int

const (
	Urinalysis Service = iota
	IronFolate
	MMS
	SP
	SBA
	numServices
)

// Services lists every ANC service in report order.
var Services = [numServices]Service{Urinalysis, IronFolate, MMS, SP, SBA}

var serviceKeys = [numServices]string{"urinalysis", "ironFolate", "mms", "sp", "sba"}

func (s Service) Key() string { return serviceKeys[s] }

var serviceFields = [numServices]func(patient.ANCVisit) bool{
	func(v patient.ANCVisit) bool { return v.Urinalysis },
	func(v patient.ANCVisit) bool { return v.IronFolate },
	func(v patient.ANCVisit) bool { return v.MMS },
	func(v patient.ANCVisit) bool { return v.SP },
	func(v patient.ANCVisit) bool { return v.SBA },
}

// visit returns the 1-based ANC visit, or false when the index is out of range.
func visit(r *patient.Record, n int) (patient.ANCVisit, bool) {
	if n < 1 || n > patient.NumANCVisits {
		return patient.ANCVisit{}, false
	}
	return r.ANCVisits[n-1], true
}

// HasCompletedVisit reports whether ANC visit n (1..8) has a date.
func HasCompletedVisit(r *patient.Record, n int) bool {
	v, ok := visit(r, n)
	return ok && v.Date != nil && !v.Date.IsZero()
}

// HasService reports whether svc was given at ANC visit n.
func HasService(r *patient.Record, n int, svc Service) bool {
	v, ok := visit(r, n)
	if !ok || svc < 0 || svc >= numServices {
		return false
	}
	return serviceFields[svc](v)
}

// HIVOutcome is the HIV testing state recorded at one visit.
type HIVOutcome struct {
	Tested         bool
	ResultReceived bool
	Result         string
}

// ResolveHIVOutcome reads the HIV fields of ANC visit n.
func ResolveHIVOutcome(r *patient.Record, n int) HIVOutcome {
	v, ok := visit(r, n)
	if !ok {
		return HIVOutcome{}
	}
	return HIVOutcome{
		Tested:         value(v.HIVTest) == patient.Yes,
		ResultReceived: v.HIVResultReceived,
		Result:         value(v.HIVResult),
	}
}

// FPMethod is one family-planning method flag.
type FPMethod struct {
	Name string
	Uses func(patient.FamilyPlanning) bool
}

const numFPMethods = 7

// FPMethods lists the tracked methods in report and export order.
var FPMethods = [numFPMethods]FPMethod{
	{"Male Condom", func(f patient.FamilyPlanning) bool { return f.MaleCondom }},
	{"Female Condom", func(f patient.FamilyPlanning) bool { return f.FemaleCondom }},
	{"Pill", func(f patient.FamilyPlanning) bool { return f.Pill }},
	{"Injectable", func(f patient.FamilyPlanning) bool { return f.Injectable }},
	{"Implant", func(f patient.FamilyPlanning) bool { return f.Implant }},
	{"IUD", func(f patient.FamilyPlanning) bool { return f.IUD }},
	{"Other", func(f patient.FamilyPlanning) bool { return f.Other }},
}

// value trims an optional string; nil reads as "".
func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
