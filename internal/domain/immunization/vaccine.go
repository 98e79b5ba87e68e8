package immunization

import (
	"fmt"
	"time"
)

// Vaccine is one antigen dose in the routine childhood schedule.
type Vaccine struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	// Basic doses make up "fully immunized" at twelve months.
	Basic bool `json:"basic"`
}

// NumVaccines is the number of doses in Schedule.
const NumVaccines = 21

// Schedule lists the tracked doses in the order they are given and exported.
var Schedule = [NumVaccines]Vaccine{
	{Code: "bcg", Label: "BCG", Basic: true},
	{Code: "hep0", Label: "Hepatitis B 0", Basic: true},
	{Code: "opv0", Label: "OPV 0", Basic: true},
	{Code: "opv1", Label: "OPV 1", Basic: true},
	{Code: "opv2", Label: "OPV 2", Basic: true},
	{Code: "opv3", Label: "OPV 3", Basic: true},
	{Code: "penta1", Label: "Pentavalent 1", Basic: true},
	{Code: "penta2", Label: "Pentavalent 2", Basic: true},
	{Code: "penta3", Label: "Pentavalent 3", Basic: true},
	{Code: "pcv1", Label: "PCV 1", Basic: true},
	{Code: "pcv2", Label: "PCV 2", Basic: true},
	{Code: "pcv3", Label: "PCV 3", Basic: true},
	{Code: "ipv1", Label: "IPV 1", Basic: true},
	{Code: "ipv2", Label: "IPV 2"},
	{Code: "rota1", Label: "Rotavirus 1", Basic: true},
	{Code: "rota2", Label: "Rotavirus 2", Basic: true},
	{Code: "rota3", Label: "Rotavirus 3", Basic: true},
	{Code: "measles1", Label: "Measles 1", Basic: true},
	{Code: "measles2", Label: "Measles 2"},
	{Code: "yellow_fever", Label: "Yellow Fever", Basic: true},
	{Code: "mena", Label: "Meningitis A"},
}

var byCode = func() map[string]Vaccine {
	m := make(map[string]Vaccine, len(Schedule))
	for _, v := range Schedule {
		m[v.Code] = v
	}
	return m
}()

// Lookup returns the vaccine for code.
func Lookup(code string) (Vaccine, bool) {
	v, ok := byCode[code]
	return v, ok
}

// Dose records whether a vaccine was given and when.
type Dose struct {
	Received bool       `json:"received"`
	Date     *time.Time `json:"date,omitempty"`
}

// Doses is keyed by vaccine code. Absent codes mean "not given".
type Doses map[string]Dose

func (d Doses) Received(code string) bool {
	return d[code].Received
}

func (d Doses) Date(code string) *time.Time {
	return d[code].Date
}

// FullyImmunized reports whether every basic dose was received.
func (d Doses) FullyImmunized() bool {
	for _, v := range Schedule {
		if v.Basic && !d.Received(v.Code) {
			return false
		}
	}
	return true
}

// Validate rejects unknown codes and dates on doses not marked received.
func (d Doses) Validate() error {
	for code, dose := range d {
		if _, ok := byCode[code]; !ok {
			return fmt.Errorf("unknown vaccine %q", code)
		}
		if dose.Date != nil && !dose.Received {
			return fmt.Errorf("vaccine %q has a date but is not marked received", code)
		}
	}
	return nil
}
