package immunization

import (
	"testing"
	"time"
)

func TestSchedule_TwentyOneUniqueCodes(t *testing.T) {
	if len(Schedule) != 21 {
		t.Fatalf("expected 21 vaccines, got %d", len(Schedule))
	}
	seen := make(map[string]bool)
	for _, v := range Schedule {
		if seen[v.Code] {
			t.Errorf("duplicate code %s", v.Code)
		}
		seen[v.Code] = true
		if got, ok := Lookup(v.Code); !ok || got.Label != v.Label {
			t.Errorf("Lookup(%s) = %+v, %v", v.Code, got, ok)
		}
	}
}

func TestDoses_Received(t *testing.T) {
	d := Doses{"bcg": {Received: true}}
	if !d.Received("bcg") {
		t.Error("expected bcg received")
	}
	if d.Received("opv0") {
		t.Error("absent code should read as not received")
	}
	var nilDoses Doses
	if nilDoses.Received("bcg") {
		t.Error("nil doses should read as not received")
	}
}

func TestDoses_FullyImmunized(t *testing.T) {
	d := Doses{}
	for _, v := range Schedule {
		if v.Basic {
			d[v.Code] = Dose{Received: true}
		}
	}
	if !d.FullyImmunized() {
		t.Error("all basic doses should be fully immunized")
	}
	delete(d, "measles1")
	if d.FullyImmunized() {
		t.Error("missing measles1 should not be fully immunized")
	}
}

func TestDoses_Validate(t *testing.T) {
	now := time.Now()
	if err := (Doses{"bcg": {Received: true, Date: &now}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Doses{"smallpox": {Received: true}}).Validate(); err == nil {
		t.Error("expected unknown code error")
	}
	if err := (Doses{"bcg": {Date: &now}}).Validate(); err == nil {
		t.Error("expected error for dated dose not marked received")
	}
}
