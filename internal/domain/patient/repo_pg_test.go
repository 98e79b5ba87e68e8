package patient

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWhere_Empty(t *testing.T) {
	cond, args := where(Filter{})
	if cond != "" || args != nil {
		t.Errorf("expected empty clause, got %q %v", cond, args)
	}
}

func TestWhere_AllFilters(t *testing.T) {
	lga, ward, fac := uuid.New(), uuid.New(), uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	cond, args := where(Filter{
		LGAID: &lga, WardID: &ward, FacilityID: &fac,
		RegisteredFrom: &from, RegisteredTo: &to, Search: " amina ",
	})

	want := " WHERE p.lga_id = $1 AND p.ward_id = $2 AND p.facility_id = $3" +
		" AND p.registration_date >= $4 AND p.registration_date < $5" +
		" AND (p.name ILIKE $6 OR p.unique_code ILIKE $6)"
	if cond != want {
		t.Errorf("unexpected clause:\n got %s\nwant %s", cond, want)
	}
	if len(args) != 6 {
		t.Fatalf("expected 6 args, got %d", len(args))
	}
	if args[5] != "%amina%" {
		t.Errorf("expected trimmed search pattern, got %v", args[5])
	}
}

func TestEncodeJSONB_NilVaccines(t *testing.T) {
	anc, vaccines, err := encodeJSONB(&Record{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(vaccines) != "{}" {
		t.Errorf("expected empty object for nil vaccines, got %s", vaccines)
	}
	if len(anc) == 0 || anc[0] != '[' {
		t.Errorf("expected a JSON array for visits, got %s", anc)
	}
}
