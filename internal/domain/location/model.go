package location

import (
	"time"

	"github.com/google/uuid"
)

// LGA maps to the lga table (local government area).
type LGA struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Ward maps to the ward table. PatientSerial is the last serial handed out
// for unique codes in this ward.
type Ward struct {
	ID            uuid.UUID `db:"id" json:"id"`
	LGAID         uuid.UUID `db:"lga_id" json:"lga_id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	PatientSerial int       `db:"patient_serial" json:"patient_serial"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Facility maps to the facility table. LGAID is copied from the ward.
type Facility struct {
	ID        uuid.UUID `db:"id" json:"id"`
	WardID    uuid.UUID `db:"ward_id" json:"ward_id"`
	LGAID     uuid.UUID `db:"lga_id" json:"lga_id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Serial is a freshly allocated patient serial with the codes that prefix it.
type Serial struct {
	LGACode  string
	WardCode string
	Number   int
}
