package child

import (
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
)

// MUAC-derived nutrition status.
const (
	StatusSAM    = "SAM"
	StatusMAM    = "MAM"
	StatusNormal = "Normal"
)

// MUAC cut-offs in centimetres.
const (
	samBelowCM = 11.5
	mamBelowCM = 12.5
)

// Record maps to the child table. PatientID links the mother's record when
// the child was born to a registered pregnancy.
type Record struct {
	ID         uuid.UUID          `db:"id" json:"id"`
	PatientID  *uuid.UUID         `db:"patient_id" json:"patient_id,omitempty"`
	LGAID      uuid.UUID          `db:"lga_id" json:"lga_id"`
	WardID     uuid.UUID          `db:"ward_id" json:"ward_id"`
	FacilityID uuid.UUID          `db:"facility_id" json:"facility_id"`
	Name       string             `db:"name" json:"name"`
	DOB        *time.Time         `db:"dob" json:"dob,omitempty"`
	Sex        *string            `db:"sex" json:"sex,omitempty"`
	Vaccines   immunization.Doses `db:"vaccines" json:"vaccines"`
	Notes      *string            `db:"notes" json:"notes,omitempty"`
	CreatedBy  *string            `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`

	FacilityName string `json:"facility_name,omitempty"`
}

// NutritionLogEntry maps to the nutrition_log table: one growth-monitoring visit.
type NutritionLogEntry struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	ChildID             uuid.UUID `db:"child_id" json:"child_id"`
	VisitDate           time.Time `db:"visit_date" json:"visit_date"`
	WeightKG            *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightCM            *float64  `db:"height_cm" json:"height_cm,omitempty"`
	MUACCM              *float64  `db:"muac_cm" json:"muac_cm,omitempty"`
	Status              *string   `db:"status" json:"status,omitempty"`
	VitaminA            bool      `db:"vitamin_a" json:"vitamin_a"`
	Deworming           bool      `db:"deworming" json:"deworming"`
	MicronutrientPowder bool      `db:"micronutrient_powder" json:"micronutrient_powder"`
	Referred            bool      `db:"referred" json:"referred"`
	Notes               *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// ClassifyMUAC maps a mid-upper arm circumference to SAM, MAM or Normal.
func ClassifyMUAC(cm float64) string {
	switch {
	case cm < samBelowCM:
		return StatusSAM
	case cm < mamBelowCM:
		return StatusMAM
	default:
		return StatusNormal
	}
}

// Derive sets Status from the MUAC reading; entries without one carry no status.
func (e *NutritionLogEntry) Derive() {
	if e.MUACCM == nil {
		e.Status = nil
		return
	}
	s := ClassifyMUAC(*e.MUACCM)
	e.Status = &s
}

// Filter narrows child queries. Registration bounds apply to created_at and
// are half open.
type Filter struct {
	LGAID          *uuid.UUID
	WardID         *uuid.UUID
	FacilityID     *uuid.UUID
	RegisteredFrom *time.Time
	RegisteredTo   *time.Time
	Search         string
}

// Actor is the caller as the child service sees it.
type Actor interface {
	FacilityScope() *uuid.UUID
	OwnsFacility(facilityID uuid.UUID) bool
	CanEditAcrossFacilities() bool
	IsAdmin() bool
}
