package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
)

const (
	NumANCVisits = 8
	NumPNCVisits = 3
)

// Categorical values as captured on the registration and visit forms.
const (
	Yes = "Yes"
	No  = "No"

	HIVPositive = "Positive"
	HIVNegative = "Negative"

	PlaceHealthFacility = "Health Facility"
	PlaceHome           = "Home"
	PlaceTBA            = "Traditional Birth Attendant"
	PlaceOther          = "Other"

	OutcomeLiveBirth   = "Live Birth"
	OutcomeStillbirth  = "Stillbirth"
	OutcomeMiscarriage = "Miscarriage"
)

// Record maps to the patient table: one pregnancy episode of one woman from
// registration through delivery, postnatal care and the child's first year.
type Record struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UniqueCode string    `db:"unique_code" json:"unique_code"`

	// Demographics
	Name      string  `db:"name" json:"name"`
	Age       *int    `db:"age" json:"age,omitempty"`
	Literacy  *string `db:"literacy_status" json:"literacy_status,omitempty"`
	Phone     *string `db:"phone" json:"phone,omitempty"`
	Community *string `db:"community" json:"community,omitempty"`
	Address   *string `db:"address" json:"address,omitempty"`

	// Location
	LGAID      uuid.UUID `db:"lga_id" json:"lga_id"`
	WardID     uuid.UUID `db:"ward_id" json:"ward_id"`
	FacilityID uuid.UUID `db:"facility_id" json:"facility_id"`

	// Pregnancy
	Gravida          *int       `db:"gravida" json:"gravida,omitempty"`
	Parity           *int       `db:"parity" json:"parity,omitempty"`
	RegistrationDate time.Time  `db:"registration_date" json:"registration_date"`
	EDD              *time.Time `db:"edd" json:"edd,omitempty"`

	ANCVisits          [NumANCVisits]ANCVisit `db:"anc_visits" json:"anc_visits"`
	AdditionalANCCount int                    `db:"additional_anc_count" json:"additional_anc_count"`

	Delivery       Delivery                 `json:"delivery"`
	PNCVisits      [NumPNCVisits]*time.Time `json:"pnc_visits"`
	Insurance      Insurance                `json:"insurance"`
	FamilyPlanning FamilyPlanning           `json:"family_planning"`
	Child          ChildInfo                `json:"child"`
	Vaccines       immunization.Doses       `db:"vaccines" json:"vaccines"`

	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Labels joined from the location tables on read.
	FacilityName string `json:"facility_name,omitempty"`
	WardName     string `json:"ward_name,omitempty"`
	LGAName      string `json:"lga_name,omitempty"`
}

// ANCVisit is one antenatal contact. A visit counts as attended when Date is set.
type ANCVisit struct {
	Date              *time.Time `json:"date,omitempty"`
	NextVisitDate     *time.Time `json:"next_visit_date,omitempty"`
	TrackedBefore     bool       `json:"tracked_before"`
	Paid              bool       `json:"paid"`
	PaymentAmount     *float64   `json:"payment_amount,omitempty"`
	Urinalysis        bool       `json:"urinalysis"`
	IronFolate        bool       `json:"iron_folate"`
	MMS               bool       `json:"mms"`
	SP                bool       `json:"sp"`
	SBA               bool       `json:"sba"`
	HIVTest           *string    `json:"hiv_test,omitempty"`
	HIVResultReceived bool       `json:"hiv_result_received"`
	HIVResult         *string    `json:"hiv_result,omitempty"`
}

type Delivery struct {
	Place        *string    `db:"place_of_delivery" json:"place,omitempty"`
	KitsReceived bool       `db:"delivery_kits_received" json:"kits_received"`
	Type         *string    `db:"type_of_delivery" json:"type,omitempty"`
	Complication *string    `db:"delivery_complications" json:"complication,omitempty"`
	Outcome      *string    `db:"delivery_outcome" json:"outcome,omitempty"`
	MotherAlive  *string    `db:"mother_alive" json:"mother_alive,omitempty"`
	MotherStatus *string    `db:"mother_status" json:"mother_status,omitempty"`
	Date         *time.Time `db:"date_of_delivery" json:"date,omitempty"`
}

type Insurance struct {
	Status       *string `db:"health_insurance_status" json:"status,omitempty"`
	Type         *string `db:"insurance_type" json:"type,omitempty"`
	Satisfaction *string `db:"insurance_satisfaction" json:"satisfaction,omitempty"`
}

type FamilyPlanning struct {
	Using        bool `db:"fp_using" json:"using"`
	MaleCondom   bool `db:"fp_male_condom" json:"male_condom"`
	FemaleCondom bool `db:"fp_female_condom" json:"female_condom"`
	Pill         bool `db:"fp_pill" json:"pill"`
	Injectable   bool `db:"fp_injectable" json:"injectable"`
	Implant      bool `db:"fp_implant" json:"implant"`
	IUD          bool `db:"fp_iud" json:"iud"`
	Other        bool `db:"fp_other" json:"other"`
}

type ChildInfo struct {
	Name *string    `db:"child_name" json:"name,omitempty"`
	DOB  *time.Time `db:"child_dob" json:"dob,omitempty"`
	Sex  *string    `db:"child_sex" json:"sex,omitempty"`
}

// Filter narrows record queries. Nil fields are unconstrained. Registration
// bounds are half open: From <= registration_date < To.
type Filter struct {
	LGAID          *uuid.UUID
	WardID         *uuid.UUID
	FacilityID     *uuid.UUID
	RegisteredFrom *time.Time
	RegisteredTo   *time.Time
	Search         string
}

// Actor is the caller as the patient service sees it.
type Actor interface {
	FacilityScope() *uuid.UUID
	OwnsFacility(facilityID uuid.UUID) bool
	CanEditAcrossFacilities() bool
	IsAdmin() bool
}
