package formulary

import (
	"time"

	"github.com/google/uuid"
)

// AWaRe categories per the WHO antibiotic stewardship classification.
const (
	AWaReAccess        = "access"
	AWaReWatch         = "watch"
	AWaReReserve       = "reserve"
	AWaReNotApplicable = "not-applicable"
)

// Interaction severities, least to most serious.
const (
	SeverityMinor           = "minor"
	SeverityModerate        = "moderate"
	SeverityMajor           = "major"
	SeverityContraindicated = "contraindicated"
)

// Medication maps to the medication table.
type Medication struct {
	ID               uuid.UUID `db:"id" json:"id"`
	GenericName      string    `db:"generic_name" json:"generic_name"`
	BrandName        *string   `db:"brand_name" json:"brand_name,omitempty"`
	ATCCode          *string   `db:"atc_code" json:"atc_code,omitempty"`
	AWaReCategory    string    `db:"aware_category" json:"aware_category"`
	IsAntibiotic     bool      `db:"is_antibiotic" json:"is_antibiotic"`
	TherapeuticClass *string   `db:"therapeutic_class" json:"therapeutic_class,omitempty"`
	DosageForm       *string   `db:"dosage_form" json:"dosage_form,omitempty"`
	Strength         *string   `db:"strength" json:"strength,omitempty"`
	Route            *string   `db:"route" json:"route,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DrugInteraction maps to the drug_interaction table. The medication pair is
// unordered: a lookup must match either ordering of the two ids.
type DrugInteraction struct {
	ID            uuid.UUID `db:"id" json:"id"`
	MedicationAID uuid.UUID `db:"medication_a_id" json:"medication_a_id"`
	MedicationBID uuid.UUID `db:"medication_b_id" json:"medication_b_id"`
	Severity      string    `db:"severity" json:"severity"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Management    *string   `db:"management" json:"management,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
