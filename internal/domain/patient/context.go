package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Care locations for a clinical presentation.
const (
	CareLocationCommunity = "community"
	CareLocationHospital  = "hospital"
)

// Allergy is a known allergy inside a Context snapshot.
type Allergy struct {
	Allergen string `json:"allergen"`
	Severity string `json:"severity"`
}

// Condition is an active diagnosis inside a Context snapshot.
type Condition struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CurrentMedication is a medication the patient is already taking.
type CurrentMedication struct {
	MedicationID uuid.UUID `json:"medication_id"`
	GenericName  string    `json:"generic_name"`
}

// Context is an immutable snapshot of a patient's clinical state, built fresh
// per evaluation. Age is always recomputed from the birth date, never stored.
// The evaluation engines read the snapshot and never mutate it.
type Context struct {
	PatientID          uuid.UUID           `json:"patient_id"`
	Age                int                 `json:"age"`
	WeightKG           *float64            `json:"weight_kg,omitempty"`
	BodySurfaceArea    *float64            `json:"body_surface_area,omitempty"`
	Gender             string              `json:"gender"`
	IsPregnant         bool                `json:"is_pregnant"`
	IsLactating        bool                `json:"is_lactating"`
	EGFR               *float64            `json:"egfr,omitempty"`
	HepaticFunction    string              `json:"hepatic_function,omitempty"`
	Allergies          []Allergy           `json:"allergies"`
	Conditions         []Condition         `json:"conditions"`
	CurrentMedications []CurrentMedication `json:"current_medications"`
}

// Validate checks the snapshot invariants.
func (c *Context) Validate() error {
	if c.Age < 0 {
		return fmt.Errorf("age must be non-negative, got %d", c.Age)
	}
	if c.EGFR != nil && (*c.EGFR < 0 || *c.EGFR > 200) {
		return fmt.Errorf("egfr must be in [0,200], got %g", *c.EGFR)
	}
	return nil
}

// ClinicalContext describes the presentation that triggers a recommendation
// request. Constructed per request; immutable.
type ClinicalContext struct {
	Diagnosis      string `json:"diagnosis"`
	DiagnosisCode  string `json:"diagnosis_code,omitempty"`
	Severity       string `json:"severity,omitempty"`
	CareLocation   string `json:"care_location,omitempty"`
	CultureResults string `json:"culture_results,omitempty"`
}

// AgeAt returns whole years elapsed between birth and the reference time.
func AgeAt(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
