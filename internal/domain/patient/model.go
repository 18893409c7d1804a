package patient

import (
	"time"

	"github.com/google/uuid"
)

// Allergy severities, least to most serious.
const (
	AllergySeverityMild            = "mild"
	AllergySeverityModerate        = "moderate"
	AllergySeveritySevere          = "severe"
	AllergySeverityLifeThreatening = "life-threatening"
)

// Hepatic function grades.
const (
	HepaticNormal   = "normal"
	HepaticMild     = "mild"
	HepaticModerate = "moderate"
	HepaticSevere   = "severe"
)

// Patient maps to the patient table.
type Patient struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	MRN             string     `db:"mrn" json:"mrn"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	BirthDate       time.Time  `db:"birth_date" json:"birth_date"`
	Gender          string     `db:"gender" json:"gender"`
	WeightKG        *float64   `db:"weight_kg" json:"weight_kg,omitempty"`
	BodySurfaceArea *float64   `db:"body_surface_area" json:"body_surface_area,omitempty"`
	IsPregnant      bool       `db:"is_pregnant" json:"is_pregnant"`
	IsLactating     bool       `db:"is_lactating" json:"is_lactating"`
	EGFR            *float64   `db:"egfr" json:"egfr,omitempty"`
	HepaticFunction *string    `db:"hepatic_function" json:"hepatic_function,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// PatientAllergy maps to the patient_allergy table.
type PatientAllergy struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Allergen   string    `db:"allergen" json:"allergen"`
	Severity   string    `db:"severity" json:"severity"`
	Reaction   *string   `db:"reaction" json:"reaction,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// PatientCondition maps to the patient_condition table.
type PatientCondition struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DiagnosisCode string     `db:"diagnosis_code" json:"diagnosis_code"`
	DiagnosisName string     `db:"diagnosis_name" json:"diagnosis_name"`
	Active        bool       `db:"active" json:"active"`
	OnsetDate     *time.Time `db:"onset_date" json:"onset_date,omitempty"`
	RecordedAt    time.Time  `db:"recorded_at" json:"recorded_at"`
}

// PatientMedication maps to the patient_medication table. It records the
// medications a patient is currently taking.
type PatientMedication struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	MedicationID uuid.UUID  `db:"medication_id" json:"medication_id"`
	GenericName  string     `db:"generic_name" json:"generic_name"`
	Dose         *string    `db:"dose" json:"dose,omitempty"`
	Active       bool       `db:"active" json:"active"`
	StartedAt    *time.Time `db:"started_at" json:"started_at,omitempty"`
	StoppedAt    *time.Time `db:"stopped_at" json:"stopped_at,omitempty"`
	RecordedAt   time.Time  `db:"recorded_at" json:"recorded_at"`
}
