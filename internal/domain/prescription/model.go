package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/rxguard/rxguard/internal/domain/safety"
)

// Prescription statuses.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

type Prescription struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PatientID    uuid.UUID `json:"patient_id" db:"patient_id"`
	PrescriberID string    `json:"prescriber_id" db:"prescriber_id"`
	Status       string    `json:"status" db:"status"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Items  []*PrescriptionItem  `json:"items,omitempty" db:"-"`
	Alerts []*PrescriptionAlert `json:"alerts,omitempty" db:"-"`
}

type PrescriptionItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PrescriptionID uuid.UUID `json:"prescription_id" db:"prescription_id"`
	MedicationID   uuid.UUID `json:"medication_id" db:"medication_id"`
	Dose           string    `json:"dose" db:"dose"`
	Frequency      *string   `json:"frequency,omitempty" db:"frequency"`
	Route          *string   `json:"route,omitempty" db:"route"`
	Duration       *string   `json:"duration,omitempty" db:"duration"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// PrescriptionAlert is the persisted record of a safety finding at the time
// the prescription was written, including whether the prescriber overrode it.
type PrescriptionAlert struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	PrescriptionID        uuid.UUID `json:"prescription_id" db:"prescription_id"`
	HazardType            string    `json:"hazard_type" db:"hazard_type"`
	Severity              string    `json:"severity" db:"severity"`
	Message               string    `json:"message" db:"message"`
	Rationale             *string   `json:"rationale,omitempty" db:"rationale"`
	Overridden            bool      `json:"overridden" db:"overridden"`
	OverrideJustification *string   `json:"override_justification,omitempty" db:"override_justification"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

func alertFromFinding(a safety.Alert) *PrescriptionAlert {
	pa := &PrescriptionAlert{
		HazardType: a.HazardType,
		Severity:   a.Severity,
		Message:    a.Message,
	}
	if a.Rationale != "" {
		rationale := a.Rationale
		pa.Rationale = &rationale
	}
	return pa
}
