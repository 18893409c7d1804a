package safety

import (
	"github.com/google/uuid"
)

// Hazard categories, in the fixed order the checks run.
const (
	HazardAllergy          = "allergy"
	HazardInteraction      = "drug-interaction"
	HazardContraindication = "contraindication"
	HazardDuplicateTherapy = "duplicate-therapy"
	HazardDoseRange        = "dose-range"
	HazardOrganFunction    = "organ-function"
	HazardPregnancy        = "pregnancy-lactation"
	HazardAge              = "age-specific"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is a single hazard finding. Ephemeral: persisting alerts against a
// prescription is the orchestrator's job.
type Alert struct {
	HazardType     string `json:"hazard_type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Rationale      string `json:"rationale,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	CanOverride    bool   `json:"can_override"`
}

// ProposedMedication is one line item of the therapy under evaluation.
type ProposedMedication struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Dose         string    `json:"dose"`
}

// CheckResult aggregates all findings for one evaluation.
// RequiresOverride is true when any critical alert cannot be overridden, which
// blocks the therapy unconditionally.
type CheckResult struct {
	Safe             bool    `json:"safe"`
	Alerts           []Alert `json:"alerts"`
	CriticalAlerts   []Alert `json:"critical_alerts"`
	RequiresOverride bool    `json:"requires_override"`
}
