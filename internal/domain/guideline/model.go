package guideline

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Evidence levels for a treatment rule.
const (
	EvidenceLevelA = "A"
	EvidenceLevelB = "B"
	EvidenceLevelC = "C"
)

// Alternative is a second-line choice on a treatment rule, with the
// rule-authored reason for preferring it.
type Alternative struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Dose         string    `json:"dose,omitempty"`
	Reason       string    `json:"reason"`
}

// TreatmentRule maps to the treatment_rule table. Diagnosis codes are the only
// matching key; criteria are applicability predicates evaluated separately.
type TreatmentRule struct {
	ID                    uuid.UUID     `db:"id" json:"id"`
	Name                  string        `db:"name" json:"name"`
	DiagnosisCodes        []string      `db:"diagnosis_codes" json:"diagnosis_codes"`
	Criteria              []Criterion   `db:"criteria" json:"criteria,omitempty"`
	FirstLineMedicationID uuid.UUID     `db:"first_line_medication_id" json:"first_line_medication_id"`
	FirstLineDose         *string       `db:"first_line_dose" json:"first_line_dose,omitempty"`
	Alternatives          []Alternative `db:"alternatives" json:"alternatives,omitempty"`
	AWaRePreference       *string       `db:"aware_preference" json:"aware_preference,omitempty"`
	GuidelineSource       *string       `db:"guideline_source" json:"guideline_source,omitempty"`
	EvidenceLevel         *string       `db:"evidence_level" json:"evidence_level,omitempty"`
	Active                bool          `db:"active" json:"active"`
	CreatedAt             time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time     `db:"updated_at" json:"updated_at"`
}

// MatchesDiagnosisCode reports whether the rule's code set contains code.
func (r *TreatmentRule) MatchesDiagnosisCode(code string) bool {
	for _, c := range r.DiagnosisCodes {
		if c == code {
			return true
		}
	}
	return false
}

// MostRecentlyUpdated picks the single winning rule among candidates: latest
// UpdatedAt wins, with name as the tie-break so the result is deterministic
// even when timestamps collide. Returns nil for an empty slice.
func MostRecentlyUpdated(rules []*TreatmentRule) *TreatmentRule {
	if len(rules) == 0 {
		return nil
	}
	sorted := make([]*TreatmentRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted[0]
}
