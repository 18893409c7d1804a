package recommendation

import (
	"fmt"
	"strings"

	"github.com/rxguard/rxguard/internal/domain/formulary"
	"github.com/rxguard/rxguard/internal/domain/guideline"
	"github.com/rxguard/rxguard/internal/domain/patient"
)

// buildRationale composes the recommendation rationale from fixed clauses in
// fixed order: AWaRe framing, guideline citation, renal adjustment, pediatric
// note, pregnancy note. Clauses whose precondition is false are omitted.
func buildRationale(med *formulary.Medication, rule *guideline.TreatmentRule, pc *patient.Context) string {
	var clauses []string

	switch med.AWaReCategory {
	case formulary.AWaReAccess:
		clauses = append(clauses, fmt.Sprintf("%s is a WHO Access-group antibiotic, preferred for empiric first-line therapy.", med.GenericName))
	case formulary.AWaReWatch:
		clauses = append(clauses, fmt.Sprintf("%s is a WHO Watch-group antibiotic; use when Access-group agents are unsuitable.", med.GenericName))
	case formulary.AWaReReserve:
		clauses = append(clauses, fmt.Sprintf("%s is a WHO Reserve-group antibiotic reserved for multidrug-resistant infections.", med.GenericName))
	}

	if rule != nil && rule.GuidelineSource != nil && *rule.GuidelineSource != "" {
		citation := fmt.Sprintf("Recommended by %s", *rule.GuidelineSource)
		if rule.EvidenceLevel != nil && *rule.EvidenceLevel != "" {
			citation += fmt.Sprintf(" (evidence level %s)", *rule.EvidenceLevel)
		}
		clauses = append(clauses, citation+".")
	}

	if pc.EGFR != nil && *pc.EGFR < 60 {
		clauses = append(clauses, fmt.Sprintf("Dosing adjusted for reduced renal function (eGFR %g mL/min).", *pc.EGFR))
	}

	if pc.Age < 18 {
		clauses = append(clauses, "Pediatric patient; confirm weight-based dosing before dispensing.")
	}

	if pc.IsPregnant {
		clauses = append(clauses, "Patient is pregnant; verify pregnancy safety category before administration.")
	}

	return strings.Join(clauses, " ")
}

// stewardshipWarning returns the AWaRe stewardship warning for a primary
// medication, or "" when none applies.
func stewardshipWarning(med *formulary.Medication) string {
	switch med.AWaReCategory {
	case formulary.AWaReWatch:
		return fmt.Sprintf("%s belongs to the WHO Watch group; consider an Access-group alternative if clinically appropriate.", med.GenericName)
	case formulary.AWaReReserve:
		return fmt.Sprintf("%s is a WHO Reserve-group antibiotic; restrict use to failure of first-line therapy or critical illness.", med.GenericName)
	}
	return ""
}
