package recommendation

import (
	"fmt"
	"strings"

	"github.com/rxguard/rxguard/internal/domain/formulary"
	"github.com/rxguard/rxguard/internal/domain/patient"
)

// Default dosing applied before any patient-specific adjustment.
const (
	defaultFrequency = "twice daily"
	defaultDuration  = "7 days"
	defaultRoute     = "oral"
)

// DoseDraft is an immutable dosing value threaded through the adjustment
// pipeline. Each adjustment returns a new draft.
type DoseDraft struct {
	Dose      string
	Frequency string
	Route     string
	Duration  string
}

type doseAdjustment func(d DoseDraft, pc *patient.Context, cc patient.ClinicalContext) DoseDraft

// doseAdjustments run in fixed order. Later adjustments overwrite fields set
// by earlier ones, so severity wins over renal when both apply.
var doseAdjustments = []doseAdjustment{
	adjustPediatric,
	adjustRenal,
	adjustSeverity,
}

func baseDraft(med *formulary.Medication, doseTemplate string) DoseDraft {
	d := DoseDraft{
		Dose:      doseTemplate,
		Frequency: defaultFrequency,
		Route:     defaultRoute,
		Duration:  defaultDuration,
	}
	if d.Dose == "" && med.Strength != nil {
		d.Dose = *med.Strength
	}
	if d.Dose == "" {
		d.Dose = "As directed"
	}
	if med.Route != nil && *med.Route != "" {
		d.Route = *med.Route
	}
	return d
}

// deriveDose computes patient-adjusted dosing for a medication. doseTemplate,
// when non-empty, takes precedence over the medication's nominal strength.
func deriveDose(med *formulary.Medication, doseTemplate string, pc *patient.Context, cc patient.ClinicalContext) DoseDraft {
	d := baseDraft(med, doseTemplate)
	for _, adjust := range doseAdjustments {
		d = adjust(d, pc, cc)
	}
	return d
}

// adjustPediatric replaces the fixed adult dose with a weight-scaled
// placeholder. True pediatric tables are the caller's responsibility; this
// only flags the need.
func adjustPediatric(d DoseDraft, pc *patient.Context, _ patient.ClinicalContext) DoseDraft {
	if pc.Age < 18 && pc.WeightKG != nil {
		d.Dose = fmt.Sprintf("Based on %gkg", *pc.WeightKG)
	}
	return d
}

// adjustRenal reduces frequency only; dose quantity is untouched.
func adjustRenal(d DoseDraft, pc *patient.Context, _ patient.ClinicalContext) DoseDraft {
	if pc.EGFR != nil && *pc.EGFR < 50 {
		d.Frequency = "once daily"
	}
	return d
}

func adjustSeverity(d DoseDraft, _ *patient.Context, cc patient.ClinicalContext) DoseDraft {
	if !strings.EqualFold(cc.Severity, SeveritySevere) {
		return d
	}
	if isIVRoute(d.Route) {
		d.Frequency = "four times daily"
	} else {
		d.Frequency = "three times daily"
	}
	d.Duration = "10-14 days"
	return d
}

func isIVRoute(route string) bool {
	r := strings.ToLower(route)
	return r == "iv" || strings.Contains(r, "intravenous")
}
