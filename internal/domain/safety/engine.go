package safety

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rxguard/rxguard/internal/domain/formulary"
	"github.com/rxguard/rxguard/internal/domain/patient"
)

// Thresholds for the numeric checks.
const (
	egfrCautionThreshold  = 60
	egfrCriticalThreshold = 30
	renalDoseThreshold    = 50
	maxLeadingDoseValue   = 5000
	geriatricAge          = 65
	pediatricAge          = 18
	reyesSyndromeAge      = 12
)

// Catalog is the read surface the engine needs from the formulary.
type Catalog interface {
	FindMedicationByID(ctx context.Context, id uuid.UUID) (*formulary.Medication, error)
	FindInteraction(ctx context.Context, a, b uuid.UUID) (*formulary.DrugInteraction, error)
}

// Engine validates a proposed medication set against a patient snapshot.
// Stateless and idempotent: for fixed inputs the alert set is identical on
// every call.
type Engine struct {
	catalog Catalog
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// resolvedMedication pairs a proposed entry with its catalog record.
type resolvedMedication struct {
	Entry      ProposedMedication
	Medication *formulary.Medication
}

// PerformSafetyCheck runs all eight hazard checks over the proposed therapy.
// Every check always runs so one call reports every hazard category at once.
// A proposed entry whose medication id does not resolve is skipped for all
// checks; it must not hide findings for the other entries.
func (e *Engine) PerformSafetyCheck(ctx context.Context, pc *patient.Context, proposed []ProposedMedication) (*CheckResult, error) {
	if err := pc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patient context: %w", err)
	}

	resolved := make([]resolvedMedication, 0, len(proposed))
	for _, entry := range proposed {
		med, err := e.catalog.FindMedicationByID(ctx, entry.MedicationID)
		if errors.Is(err, formulary.ErrMedicationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, resolvedMedication{Entry: entry, Medication: med})
	}

	current, err := e.resolveCurrentMedications(ctx, pc)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	alerts = append(alerts, checkAllergies(pc, resolved)...)

	interactionAlerts, err := e.checkInteractions(ctx, pc, resolved)
	if err != nil {
		return nil, err
	}
	alerts = append(alerts, interactionAlerts...)

	alerts = append(alerts, checkContraindications(pc, resolved)...)
	alerts = append(alerts, checkDuplicateTherapy(pc, resolved, current)...)
	alerts = append(alerts, checkDoseRange(pc, proposed, resolved)...)
	alerts = append(alerts, checkOrganFunction(pc, resolved)...)
	alerts = append(alerts, checkPregnancyLactation(pc, resolved)...)
	alerts = append(alerts, checkAgeSpecific(pc, resolved)...)

	result := &CheckResult{Alerts: alerts}
	for _, a := range alerts {
		if a.Severity == SeverityCritical {
			result.CriticalAlerts = append(result.CriticalAlerts, a)
			if !a.CanOverride {
				result.RequiresOverride = true
			}
		}
	}
	result.Safe = len(result.CriticalAlerts) == 0
	return result, nil
}

// resolveCurrentMedications loads catalog records for the patient's current
// medications where available. Stale ids are skipped; the snapshot name still
// covers them for the name-based checks.
func (e *Engine) resolveCurrentMedications(ctx context.Context, pc *patient.Context) ([]*formulary.Medication, error) {
	var out []*formulary.Medication
	for _, cm := range pc.CurrentMedications {
		med, err := e.catalog.FindMedicationByID(ctx, cm.MedicationID)
		if errors.Is(err, formulary.ErrMedicationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, med)
	}
	return out, nil
}

// ── Check 1: allergies ──

func checkAllergies(pc *patient.Context, resolved []resolvedMedication) []Alert {
	var alerts []Alert
	for _, rm := range resolved {
		name := strings.ToLower(rm.Medication.GenericName)
		for _, allergy := range pc.Allergies {
			allergen := strings.ToLower(allergy.Allergen)

			direct := strings.Contains(name, allergen) || strings.Contains(allergen, name)
			crossRule := matchCrossSensitivity(allergen, name)

			if direct || crossRule != nil {
				severity := SeverityWarning
				if allergy.Severity == patient.AllergySeveritySevere || allergy.Severity == patient.AllergySeverityLifeThreatening {
					severity = SeverityCritical
				}
				alerts = append(alerts, Alert{
					HazardType: HazardAllergy,
					Severity:   severity,
					Message: fmt.Sprintf("Patient has a documented %s allergy (%s); %s may trigger a reaction",
						allergy.Allergen, allergy.Severity, rm.Medication.GenericName),
					Recommendation: "Select an alternative agent or confirm allergy history",
					CanOverride:    allergy.Severity != patient.AllergySeverityLifeThreatening,
				})
			}

			// The cross-sensitivity alert is additive, not a replacement.
			if crossRule != nil {
				alerts = append(alerts, Alert{
					HazardType: HazardAllergy,
					Severity:   SeverityWarning,
					Message: fmt.Sprintf("%s may cross-react with the patient's %s allergy",
						rm.Medication.GenericName, allergy.Allergen),
					Rationale:   crossRule.Note,
					CanOverride: true,
				})
			}
		}
	}
	return alerts
}

func matchCrossSensitivity(allergen, medName string) *crossSensitivityRule {
	for i, rule := range crossSensitivityRules {
		if !strings.Contains(allergen, rule.AllergenKeyword) {
			continue
		}
		for _, kw := range rule.RelatedKeywords {
			if strings.Contains(medName, kw) {
				return &crossSensitivityRules[i]
			}
		}
	}
	return nil
}

// ── Check 2: drug-drug interactions ──

func (e *Engine) checkInteractions(ctx context.Context, pc *patient.Context, resolved []resolvedMedication) ([]Alert, error) {
	var alerts []Alert

	// Every unordered pair among the proposed medications, exactly once.
	for i := 0; i < len(resolved); i++ {
		for j := i + 1; j < len(resolved); j++ {
			d, err := e.catalog.FindInteraction(ctx, resolved[i].Entry.MedicationID, resolved[j].Entry.MedicationID)
			if err != nil {
				return nil, err
			}
			if d != nil {
				alerts = append(alerts, interactionAlert(d, resolved[i].Medication.GenericName, resolved[j].Medication.GenericName))
			}
		}
	}

	// Each proposed medication against each current medication.
	for _, rm := range resolved {
		for _, cm := range pc.CurrentMedications {
			d, err := e.catalog.FindInteraction(ctx, rm.Entry.MedicationID, cm.MedicationID)
			if err != nil {
				return nil, err
			}
			if d != nil {
				alerts = append(alerts, interactionAlert(d, rm.Medication.GenericName, cm.GenericName))
			}
		}
	}
	return alerts, nil
}

func interactionAlert(d *formulary.DrugInteraction, nameA, nameB string) Alert {
	a := Alert{
		HazardType:  HazardInteraction,
		Message:     fmt.Sprintf("Interaction between %s and %s (%s)", nameA, nameB, d.Severity),
		CanOverride: true,
	}
	switch d.Severity {
	case formulary.SeverityContraindicated:
		a.Severity = SeverityCritical
		a.CanOverride = false
	case formulary.SeverityMajor:
		a.Severity = SeverityCritical
	case formulary.SeverityModerate:
		a.Severity = SeverityWarning
	default:
		a.Severity = SeverityInfo
	}
	if d.Description != nil {
		a.Rationale = *d.Description
	}
	if d.Management != nil {
		a.Recommendation = *d.Management
	}
	return a
}

// ── Check 3: condition contraindications ──

func checkContraindications(pc *patient.Context, resolved []resolvedMedication) []Alert {
	var alerts []Alert
	for _, cond := range pc.Conditions {
		condName := strings.ToLower(cond.Name)
		for _, rule := range conditionContraindications {
			if !strings.Contains(condName, rule.ConditionKeyword) {
				continue
			}
			for _, rm := range resolved {
				name := strings.ToLower(rm.Medication.GenericName)
				for _, kw := range rule.DrugKeywords {
					if strings.Contains(name, kw) {
						alerts = append(alerts, Alert{
							HazardType: HazardContraindication,
							Severity:   SeverityCritical,
							Message: fmt.Sprintf("%s is contraindicated with %s",
								rm.Medication.GenericName, cond.Name),
							Rationale:   rule.Note,
							CanOverride: false,
						})
						break
					}
				}
			}
		}
	}
	return alerts
}

// ── Check 4: duplicate therapy ──

func checkDuplicateTherapy(pc *patient.Context, resolved []resolvedMedication, current []*formulary.Medication) []Alert {
	var alerts []Alert

	for _, rm := range resolved {
		for _, cm := range pc.CurrentMedications {
			if rm.Entry.MedicationID == cm.MedicationID || strings.EqualFold(rm.Medication.GenericName, cm.GenericName) {
				alerts = append(alerts, Alert{
					HazardType: HazardDuplicateTherapy,
					Severity:   SeverityWarning,
					Message: fmt.Sprintf("%s is already on the patient's current medication list",
						rm.Medication.GenericName),
					Recommendation: "Review the current regimen before adding a duplicate",
					CanOverride:    true,
				})
			}
		}
	}

	// One alert per therapeutic class represented more than once across the
	// proposed and current medications combined.
	classCount := make(map[string]int)
	classMembers := make(map[string][]string)
	seen := make(map[uuid.UUID]bool)
	countClass := func(med *formulary.Medication) {
		if seen[med.ID] || med.TherapeuticClass == nil || *med.TherapeuticClass == "" {
			return
		}
		seen[med.ID] = true
		class := strings.ToLower(*med.TherapeuticClass)
		classCount[class]++
		classMembers[class] = append(classMembers[class], med.GenericName)
	}
	for _, rm := range resolved {
		countClass(rm.Medication)
	}
	for _, med := range current {
		countClass(med)
	}

	var classes []string
	for class, n := range classCount {
		if n > 1 {
			classes = append(classes, class)
		}
	}
	// Deterministic alert order across calls.
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			if classes[j] < classes[i] {
				classes[i], classes[j] = classes[j], classes[i]
			}
		}
	}
	for _, class := range classes {
		alerts = append(alerts, Alert{
			HazardType: HazardDuplicateTherapy,
			Severity:   SeverityWarning,
			Message: fmt.Sprintf("Multiple medications share the therapeutic class %q: %s",
				class, strings.Join(classMembers[class], ", ")),
			Recommendation: "Confirm intentional combination therapy",
			CanOverride:    true,
		})
	}
	return alerts
}

// ── Check 5: dose range ──

func checkDoseRange(pc *patient.Context, proposed []ProposedMedication, resolved []resolvedMedication) []Alert {
	var alerts []Alert

	// Gated on the proposed list, not the resolved one: a stale medication id
	// must not hide this patient-level warning.
	if pc.Age < pediatricAge && pc.WeightKG == nil && len(proposed) > 0 {
		alerts = append(alerts, Alert{
			HazardType:     HazardDoseRange,
			Severity:       SeverityWarning,
			Message:        "Pediatric patient has no recorded weight; weight is required for accurate dosing",
			Recommendation: "Record the patient's weight before prescribing",
			CanOverride:    true,
		})
	}

	for _, rm := range resolved {
		value, ok := leadingNumber(rm.Entry.Dose)
		if ok && value > maxLeadingDoseValue {
			alerts = append(alerts, Alert{
				HazardType: HazardDoseRange,
				Severity:   SeverityCritical,
				Message: fmt.Sprintf("Unusually high dose %q for %s",
					rm.Entry.Dose, rm.Medication.GenericName),
				Recommendation: "Verify the intended dose and units",
				CanOverride:    true,
			})
		}
	}
	return alerts
}

// leadingNumber parses the leading numeric value of a dose string, ignoring
// units. Returns false when the string does not start with a number.
func leadingNumber(dose string) (float64, bool) {
	s := strings.TrimSpace(dose)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ── Check 6: organ function ──

func checkOrganFunction(pc *patient.Context, resolved []resolvedMedication) []Alert {
	var alerts []Alert

	if pc.EGFR != nil && *pc.EGFR < egfrCautionThreshold {
		critical := *pc.EGFR < egfrCriticalThreshold
		for _, rm := range resolved {
			name := strings.ToLower(rm.Medication.GenericName)
			rule := matchKeyword(renalRiskRules, name)
			if rule == nil {
				continue
			}
			a := Alert{
				HazardType: HazardOrganFunction,
				Severity:   SeverityWarning,
				Message: fmt.Sprintf("%s requires caution at eGFR %g mL/min",
					rm.Medication.GenericName, *pc.EGFR),
				Rationale:      rule.Note,
				Recommendation: "Adjust the dose for renal function or select an alternative",
				CanOverride:    true,
			}
			if critical {
				a.Severity = SeverityCritical
				a.CanOverride = false
				a.Message = fmt.Sprintf("%s is unsafe at eGFR %g mL/min",
					rm.Medication.GenericName, *pc.EGFR)
			}
			alerts = append(alerts, a)
		}
	}

	if pc.HepaticFunction == patient.HepaticModerate || pc.HepaticFunction == patient.HepaticSevere {
		for _, rm := range resolved {
			name := strings.ToLower(rm.Medication.GenericName)
			rule := matchKeyword(hepaticRiskRules, name)
			if rule == nil {
				continue
			}
			alerts = append(alerts, Alert{
				HazardType: HazardOrganFunction,
				Severity:   SeverityWarning,
				Message: fmt.Sprintf("%s requires caution with %s hepatic impairment",
					rm.Medication.GenericName, pc.HepaticFunction),
				Rationale:   rule.Note,
				CanOverride: true,
			})
		}
	}
	return alerts
}

// ── Check 7: pregnancy and lactation ──

func checkPregnancyLactation(pc *patient.Context, resolved []resolvedMedication) []Alert {
	var alerts []Alert

	if pc.IsPregnant {
		for _, rm := range resolved {
			name := strings.ToLower(rm.Medication.GenericName)
			if rule := matchKeyword(pregnancyContraindicatedRules, name); rule != nil {
				alerts = append(alerts, Alert{
					HazardType:  HazardPregnancy,
					Severity:    SeverityCritical,
					Message:     fmt.Sprintf("%s is contraindicated in pregnancy", rm.Medication.GenericName),
					Rationale:   rule.Note,
					CanOverride: false,
				})
				continue
			}
			if rule := matchKeyword(pregnancyCautionRules, name); rule != nil {
				alerts = append(alerts, Alert{
					HazardType:  HazardPregnancy,
					Severity:    SeverityWarning,
					Message:     fmt.Sprintf("%s requires caution in pregnancy", rm.Medication.GenericName),
					Rationale:   rule.Note,
					CanOverride: true,
				})
			}
		}
	}

	if pc.IsLactating {
		for _, rm := range resolved {
			name := strings.ToLower(rm.Medication.GenericName)
			if rule := matchKeyword(lactationCautionRules, name); rule != nil {
				alerts = append(alerts, Alert{
					HazardType:  HazardPregnancy,
					Severity:    SeverityWarning,
					Message:     fmt.Sprintf("%s requires caution while breastfeeding", rm.Medication.GenericName),
					Rationale:   rule.Note,
					CanOverride: true,
				})
			}
		}
	}
	return alerts
}

// ── Check 8: age-specific ──

func checkAgeSpecific(pc *patient.Context, resolved []resolvedMedication) []Alert {
	var alerts []Alert

	if pc.Age < pediatricAge {
		for _, rm := range resolved {
			name := strings.ToLower(rm.Medication.GenericName)
			rule := matchKeyword(pediatricAvoidRules, name)
			if rule == nil {
				continue
			}
			// Reye's syndrome: aspirin under 12 escalates to a hard block.
			if rule.Keyword == "aspirin" && pc.Age < reyesSyndromeAge {
				alerts = append(alerts, Alert{
					HazardType: HazardAge,
					Severity:   SeverityCritical,
					Message: fmt.Sprintf("%s is contraindicated under age %d",
						rm.Medication.GenericName, reyesSyndromeAge),
					Rationale:   "Risk of Reye's syndrome",
					CanOverride: false,
				})
			} else {
				alerts = append(alerts, Alert{
					HazardType:  HazardAge,
					Severity:    SeverityWarning,
					Message:     fmt.Sprintf("%s is generally avoided in patients under %d", rm.Medication.GenericName, pediatricAge),
					Rationale:   rule.Note,
					CanOverride: true,
				})
			}
		}
	}

	if pc.Age >= geriatricAge {
		for _, rm := range resolved {
			name := strings.ToLower(rm.Medication.GenericName)
			if rule := matchKeyword(geriatricCautionRules, name); rule != nil {
				alerts = append(alerts, Alert{
					HazardType:  HazardAge,
					Severity:    SeverityInfo,
					Message:     fmt.Sprintf("%s warrants caution in patients %d and older", rm.Medication.GenericName, geriatricAge),
					Rationale:   rule.Note,
					CanOverride: true,
				})
			}
		}
	}
	return alerts
}
