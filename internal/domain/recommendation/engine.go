package recommendation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rxguard/rxguard/internal/domain/formulary"
	"github.com/rxguard/rxguard/internal/domain/guideline"
	"github.com/rxguard/rxguard/internal/domain/patient"
)

// ErrNoSuitableMedication is returned when neither rule matching nor the
// Access-antibiotic fallback produces a recommendation.
var ErrNoSuitableMedication = errors.New("no suitable medication found")

// fallbackLimit caps how many Access antibiotics the fallback path considers.
const fallbackLimit = 5

// Catalog is the read surface the engine needs from the formulary.
type Catalog interface {
	FindMedicationByID(ctx context.Context, id uuid.UUID) (*formulary.Medication, error)
	FindActiveAccessAntibiotics(ctx context.Context, limit int) ([]*formulary.Medication, error)
}

// RuleSource is the read surface the engine needs from the rule repository.
type RuleSource interface {
	FindActiveRulesByDiagnosisCode(ctx context.Context, code string) ([]*guideline.TreatmentRule, error)
}

// Engine selects guideline-based drug recommendations. Stateless: every call
// is a pure function of its inputs plus catalog and rule lookups, so
// concurrent invocations need no synchronization.
type Engine struct {
	catalog Catalog
	rules   RuleSource
}

func NewEngine(catalog Catalog, rules RuleSource) *Engine {
	return &Engine{catalog: catalog, rules: rules}
}

// GetRecommendations matches the diagnosis against active treatment rules and
// derives a primary recommendation plus alternatives. When no rule matches it
// falls back to Access-group antibiotic stewardship defaults.
func (e *Engine) GetRecommendations(ctx context.Context, pc *patient.Context, cc patient.ClinicalContext) (*Result, error) {
	if err := pc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patient context: %w", err)
	}

	var matched []*guideline.TreatmentRule
	if cc.DiagnosisCode != "" {
		rules, err := e.rules.FindActiveRulesByDiagnosisCode(ctx, cc.DiagnosisCode)
		if err != nil {
			return nil, fmt.Errorf("looking up treatment rules: %w", err)
		}
		matched = rules
	}

	rule := guideline.MostRecentlyUpdated(matched)
	if rule == nil {
		return e.fallback(ctx, pc, cc)
	}

	med, err := e.catalog.FindMedicationByID(ctx, rule.FirstLineMedicationID)
	if err != nil {
		return nil, err
	}

	var doseTemplate string
	if rule.FirstLineDose != nil {
		doseTemplate = *rule.FirstLineDose
	}
	primary := e.buildRecommendation(med, rule, pc, cc, doseTemplate)
	primary.IsFirstLine = true
	primary.Confidence = ConfidenceFirstLine

	result := &Result{
		Primary:      primary,
		RulesApplied: []string{rule.Name},
	}

	for _, alt := range rule.Alternatives {
		altMed, err := e.catalog.FindMedicationByID(ctx, alt.MedicationID)
		if err != nil {
			return nil, err
		}
		rec := e.buildRecommendation(altMed, rule, pc, cc, alt.Dose)
		rec.Confidence = ConfidenceAlternative
		rec.AlternativeReason = alt.Reason
		result.Alternatives = append(result.Alternatives, rec)
	}

	if w := stewardshipWarning(med); w != "" {
		result.Warnings = append(result.Warnings, w)
	}
	return result, nil
}

func (e *Engine) buildRecommendation(med *formulary.Medication, rule *guideline.TreatmentRule, pc *patient.Context, cc patient.ClinicalContext, doseTemplate string) *DrugRecommendation {
	draft := deriveDose(med, doseTemplate, pc, cc)
	rec := &DrugRecommendation{
		Medication: med,
		Dose:       draft.Dose,
		Frequency:  draft.Frequency,
		Route:      draft.Route,
		Duration:   draft.Duration,
		Rationale:  buildRationale(med, rule, pc),
	}
	if rule != nil {
		if rule.GuidelineSource != nil {
			rec.GuidelineSource = *rule.GuidelineSource
		}
		if rule.EvidenceLevel != nil {
			rec.EvidenceLevel = *rule.EvidenceLevel
		}
	}
	return rec
}

// fallback selects Access-group antibiotics when no rule matched the
// diagnosis. The first becomes primary, the next two alternatives.
func (e *Engine) fallback(ctx context.Context, pc *patient.Context, cc patient.ClinicalContext) (*Result, error) {
	candidates, err := e.catalog.FindActiveAccessAntibiotics(ctx, fallbackLimit)
	if err != nil {
		return nil, fmt.Errorf("looking up access antibiotics: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoSuitableMedication
	}

	primary := e.buildRecommendation(candidates[0], nil, pc, cc, "")
	primary.IsFirstLine = true
	primary.Confidence = ConfidenceFallbackPrimary

	result := &Result{
		Primary:      primary,
		RulesApplied: []string{FallbackRuleName},
		Warnings: []string{
			"No specific treatment rule found for this diagnosis; consider specialist consultation.",
		},
	}

	for _, med := range candidates[1:] {
		if len(result.Alternatives) == 2 {
			break
		}
		rec := e.buildRecommendation(med, nil, pc, cc, "")
		rec.Confidence = ConfidenceFallbackAlternative
		rec.AlternativeReason = "Alternative Access-group antibiotic"
		result.Alternatives = append(result.Alternatives, rec)
	}
	return result, nil
}
