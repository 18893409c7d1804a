package recommendation

import (
	"github.com/rxguard/rxguard/internal/domain/formulary"
)

// Confidence scores are hand-tuned constants, kept named so they stay
// independently testable and tunable.
const (
	ConfidenceFirstLine           = 90
	ConfidenceAlternative         = 70
	ConfidenceFallbackPrimary     = 60
	ConfidenceFallbackAlternative = 50
)

// SeveritySevere is the clinical severity label that escalates dosing.
const SeveritySevere = "severe"

// FallbackRuleName is recorded in RulesApplied when no guideline rule matched
// and the Access-antibiotic fallback produced the recommendation.
const FallbackRuleName = "General antibiotic stewardship principles"

// DrugRecommendation is the engine's output for a single medication choice.
// Ephemeral: the engine never persists it.
type DrugRecommendation struct {
	Medication        *formulary.Medication `json:"medication"`
	Dose              string                `json:"dose"`
	Frequency         string                `json:"frequency"`
	Route             string                `json:"route"`
	Duration          string                `json:"duration"`
	Rationale         string                `json:"rationale"`
	IsFirstLine       bool                  `json:"is_first_line"`
	AlternativeReason string                `json:"alternative_reason,omitempty"`
	Confidence        int                   `json:"confidence"`
	GuidelineSource   string                `json:"guideline_source,omitempty"`
	EvidenceLevel     string                `json:"evidence_level,omitempty"`
}

// Result is the full outcome of a recommendation request.
type Result struct {
	Primary      *DrugRecommendation   `json:"primary"`
	Alternatives []*DrugRecommendation `json:"alternatives"`
	RulesApplied []string              `json:"rules_applied"`
	Warnings     []string              `json:"warnings"`
}
