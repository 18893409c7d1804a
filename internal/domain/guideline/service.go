package guideline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	rules Repository
}

func NewService(rules Repository) *Service {
	return &Service{rules: rules}
}

var validEvidenceLevels = map[string]bool{
	EvidenceLevelA: true, EvidenceLevelB: true, EvidenceLevelC: true,
}

func (s *Service) validate(r *TreatmentRule) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.DiagnosisCodes) == 0 {
		return fmt.Errorf("at least one diagnosis code is required")
	}
	if r.FirstLineMedicationID == uuid.Nil {
		return fmt.Errorf("first_line_medication_id is required")
	}
	if r.EvidenceLevel != nil && !validEvidenceLevels[*r.EvidenceLevel] {
		return fmt.Errorf("invalid evidence_level: %s", *r.EvidenceLevel)
	}
	for i, c := range r.Criteria {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("criteria[%d]: %w", i, err)
		}
	}
	for i, alt := range r.Alternatives {
		if alt.MedicationID == uuid.Nil {
			return fmt.Errorf("alternatives[%d]: medication_id is required", i)
		}
		if alt.Reason == "" {
			return fmt.Errorf("alternatives[%d]: reason is required", i)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, r *TreatmentRule) error {
	if err := s.validate(r); err != nil {
		return err
	}
	return s.rules.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TreatmentRule, error) {
	return s.rules.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, r *TreatmentRule) error {
	if err := s.validate(r); err != nil {
		return err
	}
	return s.rules.Update(ctx, r)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.rules.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*TreatmentRule, int, error) {
	return s.rules.List(ctx, limit, offset)
}

// FindActiveRulesByDiagnosisCode returns the active rules whose diagnosis code
// set contains code. Matching is by code only; criteria are not applied here.
func (s *Service) FindActiveRulesByDiagnosisCode(ctx context.Context, code string) ([]*TreatmentRule, error) {
	if code == "" {
		return nil, nil
	}
	return s.rules.ListActiveByDiagnosisCode(ctx, code)
}
