package formulary

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMedicationNotFound is returned when a medication id does not resolve to a
// catalog record.
var ErrMedicationNotFound = errors.New("medication not found")

type Service struct {
	medications  MedicationRepository
	interactions InteractionRepository
}

func NewService(medications MedicationRepository, interactions InteractionRepository) *Service {
	return &Service{medications: medications, interactions: interactions}
}

// -- Medication --

var validAWaReCategories = map[string]bool{
	AWaReAccess: true, AWaReWatch: true, AWaReReserve: true, AWaReNotApplicable: true,
}

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if m.GenericName == "" {
		return fmt.Errorf("generic_name is required")
	}
	if m.AWaReCategory == "" {
		m.AWaReCategory = AWaReNotApplicable
	}
	if !validAWaReCategories[m.AWaReCategory] {
		return fmt.Errorf("invalid aware_category: %s", m.AWaReCategory)
	}
	return s.medications.Create(ctx, m)
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	if m.AWaReCategory != "" && !validAWaReCategories[m.AWaReCategory] {
		return fmt.Errorf("invalid aware_category: %s", m.AWaReCategory)
	}
	return s.medications.Update(ctx, m)
}

func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	return s.medications.Delete(ctx, id)
}

func (s *Service) ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	return s.medications.List(ctx, limit, offset)
}

func (s *Service) SearchMedications(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	return s.medications.SearchByName(ctx, name, limit, offset)
}

// FindMedicationByID resolves a catalog medication by id.
func (s *Service) FindMedicationByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

// FindActiveAccessAntibiotics returns up to limit active Access-category
// antibiotics ordered by generic name.
func (s *Service) FindActiveAccessAntibiotics(ctx context.Context, limit int) ([]*Medication, error) {
	return s.medications.ListActiveAccessAntibiotics(ctx, limit)
}

// -- Drug Interaction --

var validInteractionSeverities = map[string]bool{
	SeverityMinor: true, SeverityModerate: true, SeverityMajor: true, SeverityContraindicated: true,
}

func (s *Service) CreateInteraction(ctx context.Context, d *DrugInteraction) error {
	if d.MedicationAID == uuid.Nil || d.MedicationBID == uuid.Nil {
		return fmt.Errorf("medication_a_id and medication_b_id are required")
	}
	if d.MedicationAID == d.MedicationBID {
		return fmt.Errorf("interaction requires two distinct medications")
	}
	if !validInteractionSeverities[d.Severity] {
		return fmt.Errorf("invalid severity: %s", d.Severity)
	}
	return s.interactions.Create(ctx, d)
}

func (s *Service) GetInteraction(ctx context.Context, id uuid.UUID) (*DrugInteraction, error) {
	return s.interactions.GetByID(ctx, id)
}

func (s *Service) UpdateInteraction(ctx context.Context, d *DrugInteraction) error {
	if d.Severity != "" && !validInteractionSeverities[d.Severity] {
		return fmt.Errorf("invalid severity: %s", d.Severity)
	}
	return s.interactions.Update(ctx, d)
}

func (s *Service) DeleteInteraction(ctx context.Context, id uuid.UUID) error {
	return s.interactions.Delete(ctx, id)
}

func (s *Service) ListInteractions(ctx context.Context, limit, offset int) ([]*DrugInteraction, int, error) {
	return s.interactions.List(ctx, limit, offset)
}

// FindInteraction looks up the recorded interaction between two medications.
// The pair is unordered. Returns nil when no interaction is recorded.
func (s *Service) FindInteraction(ctx context.Context, a, b uuid.UUID) (*DrugInteraction, error) {
	return s.interactions.FindBetween(ctx, a, b)
}
