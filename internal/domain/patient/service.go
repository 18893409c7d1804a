package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrPatientNotFound is returned when a patient id does not resolve to a record.
var ErrPatientNotFound = errors.New("patient not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validAllergySeverities = map[string]bool{
	AllergySeverityMild: true, AllergySeverityModerate: true,
	AllergySeveritySevere: true, AllergySeverityLifeThreatening: true,
}

var validHepaticFunctions = map[string]bool{
	HepaticNormal: true, HepaticMild: true, HepaticModerate: true, HepaticSevere: true,
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if p.BirthDate.IsZero() {
		return fmt.Errorf("birth_date is required")
	}
	if p.BirthDate.After(time.Now()) {
		return fmt.Errorf("birth_date cannot be in the future")
	}
	if p.EGFR != nil && (*p.EGFR < 0 || *p.EGFR > 200) {
		return fmt.Errorf("egfr must be in [0,200]")
	}
	if p.HepaticFunction != nil && !validHepaticFunctions[*p.HepaticFunction] {
		return fmt.Errorf("invalid hepatic_function: %s", *p.HepaticFunction)
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.EGFR != nil && (*p.EGFR < 0 || *p.EGFR > 200) {
		return fmt.Errorf("egfr must be in [0,200]")
	}
	if p.HepaticFunction != nil && !validHepaticFunctions[*p.HepaticFunction] {
		return fmt.Errorf("invalid hepatic_function: %s", *p.HepaticFunction)
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// -- Allergies --

func (s *Service) AddAllergy(ctx context.Context, a *PatientAllergy) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.Allergen == "" {
		return fmt.Errorf("allergen is required")
	}
	if !validAllergySeverities[a.Severity] {
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	return s.repo.AddAllergy(ctx, a)
}

func (s *Service) GetAllergies(ctx context.Context, patientID uuid.UUID) ([]*PatientAllergy, error) {
	return s.repo.GetAllergies(ctx, patientID)
}

func (s *Service) RemoveAllergy(ctx context.Context, id uuid.UUID) error {
	return s.repo.RemoveAllergy(ctx, id)
}

// -- Conditions --

func (s *Service) AddCondition(ctx context.Context, c *PatientCondition) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if c.DiagnosisName == "" {
		return fmt.Errorf("diagnosis_name is required")
	}
	return s.repo.AddCondition(ctx, c)
}

func (s *Service) GetActiveConditions(ctx context.Context, patientID uuid.UUID) ([]*PatientCondition, error) {
	return s.repo.GetActiveConditions(ctx, patientID)
}

func (s *Service) RemoveCondition(ctx context.Context, id uuid.UUID) error {
	return s.repo.RemoveCondition(ctx, id)
}

// -- Current medications --

func (s *Service) AddMedication(ctx context.Context, m *PatientMedication) error {
	if m.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if m.MedicationID == uuid.Nil {
		return fmt.Errorf("medication_id is required")
	}
	if m.GenericName == "" {
		return fmt.Errorf("generic_name is required")
	}
	return s.repo.AddMedication(ctx, m)
}

func (s *Service) GetActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*PatientMedication, error) {
	return s.repo.GetActiveMedications(ctx, patientID)
}

func (s *Service) RemoveMedication(ctx context.Context, id uuid.UUID) error {
	return s.repo.RemoveMedication(ctx, id)
}

// BuildContext assembles a fresh clinical snapshot for the patient. Age is
// recomputed from the birth date at call time.
func (s *Service) BuildContext(ctx context.Context, patientID uuid.UUID) (*Context, error) {
	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	allergies, err := s.repo.GetAllergies(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading allergies: %w", err)
	}
	conditions, err := s.repo.GetActiveConditions(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading conditions: %w", err)
	}
	medications, err := s.repo.GetActiveMedications(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading medications: %w", err)
	}

	pc := &Context{
		PatientID:       p.ID,
		Age:             AgeAt(p.BirthDate, time.Now()),
		WeightKG:        p.WeightKG,
		BodySurfaceArea: p.BodySurfaceArea,
		Gender:          p.Gender,
		IsPregnant:      p.IsPregnant,
		IsLactating:     p.IsLactating,
		EGFR:            p.EGFR,
	}
	if p.HepaticFunction != nil {
		pc.HepaticFunction = *p.HepaticFunction
	}
	for _, a := range allergies {
		pc.Allergies = append(pc.Allergies, Allergy{Allergen: a.Allergen, Severity: a.Severity})
	}
	for _, c := range conditions {
		pc.Conditions = append(pc.Conditions, Condition{Code: c.DiagnosisCode, Name: c.DiagnosisName})
	}
	for _, m := range medications {
		pc.CurrentMedications = append(pc.CurrentMedications, CurrentMedication{
			MedicationID: m.MedicationID,
			GenericName:  m.GenericName,
		})
	}

	if err := pc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patient context: %w", err)
	}
	return pc, nil
}
